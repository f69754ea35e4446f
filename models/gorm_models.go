// models/gorm_models.go
package models

import (
	"gorm.io/gorm"
)

// GormServiceRecord 服务记录模型
type GormServiceRecord struct {
	gorm.Model
	UserID   string `gorm:"uniqueIndex;not null"`
	ObjectID string `gorm:"index"`
	Name     string `gorm:"not null"`
	Wins     int    `gorm:"default:0"`
	Losses   int    `gorm:"default:0"`
	Ties     int    `gorm:"default:0"`
}

// Record converts the row back to the domain shape.
func (g *GormServiceRecord) Record() *ServiceRecord {
	return &ServiceRecord{
		User: ChannelAccount{
			ID:       g.UserID,
			Name:     g.Name,
			ObjectID: g.ObjectID,
		},
		Wins:   g.Wins,
		Losses: g.Losses,
		Ties:   g.Ties,
	}
}
