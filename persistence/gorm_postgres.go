// persistence/gorm_postgres.go
package persistence

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/wfunc/matchbot/models"
)

// GormRecordStore 使用GORM的服务记录存储
type GormRecordStore struct {
	db *gorm.DB
}

// NewGormRecordStore 创建GORM PostgreSQL数据库连接
func NewGormRecordStore(host string, port int, user, password, dbname string) (*GormRecordStore, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	gormLogger := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold: time.Second,
			LogLevel:      gormlogger.Silent,
			Colorful:      false,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// 设置连接池
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&models.GormServiceRecord{}); err != nil {
		return nil, err
	}

	return &GormRecordStore{db: db}, nil
}

func (s *GormRecordStore) Get(ctx context.Context, userID string) (*models.ServiceRecord, error) {
	var row models.GormServiceRecord
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.Record(), nil
}

func (s *GormRecordStore) GetByObjectID(ctx context.Context, objectID string) (*models.ServiceRecord, error) {
	var row models.GormServiceRecord
	err := s.db.WithContext(ctx).Where("object_id = ?", objectID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.Record(), nil
}

// AddResult 累加胜负记录（原子操作）
func (s *GormRecordStore) AddResult(ctx context.Context, user models.ChannelAccount, wins, losses, ties int) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row models.GormServiceRecord
		err := tx.Where("user_id = ?", user.ID).First(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			row = models.GormServiceRecord{
				UserID:   user.ID,
				ObjectID: user.ObjectID,
				Name:     user.Name,
				Wins:     wins,
				Losses:   losses,
				Ties:     ties,
			}
			return tx.Create(&row).Error
		}
		if err != nil {
			return err
		}

		return tx.Model(&row).Updates(map[string]interface{}{
			"wins":   gorm.Expr("wins + ?", wins),
			"losses": gorm.Expr("losses + ?", losses),
			"ties":   gorm.Expr("ties + ?", ties),
		}).Error
	})
}

// Close 关闭数据库连接
func (s *GormRecordStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
