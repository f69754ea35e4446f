// persistence/postgres.go
package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	// PostgreSQL 驱动
	_ "github.com/lib/pq"
)

// PostgresConversationStore 会话数据存储
// Conversation properties live in one table keyed by
// (channel_id, conversation_id, key) with an etag column enforcing the
// optimistic-concurrency contract at the SQL level.
type PostgresConversationStore struct {
	db *sql.DB
}

func NewPostgresConversationStore(host string, port int, user, password, dbname string) (*PostgresConversationStore, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := initTables(db); err != nil {
		return nil, err
	}

	return &PostgresConversationStore{db: db}, nil
}

// initTables 初始化数据库表结构
func initTables(db *sql.DB) error {
	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS conversation_data (
            id SERIAL PRIMARY KEY,
            channel_id VARCHAR(255) NOT NULL,
            conversation_id VARCHAR(255) NOT NULL,
            key VARCHAR(255) NOT NULL,
            value JSONB NOT NULL,
            etag VARCHAR(64) NOT NULL,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
            UNIQUE (channel_id, conversation_id, key)
        )
    `)
	return err
}

func (p *PostgresConversationStore) Load(ctx context.Context, addr Address, key string) (json.RawMessage, string, error) {
	var value []byte
	var etag string
	err := p.db.QueryRowContext(ctx, `
        SELECT value, etag FROM conversation_data
        WHERE channel_id = $1 AND conversation_id = $2 AND key = $3
    `, addr.ChannelID, addr.ConversationID, key).Scan(&value, &etag)
	if err == sql.ErrNoRows {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", err
	}
	return value, etag, nil
}

func (p *PostgresConversationStore) Save(ctx context.Context, addr Address, key string, value json.RawMessage, etag string) error {
	next := uuid.New().String()

	if etag == "" {
		// Create; the unique constraint rejects a concurrent creator.
		_, err := p.db.ExecContext(ctx, `
            INSERT INTO conversation_data (channel_id, conversation_id, key, value, etag)
            VALUES ($1, $2, $3, $4, $5)
        `, addr.ChannelID, addr.ConversationID, key, []byte(value), next)
		if err != nil {
			return ErrConflict
		}
		return nil
	}

	result, err := p.db.ExecContext(ctx, `
        UPDATE conversation_data
        SET value = $4, etag = $5, updated_at = CURRENT_TIMESTAMP
        WHERE channel_id = $1 AND conversation_id = $2 AND key = $3 AND etag = $6
    `, addr.ChannelID, addr.ConversationID, key, []byte(value), next, etag)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrConflict
	}
	return nil
}

// Close 关闭数据库连接
func (p *PostgresConversationStore) Close() error {
	return p.db.Close()
}
