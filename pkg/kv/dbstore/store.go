// Package dbstore implements the key-value mirror on a relational table for
// deployments without Redis. SQLite keeps the local-storage character of the
// original persistence: a small per-install file that survives restarts.
package dbstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mindovermyth/sessionhub/pkg/db"
	"github.com/mindovermyth/sessionhub/pkg/kv"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Entry is one persisted key-value pair.
type Entry struct {
	Key       string    `gorm:"column:key;primaryKey"`
	Value     string    `gorm:"column:value;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName keeps the table name stable across GORM naming strategies.
func (Entry) TableName() string { return "kv_entries" }

// Store adapts a db.Client to the kv.Mirror interface.
type Store struct {
	client *db.Client
}

// New migrates the backing table and returns the mirror.
func New(client *db.Client) (*Store, error) {
	if client == nil {
		return nil, errors.New("db client is required")
	}
	if err := client.DB().AutoMigrate(&Entry{}); err != nil {
		return nil, fmt.Errorf("migrating kv_entries: %w", err)
	}
	return &Store{client: client}, nil
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	var entry Entry
	err := s.client.DB().WithContext(ctx).First(&entry, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", kv.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return entry.Value, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	entry := Entry{Key: key, Value: value}
	return s.client.DB().WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&entry).Error
}

func (s *Store) Delete(ctx context.Context, key string) error {
	return s.client.DB().WithContext(ctx).Delete(&Entry{}, "key = ?", key).Error
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}

func (s *Store) Close() error {
	return s.client.Close()
}
