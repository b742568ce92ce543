package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CollectionModel is the GORM row holding one whole collection payload.
type CollectionModel struct {
	Name      string         `gorm:"primaryKey"`
	Data      datatypes.JSON `gorm:"not null"`
	UpdatedAt time.Time      `gorm:"not null"`
}

// TableName pins the table name.
func (CollectionModel) TableName() string { return "collections" }

// GormStore implements Store using GORM + Postgres. Each collection lives in
// a single row, so a save is one UPSERT and replaces the payload whole.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations.
func NewGormStore(dsn string) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.AutoMigrate(&CollectionModel{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

// NewGormStoreFromDB wraps an existing GORM handle (used by tests).
func NewGormStoreFromDB(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&CollectionModel{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

// Load fetches a collection payload.
func (s *GormStore) Load(ctx context.Context, collection string) ([]byte, bool, error) {
	var model CollectionModel
	if err := s.db.WithContext(ctx).First(&model, "name = ?", collection).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, false, nil
		}
		return nil, false, err
	}
	return []byte(model.Data), true, nil
}

// Save upserts the collection payload in one statement.
func (s *GormStore) Save(ctx context.Context, collection string, data []byte) error {
	model := CollectionModel{
		Name:      collection,
		Data:      datatypes.JSON(data),
		UpdatedAt: time.Now().UTC(),
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
	}).Create(&model).Error
}
