package drafts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Record is the persisted form of one draft list: a single row per
// (tenant, kind) holding the serialized lines, replaced wholesale on
// every mutation. Last writer wins.
type Record struct {
	TenantID  int       `gorm:"primaryKey;column:tenant_id"`
	Kind      string    `gorm:"primaryKey;column:kind"`
	Lines     string    `gorm:"column:lines;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// TableName keeps the table name explicit.
func (Record) TableName() string {
	return "draft_lists"
}

// Storage is the persistence surface the draft service requires.
type Storage interface {
	Load(ctx context.Context, tenantID int, kind Kind) ([]Line, error)
	Save(ctx context.Context, tenantID int, kind Kind, lines []Line) error
	Delete(ctx context.Context, tenantID int, kind Kind) error
}

// Store persists draft lists through GORM.
type Store struct {
	db *gorm.DB
}

// NewStore binds the store to the provided GORM handle.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Load reads the persisted list for one tenant and workflow. A missing
// row is an empty list, not an error.
func (s *Store) Load(ctx context.Context, tenantID int, kind Kind) ([]Line, error) {
	var record Record
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND kind = ?", tenantID, string(kind)).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading draft list: %w", err)
	}

	var lines []Line
	if err := json.Unmarshal([]byte(record.Lines), &lines); err != nil {
		return nil, fmt.Errorf("decoding draft list: %w", err)
	}
	return lines, nil
}

// Save replaces the persisted list for one tenant and workflow.
func (s *Store) Save(ctx context.Context, tenantID int, kind Kind, lines []Line) error {
	if lines == nil {
		lines = []Line{}
	}
	encoded, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("encoding draft list: %w", err)
	}

	record := Record{
		TenantID:  tenantID,
		Kind:      string(kind),
		Lines:     string(encoded),
		UpdatedAt: time.Now().UTC(),
	}
	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "kind"}},
			UpdateAll: true,
		}).
		Create(&record).Error
	if err != nil {
		return fmt.Errorf("saving draft list: %w", err)
	}
	return nil
}

// Delete removes the persisted list for one tenant and workflow.
// Deleting an absent row is a no-op.
func (s *Store) Delete(ctx context.Context, tenantID int, kind Kind) error {
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND kind = ?", tenantID, string(kind)).
		Delete(&Record{}).Error
	if err != nil {
		return fmt.Errorf("deleting draft list: %w", err)
	}
	return nil
}
