// Package kv provides the flat namespaced key-value store backing all
// persisted entities. Values are JSON documents stored under string keys
// of the form "<prefix>:<id>".
package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotFound is returned when a key has no entry.
var ErrNotFound = errors.New("kv: key not found")

type entry struct {
	K         string    `gorm:"column:k;primaryKey"`
	V         string    `gorm:"column:v;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (entry) TableName() string { return "kv_entries" }

// Store exposes get/set/delete/prefix-scan over the kv_entries table.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Get loads the value at key into dest. Returns ErrNotFound when absent.
func (s *Store) Get(ctx context.Context, key string, dest any) error {
	var row entry
	err := s.db.WithContext(ctx).First(&row, "k = ?", key).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("kv get %q: %w", key, err)
	}
	if dest == nil {
		return nil
	}
	if err := json.Unmarshal([]byte(row.V), dest); err != nil {
		return fmt.Errorf("kv decode %q: %w", key, err)
	}
	return nil
}

// GetRaw returns the stored bytes at key without decoding them, so callers
// can handle documents that are not valid JSON. Returns ErrNotFound when
// absent.
func (s *Store) GetRaw(ctx context.Context, key string) (json.RawMessage, error) {
	var row entry
	err := s.db.WithContext(ctx).First(&row, "k = ?", key).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("kv get %q: %w", key, err)
	}
	return json.RawMessage(row.V), nil
}

// Set upserts the JSON encoding of value at key.
func (s *Store) Set(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("kv encode %q: %w", key, err)
	}
	row := entry{K: key, V: string(raw), UpdatedAt: time.Now().UTC()}
	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "k"}},
			DoUpdates: clause.AssignmentColumns([]string{"v", "updated_at"}),
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("kv set %q: %w", key, err)
	}
	return nil
}

// Delete removes the given keys. Absent keys are ignored.
func (s *Store) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).Delete(&entry{}, "k IN ?", keys).Error; err != nil {
		return fmt.Errorf("kv delete: %w", err)
	}
	return nil
}

// GetByPrefix returns the raw JSON values of every key starting with prefix,
// in no particular order. Callers sort.
func (s *Store) GetByPrefix(ctx context.Context, prefix string) ([]json.RawMessage, error) {
	var rows []entry
	pattern := escapeLike(prefix) + "%"
	err := s.db.WithContext(ctx).
		Where("k LIKE ? ESCAPE '\\'", pattern).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("kv scan %q: %w", prefix, err)
	}
	values := make([]json.RawMessage, 0, len(rows))
	for _, row := range rows {
		values = append(values, json.RawMessage(row.V))
	}
	return values, nil
}

// Update runs a read-modify-write cycle for key as a single transaction.
// On Postgres the row is locked so concurrent updates of the same document
// serialize instead of losing writes. fn receives nil when the key is
// absent; the value fn returns replaces the stored document.
func (s *Store) Update(ctx context.Context, key string, fn func(raw json.RawMessage) (any, error)) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx
		if tx.Dialector.Name() == "postgres" {
			query = query.Clauses(clause.Locking{Strength: "UPDATE"})
		}

		var raw json.RawMessage
		var row entry
		err := query.First(&row, "k = ?", key).Error
		switch {
		case err == nil:
			raw = json.RawMessage(row.V)
		case errors.Is(err, gorm.ErrRecordNotFound):
			raw = nil
		default:
			return fmt.Errorf("kv update read %q: %w", key, err)
		}

		next, err := fn(raw)
		if err != nil {
			return err
		}

		encoded, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("kv update encode %q: %w", key, err)
		}
		updated := entry{K: key, V: string(encoded), UpdatedAt: time.Now().UTC()}
		err = tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "k"}},
			DoUpdates: clause.AssignmentColumns([]string{"v", "updated_at"}),
		}).Create(&updated).Error
		if err != nil {
			return fmt.Errorf("kv update write %q: %w", key, err)
		}
		return nil
	})
}

func escapeLike(s string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(s)
}
