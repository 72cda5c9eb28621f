package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"valentine/models"
)

// Store is the append-only event log behind the API. Every method borrows a
// connection from the pool for the duration of the call only.
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

type Option func(*Store)

// WithClock replaces the clock used for signed_at and clicked_at.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func NewStore(db *gorm.DB, opts ...Option) *Store {
	s := &Store{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) timestamp() string {
	return s.now().UTC().Format(models.TimestampLayout)
}

// InsertSignature appends a signature and returns its id. The hold duration
// is expected to be validated by the caller.
func (s *Store) InsertSignature(ctx context.Context, holdSeconds float64, note *string) (uint, error) {
	sig := models.Signature{
		SignedAt:    s.timestamp(),
		HoldSeconds: holdSeconds,
		Note:        note,
	}
	if err := s.db.WithContext(ctx).Create(&sig).Error; err != nil {
		return 0, fmt.Errorf("insert signature: %w", err)
	}
	return sig.ID, nil
}

// LastSignature returns the signature with the highest id, or nil when
// nothing has been signed yet.
func (s *Store) LastSignature(ctx context.Context) (*models.Signature, error) {
	var sig models.Signature
	err := s.db.WithContext(ctx).Order("id DESC").Take(&sig).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("last signature: %w", err)
	}
	return &sig, nil
}

func (s *Store) InsertClick(ctx context.Context, actionLabel string, sticker, photoSrc *string) (uint, error) {
	click := models.Click{
		ClickedAt:   s.timestamp(),
		ActionLabel: actionLabel,
		Sticker:     sticker,
		PhotoSrc:    photoSrc,
	}
	if err := s.db.WithContext(ctx).Create(&click).Error; err != nil {
		return 0, fmt.Errorf("insert click: %w", err)
	}
	return click.ID, nil
}

// Tables lists the tables owned by the store.
func Tables() []string {
	return []string{models.Signature{}.TableName(), models.Click{}.TableName()}
}

// Reset deletes every row from both tables and restarts id assignment. It is
// the offline maintenance operation and is never reachable over HTTP.
func (s *Store) Reset(ctx context.Context) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if tx.Dialector.Name() == "postgres" {
			return tx.Exec(`TRUNCATE TABLE love_documents, button_clicks RESTART IDENTITY`).Error
		}

		for _, table := range Tables() {
			if err := tx.Exec(fmt.Sprintf(`DELETE FROM "%s"`, table)).Error; err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		var sequences int64
		if err := tx.Raw(`SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = 'sqlite_sequence'`).Scan(&sequences).Error; err != nil {
			return err
		}
		if sequences > 0 {
			if err := tx.Exec(`DELETE FROM sqlite_sequence WHERE name IN ?`, Tables()).Error; err != nil {
				return fmt.Errorf("reset sequences: %w", err)
			}
		}
		return nil
	})
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
