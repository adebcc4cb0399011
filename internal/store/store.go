// Package store persists scored sentiment and emitted signals in sqlite.
package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SentimentRecord is one scored event as written by the pipeline.
type SentimentRecord struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Source      string    `gorm:"index" json:"source"`
	SourceID    string    `gorm:"index" json:"source_id"`
	ContentHash string    `json:"content_hash"`
	Score       float64   `json:"score"`
	ModelUsed   string    `json:"model_used"`
	RawPayload  string    `json:"raw_payload,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// SignalRecord is one emitted trade signal.
type SignalRecord struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Side      string    `gorm:"index" json:"side"`
	Reason    string    `json:"reason"`
	Score     float64   `json:"score"`
	Source    string    `json:"source"`
	SourceID  string    `json:"source_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Stats aggregates what the dashboard overview needs in one call.
type Stats struct {
	TotalScored   int64            `json:"total_scored"`
	AverageScore  float64          `json:"average_score"`
	SignalsBySide map[string]int64 `json:"signals_by_side"`
}

// Store wraps the gorm handle behind the operations the pipeline and API use.
type Store struct {
	db *gorm.DB
}

// Open opens the sqlite database at path, creating and migrating as needed.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if err := db.AutoMigrate(&SentimentRecord{}, &SignalRecord{}); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	return &Store{db: db}, nil
}

// InsertSentiment writes one row and returns its id. Repeated source ids are
// accepted as-is; delivery upstream is at-least-once and readers collapse
// duplicates on ContentHash.
func (s *Store) InsertSentiment(ctx context.Context, rec *SentimentRecord) (uint, error) {
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return 0, fmt.Errorf("insert sentiment: %w", err)
	}
	return rec.ID, nil
}

// InsertSignal writes one emitted signal row.
func (s *Store) InsertSignal(ctx context.Context, rec *SignalRecord) error {
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("insert signal: %w", err)
	}
	return nil
}

// RecentSentiment returns up to limit rows, newest first.
func (s *Store) RecentSentiment(ctx context.Context, limit int) ([]SentimentRecord, error) {
	var rows []SentimentRecord
	err := s.db.WithContext(ctx).
		Order("id desc").
		Limit(clampLimit(limit)).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query sentiment: %w", err)
	}
	return rows, nil
}

// RecentSignals returns up to limit signal rows, newest first.
func (s *Store) RecentSignals(ctx context.Context, limit int) ([]SignalRecord, error) {
	var rows []SignalRecord
	err := s.db.WithContext(ctx).
		Order("id desc").
		Limit(clampLimit(limit)).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query signals: %w", err)
	}
	return rows, nil
}

// AggregateStats computes row counts, the mean sentiment score, and the
// per-side signal breakdown.
func (s *Store) AggregateStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{SignalsBySide: make(map[string]int64)}

	if err := s.db.WithContext(ctx).Model(&SentimentRecord{}).Count(&stats.TotalScored).Error; err != nil {
		return nil, fmt.Errorf("count sentiment: %w", err)
	}
	if stats.TotalScored > 0 {
		err := s.db.WithContext(ctx).Model(&SentimentRecord{}).
			Select("AVG(score)").
			Scan(&stats.AverageScore).Error
		if err != nil {
			return nil, fmt.Errorf("average score: %w", err)
		}
	}

	var bySide []struct {
		Side  string
		Count int64
	}
	err := s.db.WithContext(ctx).Model(&SignalRecord{}).
		Select("side, COUNT(*) as count").
		Group("side").
		Scan(&bySide).Error
	if err != nil {
		return nil, fmt.Errorf("signals by side: %w", err)
	}
	for _, row := range bySide {
		stats.SignalsBySide[row.Side] = row.Count
	}
	return stats, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	db, err := s.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}

// HashContent fingerprints scoring text for duplicate detection by readers.
func HashContent(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 50
	}
	if limit > 500 {
		return 500
	}
	return limit
}
