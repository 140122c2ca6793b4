// Package store persists the last-fetched feed to a local SQLite database
// so the feed can render before the first fetch of a session resolves.
// It is a collaborator of the feed store, not part of it: the in-memory
// list stays canonical.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"tangle/internal/models"
)

// cachedPost is one feed entry serialized for the snapshot table.
type cachedPost struct {
	PostID   string `gorm:"primaryKey"`
	Position int    `gorm:"index"`
	Payload  []byte
	SavedAt  time.Time
}

func (cachedPost) TableName() string { return "feed_snapshot" }

// FeedStore is a SQLite-backed snapshot of the post list.
type FeedStore struct {
	db *gorm.DB
}

// Open creates or opens the snapshot database at path. ":memory:" is
// accepted for tests.
func Open(path string) (*FeedStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open snapshot db: %w", err)
	}
	if err := db.AutoMigrate(&cachedPost{}); err != nil {
		return nil, fmt.Errorf("migrate snapshot db: %w", err)
	}
	return &FeedStore{db: db}, nil
}

// SavePosts replaces the snapshot with the given list, preserving order.
func (s *FeedStore) SavePosts(ctx context.Context, posts []models.Post) error {
	rows := make([]cachedPost, 0, len(posts))
	now := time.Now()
	for i, p := range posts {
		payload, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("marshal post %s: %w", p.ID, err)
		}
		rows = append(rows, cachedPost{
			PostID:   p.ID,
			Position: i,
			Payload:  payload,
			SavedAt:  now,
		})
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&cachedPost{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
}

// LoadPosts returns the snapshot in its saved order. An empty snapshot
// yields an empty list, not an error.
func (s *FeedStore) LoadPosts(ctx context.Context) ([]models.Post, error) {
	var rows []cachedPost
	if err := s.db.WithContext(ctx).Order("position asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	posts := make([]models.Post, 0, len(rows))
	for _, row := range rows {
		var p models.Post
		if err := json.Unmarshal(row.Payload, &p); err != nil {
			// A corrupt row invalidates the whole snapshot; the next
			// successful fetch rewrites it.
			return nil, fmt.Errorf("unmarshal cached post %s: %w", row.PostID, err)
		}
		posts = append(posts, p)
	}
	return posts, nil
}
