package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormLogger "gorm.io/gorm/logger"

	"studyspots/internal/model"
)

type locationRow struct {
	ID        int64  `gorm:"primaryKey;autoIncrement:false"`
	Name      string `gorm:"not null"`
	Doc       string `gorm:"type:text;not null"`
	CreatedAt time.Time
}

func (locationRow) TableName() string { return "locations" }

type reviewRow struct {
	ID           string `gorm:"primaryKey"`
	LocationID   *int64 `gorm:"index"`
	LocationName string `gorm:"not null"`
	Doc          string `gorm:"type:text;not null"`
	CreatedAt    time.Time
}

func (reviewRow) TableName() string { return "reviews" }

// SQLite is the single file store used for local development.
type SQLite struct {
	db *gorm.DB
}

func newGormLogger() gormLogger.Interface {
	return gormLogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}

// OpenSQLite opens (or creates) the database at path and migrates it.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: newGormLogger()})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if err := db.AutoMigrate(&locationRow{}, &reviewRow{}); err != nil {
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) ListLocations(ctx context.Context) ([]model.Location, error) {
	var rows []locationRow
	if err := s.db.WithContext(ctx).Order("created_at, id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	out := make([]model.Location, 0, len(rows))
	for _, row := range rows {
		var loc model.Location
		if err := json.Unmarshal([]byte(row.Doc), &loc); err != nil {
			return nil, fmt.Errorf("decode location %d: %w", row.ID, err)
		}
		out = append(out, loc)
	}
	return out, nil
}

func (s *SQLite) InsertLocation(ctx context.Context, loc model.Location) (string, error) {
	assignID(&loc)
	doc, err := json.Marshal(loc)
	if err != nil {
		return "", fmt.Errorf("encode location: %w", err)
	}
	row := locationRow{ID: loc.ID, Name: loc.Name, Doc: string(doc)}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return "", fmt.Errorf("insert location: %w", err)
	}
	return strconv.FormatInt(row.ID, 10), nil
}

func (s *SQLite) ListReviews(ctx context.Context) ([]model.Review, error) {
	var rows []reviewRow
	if err := s.db.WithContext(ctx).Order("created_at, id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	out := make([]model.Review, 0, len(rows))
	for _, row := range rows {
		var r model.Review
		if err := json.Unmarshal([]byte(row.Doc), &r); err != nil {
			return nil, fmt.Errorf("decode review %s: %w", row.ID, err)
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *SQLite) InsertReviews(ctx context.Context, reviews []model.Review) (int, error) {
	if len(reviews) == 0 {
		return 0, nil
	}
	rows := make([]reviewRow, 0, len(reviews))
	for _, r := range reviews {
		if r.ID == "" {
			r.ID = newReviewID()
		}
		doc, err := json.Marshal(r)
		if err != nil {
			return 0, fmt.Errorf("encode review: %w", err)
		}
		row := reviewRow{ID: r.ID, LocationName: r.LocationName, Doc: string(doc)}
		if r.LocationID != 0 {
			id := r.LocationID
			row.LocationID = &id
		}
		rows = append(rows, row)
	}

	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rows)
	if res.Error != nil {
		return 0, fmt.Errorf("insert reviews: %w", res.Error)
	}
	return int(res.RowsAffected), nil
}

func (s *SQLite) Close() {
	if sqlDB, err := s.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
