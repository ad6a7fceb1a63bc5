// Package history persists run results to an optional local SQLite store,
// generalizing the teacher's Stage/Apply run-tracking tables (models.go,
// db/sqlite.go) from "pending code transformation" rows to "lint run" rows.
// It is opt-in: cmd/semverlint only touches this package when a caller
// passes a history path.
package history

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

// Run is one complete lint invocation.
type Run struct {
	ID                uint `gorm:"primaryKey"`
	CreatedAt         time.Time
	BaselineLabel     string `gorm:"index"`
	CurrentLabel      string
	Passed            int
	Failed            int
	Warned            int
	Skipped           int
	MaxRequiredUpdate string
	Findings          []Finding `gorm:"foreignKey:RunID"`
}

// Finding is one rendered diagnostic belonging to a Run.
type Finding struct {
	ID            uint `gorm:"primaryKey"`
	RunID         uint `gorm:"index"`
	RuleID        string `gorm:"index"`
	LintLevel     string
	RequiredUpdate string
	Message       string `gorm:"type:text"`
	SpanFile      string
	SpanBeginLine int
}

// Store wraps a GORM handle over the history database.
type Store struct {
	db *gorm.DB
}

// Open connects to (creating if necessary) the SQLite database at path and
// runs its migrations.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("history: creating directory for %s: %w", path, err)
		}
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("history: opening %s: %w", path, err)
	}
	if err := db.AutoMigrate(&Run{}, &Finding{}); err != nil {
		return nil, fmt.Errorf("history: migrating schema: %w", err)
	}
	return &Store{db: db}, nil
}

// RunRecord is the input shape Save accepts, decoupled from render.Report so
// this package never imports the render/runner layers.
type RunRecord struct {
	BaselineLabel     string
	CurrentLabel      string
	Passed            int
	Failed            int
	Warned            int
	Skipped           int
	MaxRequiredUpdate string
	Findings          []FindingRecord
}

// FindingRecord is one diagnostic to persist alongside a RunRecord.
type FindingRecord struct {
	RuleID         string
	LintLevel      string
	RequiredUpdate string
	Message        string
	SpanFile       string
	SpanBeginLine  int
}

// Save inserts one run and its findings in a single transaction.
func (s *Store) Save(rec RunRecord) (uint, error) {
	run := Run{
		BaselineLabel:     rec.BaselineLabel,
		CurrentLabel:      rec.CurrentLabel,
		Passed:            rec.Passed,
		Failed:            rec.Failed,
		Warned:            rec.Warned,
		Skipped:           rec.Skipped,
		MaxRequiredUpdate: rec.MaxRequiredUpdate,
	}
	for _, f := range rec.Findings {
		run.Findings = append(run.Findings, Finding{
			RuleID:         f.RuleID,
			LintLevel:      f.LintLevel,
			RequiredUpdate: f.RequiredUpdate,
			Message:        f.Message,
			SpanFile:       f.SpanFile,
			SpanBeginLine:  f.SpanBeginLine,
		})
	}
	if err := s.db.Create(&run).Error; err != nil {
		return 0, fmt.Errorf("history: saving run: %w", err)
	}
	return run.ID, nil
}

// Recent returns the most recent n runs, newest first, with their findings
// preloaded.
func (s *Store) Recent(n int) ([]Run, error) {
	var runs []Run
	q := s.db.Preload("Findings").Order("created_at desc")
	if n > 0 {
		q = q.Limit(n)
	}
	if err := q.Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("history: listing runs: %w", err)
	}
	return runs, nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
