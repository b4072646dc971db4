// Package store persists completed inventory runs to Postgres. Persistence
// is optional; a run without a configured DSN never touches this package.
package store

import (
	"encoding/json"
	"fmt"
	"time"

	logger "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/rios0rios0/repoatlas/application"
)

// ScanRun is one persisted inventory run.
type ScanRun struct {
	ID           uint   `gorm:"primaryKey"`
	Group        string `gorm:"column:group_name;index"`
	Provider     string `gorm:"size:32"`
	Attempted    int
	Succeeded    int
	Failed       int
	StartedAt    time.Time
	FinishedAt   time.Time
	ReportJSON   []byte              `gorm:"type:jsonb"`
	Repositories []ScanRunRepository `gorm:"constraint:OnDelete:CASCADE"`
}

// ScanRunRepository is one repository row inside a persisted run.
type ScanRunRepository struct {
	ID            uint   `gorm:"primaryKey"`
	ScanRunID     uint   `gorm:"index"`
	Path          string `gorm:"index"`
	Name          string
	DefaultRef    string
	AnalyzedFiles int
}

// PostgresStore writes scan runs through gorm.
type PostgresStore struct {
	db *gorm.DB
}

// NewPostgresStore connects and migrates the run tables.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	if migrateErr := db.AutoMigrate(&ScanRun{}, &ScanRunRepository{}); migrateErr != nil {
		return nil, fmt.Errorf("failed to migrate scan run tables: %w", migrateErr)
	}

	return &PostgresStore{db: db}, nil
}

// RunMeta carries the run-level fields not derivable from the report.
type RunMeta struct {
	Group      string
	Provider   string
	Attempted  int
	Failed     int
	StartedAt  time.Time
	FinishedAt time.Time
}

// SaveRun persists the report and its per-repository rows in one transaction.
func (s *PostgresStore) SaveRun(rep *application.Report, meta RunMeta) error {
	reportJSON, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("failed to encode report for storage: %w", err)
	}

	run := ScanRun{
		Group:      meta.Group,
		Provider:   meta.Provider,
		Attempted:  meta.Attempted,
		Succeeded:  len(rep.Repositories),
		Failed:     meta.Failed,
		StartedAt:  meta.StartedAt,
		FinishedAt: meta.FinishedAt,
		ReportJSON: reportJSON,
	}
	for _, view := range rep.Repositories {
		run.Repositories = append(run.Repositories, ScanRunRepository{
			Path:          view.Path,
			Name:          view.Name,
			DefaultRef:    view.DefaultRef,
			AnalyzedFiles: view.AnalyzedFiles,
		})
	}

	if createErr := s.db.Create(&run).Error; createErr != nil {
		return fmt.Errorf("failed to persist scan run: %w", createErr)
	}

	logger.Infof("Persisted scan run %d (%d repositories)", run.ID, len(run.Repositories))
	return nil
}
