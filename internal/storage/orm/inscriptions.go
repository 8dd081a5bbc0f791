// Package orm holds the records that are declared as ORM models rather than
// hand-written SQL.
package orm

import (
	"context"
	"database/sql"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"kemdeholo/internal/domain"
)

type Store struct{ db *gorm.DB }

// Open wraps an existing connection pool so the ORM and the SQL repo share it.
func Open(conn *sql.DB, l zerolog.Logger, verbose bool) (*Store, error) {
	level := logger.Warn
	if verbose {
		level = logger.Info
	}
	gl := logger.New(
		zlWriter{l: l},
		logger.Config{SlowThreshold: time.Second, LogLevel: level, IgnoreRecordNotFoundError: true},
	)
	db, err := gorm.Open(mysql.New(mysql.Config{Conn: conn}), &gorm.Config{Logger: gl})
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) AutoMigrate() error {
	return s.db.AutoMigrate(&domain.CourseInscription{})
}

func (s *Store) CreateInscription(ctx context.Context, in *domain.CourseInscription) error {
	return s.db.WithContext(ctx).Create(in).Error
}

// zlWriter routes gorm's printf-style logger into zerolog.
type zlWriter struct{ l zerolog.Logger }

func (w zlWriter) Printf(format string, args ...any) {
	w.l.Info().Str("component", "gorm").Msgf(format, args...)
}
