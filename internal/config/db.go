package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// GetDb opens the configured database, it exits the process when the database is unreachable.
func GetDb(cfg *Config) *gorm.DB {
	db, err := OpenDb(cfg.DB)
	if err != nil {
		logrus.Fatalf("failed to connect database: %v", err)
	}

	return db
}

func OpenDb(cfg DBConfig) (*gorm.DB, error) {
	gormConfig := &gorm.Config{TranslateError: true}

	switch cfg.Type {
	case "postgres":
		dsn := cfg.DSN
		if dsn == "" || strings.HasPrefix(dsn, "file:") {
			dsn = fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
				cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database)
		}
		return gorm.Open(postgres.Open(dsn), gormConfig)
	case "sqlite", "":
		if path := sqlitePath(cfg.DSN); path != "" {
			if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
				return nil, err
			}
		}
		return gorm.Open(sqlite.Open(cfg.DSN), gormConfig)
	}

	return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
}

func sqlitePath(dsn string) string {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.Index(path, "?"); i >= 0 {
		path = path[:i]
	}
	if path == ":memory:" {
		return ""
	}
	return path
}
