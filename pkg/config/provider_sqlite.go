package config

import (
	"database/sql"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
	_ "modernc.org/sqlite"
)

// SQLiteProvider implements ConfigProvider backed by a SQLite database.
// The configuration document is stored as a single YAML blob so the schema
// survives config-structure changes without migrations.
type SQLiteProvider struct {
	db       *sql.DB
	filename string
	config   *ConfigData
}

const sqliteConfigSchema = `
CREATE TABLE IF NOT EXISTS config (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    document TEXT NOT NULL,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);`

// NewSQLiteProvider opens (or creates) a SQLite configuration database
func NewSQLiteProvider(filename string) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite", filename)
	if err != nil {
		return nil, fmt.Errorf("error opening SQLite config database: %w", err)
	}

	if _, err := db.Exec(sqliteConfigSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("error creating config schema: %w", err)
	}

	return &SQLiteProvider{db: db, filename: filename}, nil
}

// LoadConfig loads the configuration document from the database
func (s *SQLiteProvider) LoadConfig() (*ConfigData, error) {
	var document string
	err := s.db.QueryRow(`SELECT document FROM config WHERE id = 1`).Scan(&document)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("config database %s contains no configuration; use config-convert to populate it", s.filename)
	}
	if err != nil {
		return nil, fmt.Errorf("error reading config document: %w", err)
	}

	config := &ConfigData{}
	if err := yaml.Unmarshal([]byte(document), config); err != nil {
		return nil, fmt.Errorf("error parsing stored config document: %w", err)
	}

	if dsn := os.Getenv("ATMOWATCH_DB_DSN"); dsn != "" {
		config.Storage.TimescaleDB = &TimescaleDBData{ConnectionString: dsn}
	}

	config.ApplyDefaults()
	s.config = config
	return config, nil
}

// SaveConfig writes the configuration document, replacing any existing one
func (s *SQLiteProvider) SaveConfig(config *ConfigData) error {
	document, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("error serializing config: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO config (id, document, updated_at) VALUES (1, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (id) DO UPDATE SET document = excluded.document, updated_at = CURRENT_TIMESTAMP`,
		string(document))
	if err != nil {
		return fmt.Errorf("error storing config document: %w", err)
	}

	s.config = config
	return nil
}

// GetSources returns the configured source adapters
func (s *SQLiteProvider) GetSources() ([]SourceData, error) {
	if s.config == nil {
		if _, err := s.LoadConfig(); err != nil {
			return nil, err
		}
	}
	return s.config.Sources, nil
}

// GetStorageConfig returns the storage configuration section
func (s *SQLiteProvider) GetStorageConfig() (*StorageData, error) {
	if s.config == nil {
		if _, err := s.LoadConfig(); err != nil {
			return nil, err
		}
	}
	return &s.config.Storage, nil
}

// IsReadOnly returns false; SQLite configs support SaveConfig
func (s *SQLiteProvider) IsReadOnly() bool {
	return false
}

// Close closes the underlying database
func (s *SQLiteProvider) Close() error {
	return s.db.Close()
}
