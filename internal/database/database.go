package database

import (
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/rs/zerolog/log"
)

var (
	db     *sql.DB
	readDB *sql.DB
)

// Config carries the connection settings for both pools.
type Config struct {
	Host       string
	Port       string
	User       string
	Password   string
	Name       string
	SSLMode    string
	SchemaPath string
}

func (c Config) connString() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// InitDB opens the primary pool and a second read pool. The read pool
// recycles connections quickly and serves listing queries that tolerate a
// short staleness window; everything transactional stays on the primary.
func InitDB(cfg Config) error {
	var err error
	db, err = sql.Open("postgres", cfg.connString())
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	if err = db.Ping(); err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	db.SetMaxOpenConns(20)

	readDB, err = sql.Open("postgres", cfg.connString())
	if err != nil {
		return fmt.Errorf("opening read pool: %w", err)
	}
	if err = readDB.Ping(); err != nil {
		return fmt.Errorf("connecting read pool: %w", err)
	}
	readDB.SetMaxOpenConns(10)
	readDB.SetConnMaxLifetime(time.Minute)

	log.Info().Str("host", cfg.Host).Str("database", cfg.Name).Msg("Connected to the database")

	if cfg.SchemaPath != "" {
		if err := applySchema(db, cfg.SchemaPath); err != nil {
			return err
		}
	}
	return nil
}

// applySchema reads and executes the db_schema.sql file.
func applySchema(db *sql.DB, schemaPath string) error {
	content, err := os.ReadFile(schemaPath)
	if err != nil {
		return fmt.Errorf("could not read schema file %s: %w", schemaPath, err)
	}
	if _, err = db.Exec(string(content)); err != nil {
		return fmt.Errorf("could not execute schema script: %w", err)
	}
	log.Info().Str("path", schemaPath).Msg("Database schema applied")
	return nil
}

// GetDB returns the primary connection pool.
func GetDB() *sql.DB {
	return db
}

// GetReadDB returns the staleness-tolerant read pool.
func GetReadDB() *sql.DB {
	return readDB
}
