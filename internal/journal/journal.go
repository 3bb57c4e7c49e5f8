// Package journal keeps a SQLite history of tag and extraction operations.
// It is a record for the user to inspect, not an undo log.
package journal

import (
	"database/sql"
	"embed"
	"os"
	"path/filepath"
	"time"

	"mediatagger/internal/errors"
	"mediatagger/internal/log"
	"mediatagger/pkg/types"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed db/schema.sql
var dbFS embed.FS

// timeLayout has fixed width so timestamps sort as text
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Entry is one recorded operation
type Entry struct {
	ID            string
	Timestamp     time.Time
	OperationType types.OperationType
	Path          string
	Destination   string
	FileCount     int
	FailedCount   int
	Success       bool
}

// Journal is the SQLite-backed operation history
type Journal struct {
	db     *sql.DB
	logger log.Logging
	now    func() time.Time
}

// Open opens or creates the journal database at path. An empty path opens
// an in-memory journal.
func Open(path string, logger log.Logging) (*Journal, error) {
	if logger == nil {
		logger = log.Default()
	}

	connectionString := path
	if connectionString == "" {
		connectionString = ":memory:"
	} else if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.NewDatabaseError("failed to create journal directory", err).
			WithContext("path", path)
	}

	db, err := sql.Open("sqlite3", connectionString)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to open SQLite database", err).
			WithContext("connectionString", connectionString)
	}
	// one connection keeps an in-memory database alive and serializes writes
	db.SetMaxOpenConns(1)

	schemaSQL, err := dbFS.ReadFile("db/schema.sql")
	if err != nil {
		db.Close()
		return nil, errors.NewDatabaseError("failed to read schema SQL", err)
	}
	if _, err := db.Exec(string(schemaSQL)); err != nil {
		db.Close()
		return nil, errors.NewDatabaseError("failed to initialize database schema", err).
			WithOperation("schema")
	}

	return &Journal{db: db, logger: logger, now: time.Now}, nil
}

// Close closes the database connection
func (j *Journal) Close() error {
	return j.db.Close()
}

// Record stores entry, filling in its ID and timestamp when unset.
func (j *Journal) Record(entry *Entry) error {
	if entry == nil {
		return errors.NewKind(errors.InvalidInputData, "journal entry cannot be nil")
	}
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = j.now()
	}

	query := `
		INSERT INTO operations (
			id, timestamp, operation_type, path, destination,
			file_count, failed_count, success
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := j.db.Exec(
		query,
		entry.ID,
		entry.Timestamp.UTC().Format(timeLayout),
		string(entry.OperationType),
		entry.Path,
		entry.Destination,
		entry.FileCount,
		entry.FailedCount,
		entry.Success,
	)
	if err != nil {
		return errors.NewDatabaseError("failed to save journal entry", err).
			WithOperation("insert").
			WithContext("operationType", entry.OperationType).
			WithContext("path", entry.Path)
	}

	j.logger.With(log.F("id", entry.ID), log.F("operation", entry.OperationType), log.F("path", entry.Path)).Debug("Journal entry recorded")
	return nil
}

// Recent returns up to limit entries, newest first. A non-positive limit
// returns every entry.
func (j *Journal) Recent(limit int) ([]*Entry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := j.db.Query(`
		SELECT id, timestamp, operation_type, path, destination,
		       file_count, failed_count, success
		FROM operations
		ORDER BY timestamp DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to query journal", err).WithOperation("select")
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		var (
			e       Entry
			ts, typ string
		)
		if err := rows.Scan(&e.ID, &ts, &typ, &e.Path, &e.Destination, &e.FileCount, &e.FailedCount, &e.Success); err != nil {
			return nil, errors.NewDatabaseError("failed to scan journal entry", err).WithOperation("select")
		}
		e.OperationType = types.OperationType(typ)
		if e.Timestamp, err = time.Parse(timeLayout, ts); err != nil {
			j.logger.With(log.F("id", e.ID), log.F("timestamp", ts)).Warn("Unparseable journal timestamp")
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDatabaseError("failed to read journal", err).WithOperation("select")
	}
	return entries, nil
}
