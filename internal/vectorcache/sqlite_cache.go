package vectorcache

import (
	"fmt"
	"time"

	"crawshaw.io/sqlite"
	"github.com/localrivet/textembed/internal/vector"
)

// SQLiteCache is a Cache implementation backed by a local SQLite database.
type SQLiteCache struct {
	conn   *sqlite.Conn
	dbPath string
}

// NewSQLiteCache creates a new SQLiteCache instance.
func NewSQLiteCache() *SQLiteCache {
	return &SQLiteCache{}
}

// Initialize opens the database at dbPath, creating it if needed.
func (c *SQLiteCache) Initialize(dbPath string) error {
	c.dbPath = dbPath

	conn, err := sqlite.OpenConn(dbPath, sqlite.SQLITE_OPEN_CREATE|sqlite.SQLITE_OPEN_READWRITE)
	if err != nil {
		return fmt.Errorf("failed to open SQLite database: %w", err)
	}
	c.conn = conn

	if err := c.createTable(); err != nil {
		c.conn.Close()
		return fmt.Errorf("failed to create table: %w", err)
	}

	return nil
}

// createTable creates the embedding_cache table if it doesn't exist.
func (c *SQLiteCache) createTable() error {
	createTableSQL := `
	CREATE TABLE IF NOT EXISTS embedding_cache (
		key TEXT PRIMARY KEY,
		embedding BLOB NOT NULL,
		created_at INTEGER NOT NULL
	);`

	stmt, err := c.conn.Prepare(createTableSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare create table statement: %w", err)
	}
	defer stmt.Reset()

	_, err = stmt.Step()
	if err != nil {
		return fmt.Errorf("failed to execute create table statement: %w", err)
	}

	return nil
}

// Get returns the cached embedding for key, and whether it was present.
func (c *SQLiteCache) Get(key string) ([]float32, bool, error) {
	selectSQL := `SELECT embedding FROM embedding_cache WHERE key = ?;`

	stmt, err := c.conn.Prepare(selectSQL)
	if err != nil {
		return nil, false, fmt.Errorf("failed to prepare select statement: %w", err)
	}
	defer stmt.Reset()

	stmt.BindText(1, key)

	hasRow, err := stmt.Step()
	if err != nil {
		return nil, false, fmt.Errorf("failed to query embedding cache: %w", err)
	}
	if !hasRow {
		return nil, false, nil
	}

	blob := make([]byte, stmt.ColumnLen(0))
	stmt.ColumnBytes(0, blob)

	embedding, err := vector.BytesToFloat32Slice(blob)
	if err != nil {
		return nil, false, fmt.Errorf("failed to decode cached embedding: %w", err)
	}
	return embedding, true, nil
}

// Put stores an embedding under key, replacing any previous entry.
func (c *SQLiteCache) Put(key string, embedding []float32, timestamp time.Time) error {
	blob, err := vector.Float32SliceToBytes(embedding)
	if err != nil {
		return fmt.Errorf("failed to encode embedding: %w", err)
	}

	insertSQL := `
	INSERT OR REPLACE INTO embedding_cache (key, embedding, created_at)
	VALUES (?, ?, ?);`

	stmt, err := c.conn.Prepare(insertSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer stmt.Reset()

	// Bind parameters - indices in sqlite are 1-based
	stmt.BindText(1, key)
	stmt.BindBytes(2, blob)
	stmt.BindInt64(3, timestamp.Unix())

	_, err = stmt.Step()
	if err != nil {
		return fmt.Errorf("failed to insert cache entry: %w", err)
	}

	return nil
}

// Close closes the cache and releases any resources.
func (c *SQLiteCache) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
