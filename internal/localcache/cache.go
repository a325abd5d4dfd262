// Package localcache is the client's persistent mirror of server data. It keeps
// subjects, questions, attempts and settings in a local sqlite file so quizzes
// stay playable without a network.
package localcache

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/SAP-F-2025/quiz-service/internal/utils"
	_ "modernc.org/sqlite"
)

var (
	// ErrCacheUnavailable wraps every failure to open or migrate the store.
	// Callers treat it as an empty cache and continue remote-only.
	ErrCacheUnavailable  = errors.New("local cache unavailable")
	ErrUnknownCollection = errors.New("unknown collection")
	ErrUnknownIndex      = errors.New("unknown index")
	ErrMissingKey        = errors.New("record has no key")
	ErrClosed            = errors.New("local cache closed")
)

type Cache struct {
	db     *sql.DB
	schema schema
	logger utils.Logger

	mu     sync.RWMutex
	closed bool
}

// Open opens or creates the store at path and migrates it to SchemaVersion.
func Open(ctx context.Context, path string, logger utils.Logger) (*Cache, error) {
	return open(ctx, path, SchemaVersion, defaultSchema, logger)
}

func open(ctx context.Context, path string, version int, collections schema, logger utils.Logger) (*Cache, error) {
	logger = logger.With("component", "localcache")

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCacheUnavailable, err)
		}
	}

	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCacheUnavailable, err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %w", ErrCacheUnavailable, err)
	}

	from, err := migrate(ctx, db, version, collections)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %w", ErrCacheUnavailable, err)
	}
	if from != version {
		logger.Info("Local cache migrated", "path", path, "from_version", from, "to_version", version)
	}

	return &Cache{db: db, schema: collections, logger: logger}, nil
}

func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.db.Close()
}

func (c *Cache) collection(name Collection) (collectionSpec, error) {
	c.mu.RLock()
	closed := c.closed
	c.mu.RUnlock()
	if closed {
		return collectionSpec{}, ErrClosed
	}

	def, ok := c.schema.lookup(name)
	if !ok {
		return collectionSpec{}, fmt.Errorf("%w: %s", ErrUnknownCollection, name)
	}
	return def, nil
}

// ===== WRITES =====

// Put upserts one record by key. Records in an auto-increment collection
// without a key get a new one.
func (c *Cache) Put(ctx context.Context, collection Collection, record any) error {
	_, err := c.put(ctx, collection, []any{record})
	return err
}

// PutMany upserts every element of records, which must marshal to a JSON
// array, in one transaction. Either all records are written or none.
func (c *Cache) PutMany(ctx context.Context, collection Collection, records any) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode records: %w", err)
	}
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("records must be a list: %w", err)
	}

	batch := make([]any, len(items))
	for i, item := range items {
		batch[i] = item
	}
	_, err = c.put(ctx, collection, batch)
	return err
}

// Add inserts a record into an auto-increment collection and returns its new key.
// The key is also written into the stored record.
func (c *Cache) Add(ctx context.Context, collection Collection, record any) (int64, error) {
	def, err := c.collection(collection)
	if err != nil {
		return 0, err
	}
	if !def.AutoIncrement {
		return 0, fmt.Errorf("%s does not assign keys", collection)
	}

	data, fields, err := encodeRecord(record)
	if err != nil {
		return 0, err
	}
	delete(fields, def.KeyPath)
	if data, err = json.Marshal(fields); err != nil {
		return 0, err
	}

	keys, err := c.put(ctx, collection, []any{json.RawMessage(data)})
	if err != nil {
		return 0, err
	}
	return keys[0], nil
}

func (c *Cache) put(ctx context.Context, collection Collection, records []any) ([]int64, error) {
	def, err := c.collection(collection)
	if err != nil {
		return nil, err
	}

	columns := []string{"pk", "data"}
	for _, index := range def.Indexes {
		columns = append(columns, indexColumn(index))
	}
	stmt := fmt.Sprintf("INSERT OR REPLACE INTO %s (%s) VALUES (%s)",
		tableName(collection), strings.Join(columns, ", "), strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", "))

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	keys := make([]int64, 0, len(records))
	for _, record := range records {
		data, fields, err := encodeRecord(record)
		if err != nil {
			return nil, err
		}

		key, err := fieldValue(fields, def.KeyPath)
		if err != nil {
			return nil, err
		}
		generate := def.AutoIncrement && (key == nil || key == int64(0))
		if key == nil && !generate {
			return nil, fmt.Errorf("%w: %s needs %q", ErrMissingKey, collection, def.KeyPath)
		}
		if generate {
			key = nil
		}

		args := []any{key, string(data)}
		for _, index := range def.Indexes {
			v, err := fieldValue(fields, index)
			if err != nil {
				return nil, err
			}
			args = append(args, v)
		}

		res, err := tx.ExecContext(ctx, stmt, args...)
		if err != nil {
			return nil, fmt.Errorf("write %s: %w", collection, err)
		}

		var assigned int64
		if generate {
			if assigned, err = res.LastInsertId(); err != nil {
				return nil, err
			}
			if _, err := tx.ExecContext(ctx, fmt.Sprintf(
				"UPDATE %s SET data = json_set(data, '$.%s', pk) WHERE pk = ?", tableName(collection), def.KeyPath,
			), assigned); err != nil {
				return nil, fmt.Errorf("write %s key: %w", collection, err)
			}
		} else if n, ok := key.(int64); ok {
			assigned = n
		}
		keys = append(keys, assigned)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return keys, nil
}

// ===== READS =====

// GetAll decodes every record of the collection into dest, a pointer to a slice.
// Order is unspecified.
func (c *Cache) GetAll(ctx context.Context, collection Collection, dest any) error {
	if _, err := c.collection(collection); err != nil {
		return err
	}
	return c.queryInto(ctx, dest, fmt.Sprintf("SELECT data FROM %s", tableName(collection)))
}

// GetByIndex decodes every record whose index field equals value into dest.
func (c *Cache) GetByIndex(ctx context.Context, collection Collection, index string, value any, dest any) error {
	def, err := c.collection(collection)
	if err != nil {
		return err
	}
	if !contains(def.Indexes, index) {
		return fmt.Errorf("%w: %s.%s", ErrUnknownIndex, collection, index)
	}

	v, err := normalize(value)
	if err != nil {
		return err
	}
	return c.queryInto(ctx, dest, fmt.Sprintf("SELECT data FROM %s WHERE %s = ?", tableName(collection), indexColumn(index)), v)
}

// Get decodes the record stored under key into dest. It reports false when
// there is no such record.
func (c *Cache) Get(ctx context.Context, collection Collection, key any, dest any) (bool, error) {
	if _, err := c.collection(collection); err != nil {
		return false, err
	}

	k, err := normalize(key)
	if err != nil {
		return false, err
	}

	var data string
	err = c.db.QueryRowContext(ctx, fmt.Sprintf("SELECT data FROM %s WHERE pk = ?", tableName(collection)), k).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", collection, err)
	}
	return true, json.Unmarshal([]byte(data), dest)
}

func (c *Cache) queryInto(ctx context.Context, dest any, query string, args ...any) error {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	var buf bytes.Buffer
	buf.WriteByte('[')
	first := true
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return err
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		buf.WriteString(data)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	buf.WriteByte(']')

	return json.Unmarshal(buf.Bytes(), dest)
}

// ===== SETTINGS =====

type setting struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

func (c *Cache) PutSetting(ctx context.Context, name string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode setting %s: %w", name, err)
	}
	return c.Put(ctx, Settings, setting{Key: name, Value: raw})
}

// GetSetting decodes the named setting into dest and reports whether it exists.
func (c *Cache) GetSetting(ctx context.Context, name string, dest any) (bool, error) {
	var s setting
	ok, err := c.Get(ctx, Settings, name, &s)
	if err != nil || !ok {
		return ok, err
	}
	return true, json.Unmarshal(s.Value, dest)
}

// ===== HELPERS =====

func encodeRecord(record any) ([]byte, map[string]json.RawMessage, error) {
	data, ok := record.(json.RawMessage)
	if !ok {
		var err error
		if data, err = json.Marshal(record); err != nil {
			return nil, nil, fmt.Errorf("encode record: %w", err)
		}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, nil, fmt.Errorf("record must be a JSON object: %w", err)
	}
	return data, fields, nil
}

// fieldValue returns a top-level field as a sqlite value, or nil when absent.
func fieldValue(fields map[string]json.RawMessage, name string) (any, error) {
	raw, ok := fields[name]
	if !ok {
		return nil, nil
	}
	return scalar(raw)
}

func normalize(value any) (any, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return scalar(raw)
}

// scalar converts a JSON scalar so equal keys compare equal in sqlite whether
// they came from a record or from a lookup argument.
func scalar(raw json.RawMessage) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}

	switch t := v.(type) {
	case nil:
		return nil, nil
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n, nil
		}
		return t.Float64()
	case string:
		return t, nil
	case bool:
		if t {
			return int64(1), nil
		}
		return int64(0), nil
	default:
		return nil, fmt.Errorf("key and index values must be scalars, got %T", v)
	}
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
