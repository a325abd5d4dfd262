package localcache

import (
	"context"
	"database/sql"
	"fmt"
)

const (
	// Name is the store name; the default file is Name + ".db".
	Name = "PrepQuizPro"
	// SchemaVersion is the version Open migrates to.
	SchemaVersion = 1
)

type Collection string

const (
	Subjects  Collection = "subjects"
	Questions Collection = "questions"
	Attempts  Collection = "attempts"
	Settings  Collection = "settings"
)

// IndexSubjectID is the secondary index on questions and attempts.
const IndexSubjectID = "subjectId"

// collectionSpec describes one collection. Records are stored as JSON; the key
// and every index value are read from top-level JSON fields.
type collectionSpec struct {
	Name          Collection
	KeyPath       string
	AutoIncrement bool
	Indexes       []string
}

type schema []collectionSpec

func (s schema) lookup(name Collection) (collectionSpec, bool) {
	for _, c := range s {
		if c.Name == name {
			return c, true
		}
	}
	return collectionSpec{}, false
}

var defaultSchema = schema{
	{Name: Subjects, KeyPath: "id"},
	{Name: Questions, KeyPath: "id", Indexes: []string{IndexSubjectID}},
	{Name: Attempts, KeyPath: "id", AutoIncrement: true, Indexes: []string{IndexSubjectID}},
	{Name: Settings, KeyPath: "key"},
}

func indexColumn(index string) string {
	return `"ix_` + index + `"`
}

func tableName(c Collection) string {
	return `"` + string(c) + `"`
}

// migrate brings the store up to version. Migrations are additive: missing
// tables, index columns and indices are created and existing rows are kept.
// Index columns added to a populated table are backfilled from the JSON data.
func migrate(ctx context.Context, db *sql.DB, version int, collections schema) (int, error) {
	var current int
	if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&current); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	if current > version {
		return current, fmt.Errorf("store is at version %d, newer than requested %d", current, version)
	}
	if current == version {
		return current, nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return current, err
	}
	defer tx.Rollback()

	for _, c := range collections {
		pk := "pk PRIMARY KEY"
		if c.AutoIncrement {
			pk = "pk INTEGER PRIMARY KEY AUTOINCREMENT"
		}
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(
			"CREATE TABLE IF NOT EXISTS %s (%s, data TEXT NOT NULL)", tableName(c.Name), pk,
		)); err != nil {
			return current, fmt.Errorf("create %s: %w", c.Name, err)
		}

		columns, err := tableColumns(ctx, tx, c.Name)
		if err != nil {
			return current, err
		}

		for _, index := range c.Indexes {
			col := indexColumn(index)
			if !columns["ix_"+index] {
				if _, err := tx.ExecContext(ctx, fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", tableName(c.Name), col)); err != nil {
					return current, fmt.Errorf("add index column %s.%s: %w", c.Name, index, err)
				}
				if _, err := tx.ExecContext(ctx, fmt.Sprintf(
					"UPDATE %s SET %s = json_extract(data, '$.%s')", tableName(c.Name), col, index,
				)); err != nil {
					return current, fmt.Errorf("backfill %s.%s: %w", c.Name, index, err)
				}
			}
			if _, err := tx.ExecContext(ctx, fmt.Sprintf(
				`CREATE INDEX IF NOT EXISTS "%s_%s" ON %s (%s)`, c.Name, index, tableName(c.Name), col,
			)); err != nil {
				return current, fmt.Errorf("create index %s.%s: %w", c.Name, index, err)
			}
		}
	}

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", version)); err != nil {
		return current, fmt.Errorf("write schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return current, err
	}
	return version, nil
}

func tableColumns(ctx context.Context, tx *sql.Tx, c Collection) (map[string]bool, error) {
	rows, err := tx.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", tableName(c)))
	if err != nil {
		return nil, fmt.Errorf("inspect %s: %w", c, err)
	}
	defer rows.Close()

	columns := make(map[string]bool)
	for rows.Next() {
		var (
			cid       int
			name      string
			colType   string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return nil, err
		}
		columns[name] = true
	}
	return columns, rows.Err()
}
