// Package sqlstore provides an export.Store backed by a SQL database. SQLite
// and PostgreSQL are supported.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dekarrin/sentgen/internal/export"
	"github.com/dekarrin/sentgen/internal/sgerr"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	// SQLiteFilename is the name of the database file created in the
	// storage directory given to OpenSQLite.
	SQLiteFilename = "sentences.db"
)

// Store is an export.Store that keeps records in the sentences table.
type Store struct {
	db *sqlx.DB
}

// OpenSQLite opens (creating if needed) the SQLite database in storageDir.
func OpenSQLite(storageDir string) (*Store, error) {
	if err := os.MkdirAll(storageDir, 0770); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}
	return Open(DriverSQLite, filepath.Join(storageDir, SQLiteFilename))
}

// OpenPostgres connects to the PostgreSQL database at the given DSN.
func OpenPostgres(dsn string) (*Store, error) {
	return Open(DriverPostgres, dsn)
}

// Open opens a store using the given database driver and data source.
func Open(driver, dsn string) (*Store, error) {
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, wrapDBError(err)
	}

	st := &Store{db: db}
	if err := st.init(); err != nil {
		db.Close()
		return nil, err
	}
	return st, nil
}

func (st *Store) init() error {
	_, err := st.db.Exec(`CREATE TABLE IF NOT EXISTS sentences (
		id TEXT NOT NULL PRIMARY KEY,
		grammar TEXT NOT NULL,
		text TEXT NOT NULL,
		words INTEGER NOT NULL,
		seed BIGINT NOT NULL,
		repairs INTEGER NOT NULL,
		created BIGINT NOT NULL
	);`)
	if err != nil {
		return wrapDBError(err)
	}

	return nil
}

type recordRow struct {
	ID      string `db:"id"`
	Grammar string `db:"grammar"`
	Text    string `db:"text"`
	Words   int    `db:"words"`
	Seed    int64  `db:"seed"`
	Repairs int    `db:"repairs"`
	Created int64  `db:"created"`
}

func (st *Store) Write(ctx context.Context, r export.Record) (export.Record, error) {
	r, err := export.Prepare(r)
	if err != nil {
		return export.Record{}, err
	}

	row := recordToRow(r)
	_, err = st.db.NamedExecContext(ctx, `INSERT INTO sentences (id, grammar, text, words, seed, repairs, created) VALUES (:id, :grammar, :text, :words, :seed, :repairs, :created)`, row)
	if err != nil {
		return export.Record{}, wrapDBError(err)
	}

	return st.GetByID(ctx, r.ID)
}

func (st *Store) GetByID(ctx context.Context, id uuid.UUID) (export.Record, error) {
	var row recordRow

	err := st.db.GetContext(ctx, &row, st.db.Rebind(`SELECT id, grammar, text, words, seed, repairs, created FROM sentences WHERE id = ?;`), id.String())
	if err != nil {
		return export.Record{}, wrapDBError(err)
	}

	return rowToRecord(row)
}

func (st *Store) GetAll(ctx context.Context) ([]export.Record, error) {
	var rows []recordRow

	err := st.db.SelectContext(ctx, &rows, `SELECT id, grammar, text, words, seed, repairs, created FROM sentences ORDER BY created, id;`)
	if err != nil {
		return nil, wrapDBError(err)
	}

	return rowsToRecords(rows)
}

func (st *Store) GetAllByGrammar(ctx context.Context, grammar string) ([]export.Record, error) {
	var rows []recordRow

	err := st.db.SelectContext(ctx, &rows, st.db.Rebind(`SELECT id, grammar, text, words, seed, repairs, created FROM sentences WHERE LOWER(grammar) = LOWER(?) ORDER BY created, id;`), grammar)
	if err != nil {
		return nil, wrapDBError(err)
	}

	return rowsToRecords(rows)
}

func (st *Store) Close() error {
	return st.db.Close()
}

func recordToRow(r export.Record) recordRow {
	return recordRow{
		ID:      r.ID.String(),
		Grammar: r.Grammar,
		Text:    r.Text,
		Words:   r.Words,
		Seed:    r.Seed,
		Repairs: r.Repairs,
		Created: r.Created.Unix(),
	}
}

func rowToRecord(row recordRow) (export.Record, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return export.Record{}, sgerr.WrapStore(fmt.Sprintf("stored UUID %q is invalid", row.ID), err)
	}

	return export.Record{
		ID:      id,
		Grammar: row.Grammar,
		Text:    row.Text,
		Words:   row.Words,
		Seed:    row.Seed,
		Repairs: row.Repairs,
		Created: time.Unix(row.Created, 0),
	}, nil
}

func rowsToRecords(rows []recordRow) ([]export.Record, error) {
	all := make([]export.Record, 0, len(rows))
	for _, row := range rows {
		r, err := rowToRecord(row)
		if err != nil {
			return all, err
		}
		all = append(all, r)
	}
	return all, nil
}

func wrapDBError(err error) error {
	sqliteErr := &sqlite.Error{}
	pqErr := &pq.Error{}
	if errors.As(err, &sqliteErr) {
		// low byte is the primary result code; 19 is SQLITE_CONSTRAINT.
		primary := sqliteErr.Code() & 0xff
		if primary == 19 {
			return sgerr.ErrAlreadyExists
		}
		return sgerr.WrapStore(sqlite.ErrorCodeString[primary], err)
	} else if errors.As(err, &pqErr) {
		if pqErr.Code.Name() == "unique_violation" {
			return sgerr.ErrAlreadyExists
		}
		return sgerr.WrapStore(pqErr.Code.Name(), err)
	} else if errors.Is(err, sql.ErrNoRows) {
		return sgerr.ErrNotFound
	}
	return sgerr.WrapStore("database error", err)
}
