// Package pg is a lock store backend for deployments that already run
// Postgres for everything else and would rather not operate a second
// stateful service just to persist running-build lock records.
package pg

import (
	"database/sql"
	"errors"
	"os"

	_ "github.com/lib/pq"

	"github.com/hashicorp/go-hclog"

	"github.com/marrowvale/lockarbiter/pkg/lockstore"
)

// running_locks stores one row per build id currently holding a lock
// record; updated_at lets an operator spot a build whose finish
// notification never arrived (spec §4.4, §4.10) without needing a
// separate audit trail.
const schema = `
CREATE TABLE IF NOT EXISTS running_locks (
	build_id   TEXT PRIMARY KEY,
	record     BYTEA NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

type postgresBackend struct {
	db *sql.DB

	l hclog.Logger
}

func init() {
	lockstore.RegisterBackendInit(newFactory)
}

func newFactory() {
	lockstore.RegisterBackend("postgres", newPostgresBackend)
}

func newPostgresBackend(l hclog.Logger) (lockstore.Backend, error) {
	x := new(postgresBackend)
	x.l = l.Named("postgres")

	dsn := os.Getenv("LOCKARBITER_POSTGRES_DSN")
	if dsn == "" {
		l.Error("LOCKARBITER_POSTGRES_DSN must be set")
		return nil, errors.New("required variable unset")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		l.Error("Error opening postgres connection", "error", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		l.Error("Error pinging postgres", "error", err)
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		l.Error("Error creating schema", "error", err)
		return nil, err
	}
	x.db = db

	return x, nil
}

// Get reads back a lock record by its "runninglocks/<buildID>" key,
// stored here under the build id alone rather than the full prefixed
// key - the prefix is lockstore's in-process key scheme, not something
// worth repeating inside a table that already only ever holds these
// records.
func (p *postgresBackend) Get(k []byte) ([]byte, error) {
	var v []byte
	err := p.db.QueryRow("SELECT record FROM running_locks WHERE build_id = $1", buildID(k)).Scan(&v)
	switch {
	case err == sql.ErrNoRows:
		return nil, nil
	case err != nil:
		return nil, err
	default:
		return v, nil
	}
}

func (p *postgresBackend) Put(k, v []byte) error {
	_, err := p.db.Exec(`
		INSERT INTO running_locks (build_id, record, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (build_id) DO UPDATE SET record = EXCLUDED.record, updated_at = now()`,
		buildID(k), v)
	return err
}

func (p *postgresBackend) Del(k []byte) error {
	_, err := p.db.Exec("DELETE FROM running_locks WHERE build_id = $1", buildID(k))
	return err
}

func (p *postgresBackend) Close() error {
	return p.db.Close()
}

// buildID strips lockstore's "runninglocks/" key prefix, since the
// table is scoped to exactly that record kind and storing the prefix
// in every row would only waste space and complicate lookups.
func buildID(k []byte) string {
	const prefix = "runninglocks/"
	s := string(k)
	if len(s) > len(prefix) && s[:len(prefix)] == prefix {
		return s[len(prefix):]
	}
	return s
}
