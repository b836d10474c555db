package postgres

import (
	"context"
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"coinpulse/pkg/errors"
	"coinpulse/pkg/logger"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migration is one versioned schema change read from NNN_name.up.sql / NNN_name.down.sql
type Migration struct {
	Version   int
	Name      string
	UpSQL     string
	DownSQL   string
	AppliedAt *time.Time
}

// Migrator applies the embedded schema migrations and records them in schema_migrations
type Migrator struct {
	client *Client
	fsys   fs.FS
	log    *logger.Logger
}

func NewMigrator(client *Client, log *logger.Logger) *Migrator {
	if log == nil {
		log = logger.Get()
	}
	return &Migrator{client: client, fsys: migrationsFS, log: log.With("component", "migrator")}
}

// Load reads the embedded migrations sorted by version
func (m *Migrator) Load() ([]Migration, error) {
	files, err := fs.Glob(m.fsys, "migrations/*.up.sql")
	if err != nil {
		return nil, errors.Wrap(err, "list migrations")
	}

	out := make([]Migration, 0, len(files))
	for _, file := range files {
		base := strings.TrimSuffix(path.Base(file), ".up.sql")
		versionPart, name, ok := strings.Cut(base, "_")
		if !ok {
			return nil, errors.Wrapf(errors.ErrInvalidInput, "migration file %s has no version prefix", file)
		}
		version, err := strconv.Atoi(versionPart)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrInvalidInput, "migration file %s: %v", file, err)
		}

		up, err := fs.ReadFile(m.fsys, file)
		if err != nil {
			return nil, errors.Wrapf(err, "read %s", file)
		}
		down, err := fs.ReadFile(m.fsys, strings.TrimSuffix(file, ".up.sql")+".down.sql")
		if err != nil {
			return nil, errors.Wrapf(err, "read down migration for %s", file)
		}

		out = append(out, Migration{Version: version, Name: name, UpSQL: string(up), DownSQL: string(down)})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

func (m *Migrator) ensureTable(ctx context.Context) error {
	_, err := m.client.DB().ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INTEGER PRIMARY KEY,
			name       TEXT        NOT NULL,
			checksum   TEXT        NOT NULL,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	return errors.Wrap(err, "create schema_migrations")
}

func (m *Migrator) applied(ctx context.Context) (map[int]time.Time, error) {
	var rows []struct {
		Version   int       `db:"version"`
		AppliedAt time.Time `db:"applied_at"`
	}
	if err := m.client.DB().SelectContext(ctx, &rows, `SELECT version, applied_at FROM schema_migrations ORDER BY version`); err != nil {
		return nil, errors.Wrap(err, "read schema_migrations")
	}

	out := make(map[int]time.Time, len(rows))
	for _, r := range rows {
		out[r.Version] = r.AppliedAt
	}
	return out, nil
}

// Up applies every pending migration, each in its own transaction
func (m *Migrator) Up(ctx context.Context) error {
	if err := m.ensureTable(ctx); err != nil {
		return err
	}

	all, err := m.Load()
	if err != nil {
		return err
	}
	done, err := m.applied(ctx)
	if err != nil {
		return err
	}

	for _, mig := range all {
		if _, ok := done[mig.Version]; ok {
			continue
		}
		if err := m.run(ctx, mig.UpSQL, func(tx *sqlx.Tx) error {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO schema_migrations (version, name, checksum) VALUES ($1, $2, $3)`,
				mig.Version, mig.Name, checksum(mig.UpSQL))
			return err
		}); err != nil {
			return errors.Wrapf(err, "apply migration %03d_%s", mig.Version, mig.Name)
		}
		m.log.Infow("Applied migration", "version", mig.Version, "name", mig.Name)
	}
	return nil
}

// Down rolls back the most recently applied migration
func (m *Migrator) Down(ctx context.Context) error {
	if err := m.ensureTable(ctx); err != nil {
		return err
	}

	all, err := m.Load()
	if err != nil {
		return err
	}
	done, err := m.applied(ctx)
	if err != nil {
		return err
	}

	for i := len(all) - 1; i >= 0; i-- {
		mig := all[i]
		if _, ok := done[mig.Version]; !ok {
			continue
		}
		if err := m.run(ctx, mig.DownSQL, func(tx *sqlx.Tx) error {
			_, err := tx.ExecContext(ctx, `DELETE FROM schema_migrations WHERE version = $1`, mig.Version)
			return err
		}); err != nil {
			return errors.Wrapf(err, "roll back migration %03d_%s", mig.Version, mig.Name)
		}
		m.log.Infow("Rolled back migration", "version", mig.Version, "name", mig.Name)
		return nil
	}

	m.log.Info("No migrations to roll back")
	return nil
}

// Status lists all migrations with their applied time, nil when pending
func (m *Migrator) Status(ctx context.Context) ([]Migration, error) {
	if err := m.ensureTable(ctx); err != nil {
		return nil, err
	}

	all, err := m.Load()
	if err != nil {
		return nil, err
	}
	done, err := m.applied(ctx)
	if err != nil {
		return nil, err
	}

	for i := range all {
		if at, ok := done[all[i].Version]; ok {
			all[i].AppliedAt = &at
		}
	}
	return all, nil
}

func (m *Migrator) run(ctx context.Context, script string, record func(tx *sqlx.Tx) error) error {
	tx, err := m.client.DB().BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, script); err != nil {
		return err
	}
	if err := record(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func checksum(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
