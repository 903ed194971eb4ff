package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/emiliopalmerini/agentlab/migrations"
)

// Migration represents a single database migration with up and down SQL.
type Migration struct {
	Version int
	Name    string
	UpSQL   string
	DownSQL string
}

// Runner applies migrations to a database, reporting progress to out.
type Runner struct {
	db  *sql.DB
	out io.Writer
}

func NewRunner(db *sql.DB, out io.Writer) *Runner {
	if out == nil {
		out = io.Discard
	}
	return &Runner{db: db, out: out}
}

// EnsureMigrationsTable creates the schema_migrations table if it doesn't exist.
func (r *Runner) EnsureMigrationsTable(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			dirty INTEGER NOT NULL DEFAULT 0
		)
	`)
	return err
}

// CurrentVersion returns the current migration version and dirty state.
func (r *Runner) CurrentVersion(ctx context.Context) (int, bool, error) {
	var version, dirty int

	err := r.db.QueryRowContext(ctx, `SELECT version, dirty FROM schema_migrations ORDER BY version DESC LIMIT 1`).Scan(&version, &dirty)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}

	return version, dirty == 1, nil
}

func (r *Runner) setVersion(ctx context.Context, version int, dirty bool) error {
	dirtyInt := 0
	if dirty {
		dirtyInt = 1
	}

	if _, err := r.db.ExecContext(ctx, `DELETE FROM schema_migrations`); err != nil {
		return err
	}
	if version == 0 {
		return nil
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO schema_migrations (version, dirty) VALUES (?, ?)`, version, dirtyInt)
	return err
}

var upPattern = regexp.MustCompile(`^(\d+)_(.+)\.up\.sql$`)

// Load reads all embedded migration files and returns them sorted by version.
func Load() ([]Migration, error) {
	return loadFrom(migrations.FS)
}

func loadFrom(fsys fs.FS) ([]Migration, error) {
	var result []Migration

	err := fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		matches := upPattern.FindStringSubmatch(filepath.Base(path))
		if matches == nil {
			return nil
		}

		version, _ := strconv.Atoi(matches[1])
		name := matches[2]

		upSQL, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		downSQL, err := fs.ReadFile(fsys, fmt.Sprintf("%s_%s.down.sql", matches[1], name))
		if err != nil {
			downSQL = nil
		}

		result = append(result, Migration{
			Version: version,
			Name:    name,
			UpSQL:   string(upSQL),
			DownSQL: string(downSQL),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Version < result[j].Version
	})
	return result, nil
}

// Apply executes a single migration (up or down). The version is marked
// dirty while statements run so a failed migration is detectable.
func (r *Runner) Apply(ctx context.Context, m Migration, up bool) error {
	direction := "up"
	sqlContent := m.UpSQL
	targetVersion := m.Version
	if !up {
		direction = "down"
		sqlContent = m.DownSQL
		targetVersion = m.Version - 1
	}

	fmt.Fprintf(r.out, "  %s %03d_%s...\n", direction, m.Version, m.Name)

	if err := r.setVersion(ctx, m.Version, true); err != nil {
		return fmt.Errorf("failed to set dirty flag: %w", err)
	}

	for _, stmt := range SplitSQL(sqlContent) {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute migration %d %s: %w\nSQL: %s", m.Version, direction, err, stmt)
		}
	}

	if err := r.setVersion(ctx, targetVersion, false); err != nil {
		return fmt.Errorf("failed to clear dirty flag: %w", err)
	}
	return nil
}

// SplitSQL splits a script into statements on semicolons, keeping
// BEGIN ... END trigger bodies together. Empty statements are dropped.
func SplitSQL(script string) []string {
	var (
		statements []string
		current    strings.Builder
		depth      int
	)

	flush := func() {
		stmt := strings.TrimSpace(current.String())
		if stmt != "" {
			statements = append(statements, stmt)
		}
		current.Reset()
	}

	for _, line := range strings.SplitAfter(script, "\n") {
		trimmed := strings.ToUpper(strings.TrimSpace(line))
		if trimmed == "BEGIN" || strings.HasSuffix(trimmed, " BEGIN") {
			depth++
		}

		for _, part := range strings.SplitAfter(line, ";") {
			current.WriteString(part)
			if !strings.HasSuffix(part, ";") {
				continue
			}
			if depth > 0 {
				if strings.HasPrefix(strings.ToUpper(strings.TrimSpace(part)), "END") {
					depth--
					flush()
				}
				continue
			}
			flush()
		}
	}
	flush()

	for i, stmt := range statements {
		statements[i] = strings.TrimSuffix(stmt, ";")
	}
	return statements
}

// Up runs all pending up migrations.
func (r *Runner) Up(ctx context.Context, all []Migration, current int) error {
	count := 0
	for _, m := range all {
		if m.Version <= current {
			continue
		}
		if err := r.Apply(ctx, m, true); err != nil {
			return err
		}
		count++
	}

	if count == 0 {
		fmt.Fprintln(r.out, "No migrations to run")
		return nil
	}
	newVersion, _, _ := r.CurrentVersion(ctx)
	fmt.Fprintf(r.out, "Migrated to version %d (%d migrations applied)\n", newVersion, count)
	return nil
}

// To migrates up or down until target is the current version.
func (r *Runner) To(ctx context.Context, all []Migration, current, target int) error {
	switch {
	case target > current:
		for _, m := range all {
			if m.Version <= current {
				continue
			}
			if m.Version > target {
				break
			}
			if err := r.Apply(ctx, m, true); err != nil {
				return err
			}
		}
	case target < current:
		for i := len(all) - 1; i >= 0; i-- {
			m := all[i]
			if m.Version > current {
				continue
			}
			if m.Version <= target {
				break
			}
			if m.DownSQL == "" {
				return fmt.Errorf("no down migration for version %d", m.Version)
			}
			if err := r.Apply(ctx, m, false); err != nil {
				return err
			}
		}
	default:
		fmt.Fprintln(r.out, "Already at target version")
		return nil
	}

	fmt.Fprintf(r.out, "Migrated to version %d\n", target)
	return nil
}

// RunAll runs all pending migrations on the provided database without output.
func RunAll(ctx context.Context, db *sql.DB) error {
	r := NewRunner(db, nil)

	if err := r.EnsureMigrationsTable(ctx); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	current, dirty, err := r.CurrentVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}
	if dirty {
		return fmt.Errorf("database is in dirty state at version %d", current)
	}

	all, err := Load()
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	for _, m := range all {
		if m.Version <= current {
			continue
		}
		if err := r.Apply(ctx, m, true); err != nil {
			return err
		}
	}
	return nil
}
