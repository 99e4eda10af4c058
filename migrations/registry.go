// Package migrations locates the delivery log SQL for each supported dialect.
package migrations

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"strings"

	issues "github.com/markawm/acme-github-issues"
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"

	// SourceLabel names this module's migrations when they share a runner with others.
	SourceLabel = "acme-github-issues"

	treeRoot  = "data/sql/migrations"
	sqliteDir = "sqlite"
)

// Source is one dialect's migration directory. Postgres files sit at the tree root,
// sqlite files in its sqlite/ subdirectory.
type Source struct {
	Dialect string
	Dir     string
	FS      fs.FS
}

type ApplyFunc func(ctx context.Context, src Source) error

type applyOptions struct {
	dialects []string
	tree     fs.FS
}

type Option func(*applyOptions)

// ForDialects limits Apply to the given dialects. Blank names are ignored.
func ForDialects(dialects ...string) Option {
	return func(o *applyOptions) {
		var picked []string
		for _, dialect := range dialects {
			dialect = strings.ToLower(strings.TrimSpace(dialect))
			if dialect != "" && !contains(picked, dialect) {
				picked = append(picked, dialect)
			}
		}
		if len(picked) > 0 {
			o.dialects = picked
		}
	}
}

// FromFS reads migrations from tree instead of the embedded copy.
func FromFS(tree fs.FS) Option {
	return func(o *applyOptions) {
		if tree != nil {
			o.tree = tree
		}
	}
}

// Sources resolves both dialect directories in tree, the embedded tree when nil.
func Sources(tree fs.FS) ([]Source, error) {
	if tree == nil {
		tree = issues.GetMigrationsFS()
	}
	base, dir, err := locate(tree)
	if err != nil {
		return nil, err
	}
	sqliteFS, err := fs.Sub(base, sqliteDir)
	if err != nil {
		return nil, fmt.Errorf("migrations: open sqlite directory: %w", err)
	}

	sources := []Source{
		{Dialect: DialectPostgres, Dir: dir, FS: base},
		{Dialect: DialectSQLite, Dir: path.Join(dir, sqliteDir), FS: sqliteFS},
	}
	for _, src := range sources {
		ups, err := fs.Glob(src.FS, "*.up.sql")
		if err != nil {
			return nil, fmt.Errorf("migrations: list %s: %w", src.Dir, err)
		}
		if len(ups) == 0 {
			return nil, fmt.Errorf("migrations: no %s up migrations in %s", src.Dialect, src.Dir)
		}
	}
	return sources, nil
}

// Apply calls fn for every selected dialect, in postgres then sqlite order.
func Apply(ctx context.Context, fn ApplyFunc, opts ...Option) ([]Source, error) {
	if fn == nil {
		return nil, fmt.Errorf("migrations: apply function is required")
	}
	o := applyOptions{dialects: []string{DialectPostgres, DialectSQLite}}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	for _, dialect := range o.dialects {
		if dialect != DialectPostgres && dialect != DialectSQLite {
			return nil, fmt.Errorf("migrations: unsupported dialect %q", dialect)
		}
	}

	sources, err := Sources(o.tree)
	if err != nil {
		return nil, err
	}
	applied := make([]Source, 0, len(sources))
	for _, src := range sources {
		if !contains(o.dialects, src.Dialect) {
			continue
		}
		if err := fn(ctx, src); err != nil {
			return applied, fmt.Errorf("migrations: apply %s from %s: %w", src.Dialect, src.Dir, err)
		}
		applied = append(applied, src)
	}
	return applied, nil
}

// locate accepts either the repository layout or a tree whose root holds the SQL files.
func locate(tree fs.FS) (fs.FS, string, error) {
	if info, err := fs.Stat(tree, treeRoot); err == nil && info.IsDir() {
		sub, err := fs.Sub(tree, treeRoot)
		if err != nil {
			return nil, "", fmt.Errorf("migrations: open %s: %w", treeRoot, err)
		}
		return sub, treeRoot, nil
	}
	if flat, _ := fs.Glob(tree, "*.sql"); len(flat) > 0 {
		return tree, ".", nil
	}
	return nil, "", fmt.Errorf("migrations: %s not found", treeRoot)
}

func contains(values []string, want string) bool {
	for _, value := range values {
		if value == want {
			return true
		}
	}
	return false
}
