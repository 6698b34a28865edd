package cryo

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cryodb/cryo/config"
	"github.com/cryodb/cryo/reldb"
)

type cohort struct{}

func (cohort) Kind() string { return "Cohort" }

type locus struct{}

func (locus) Kind() string { return "Locus" }

type dottedKind struct{}

func (dottedKind) Kind() string { return "bad.kind" }

func TestNew_RootDirectoryDerivation(t *testing.T) {
	base := t.TempDir()
	ctx := context.Background()

	f, err := New(ctx, cohort{}, "foo", WithBaseDir(base))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, filepath.Join(base, "databases", "Cohort.foo"), f.Dir())
	assert.Equal(t, "Cohort", f.Kind())
	assert.Equal(t, "foo", f.Name())
	assert.Nil(t, f.Parent())

	info, err := os.Stat(f.Dir())
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	_, err = os.Stat(filepath.Join(f.Dir(), reldb.FileName))
	assert.NoError(t, err, "database file should exist inside the directory")
}

func TestNew_NestedDirectoryDerivation(t *testing.T) {
	base := t.TempDir()
	ctx := context.Background()

	a, err := New(ctx, cohort{}, "foo", WithBaseDir(base))
	require.NoError(t, err)
	defer a.Close()

	b, err := New(ctx, locus{}, "bar", WithParent(a))
	require.NoError(t, err)
	defer b.Close()

	assert.Equal(t, filepath.Join(base, "databases", "Cohort.foo", "Locus.bar"), b.Dir())
	assert.Same(t, a, b.Parent())

	children := a.Children()
	require.Len(t, children, 1)
	assert.Same(t, b, children[0])
}

func TestNew_RepeatedConstructionIsIdempotent(t *testing.T) {
	base := t.TempDir()
	ctx := context.Background()

	f1, err := New(ctx, cohort{}, "foo", WithBaseDir(base))
	require.NoError(t, err)
	require.NoError(t, f1.Close())

	// Second construction over the existing directory must not fail.
	f2, err := New(ctx, cohort{}, "foo", WithBaseDir(base))
	require.NoError(t, err)
	defer f2.Close()

	assert.Equal(t, f1.Dir(), f2.Dir())
}

func TestNew_ChildRegisteredOncePerDirectory(t *testing.T) {
	base := t.TempDir()
	ctx := context.Background()

	a, err := New(ctx, cohort{}, "foo", WithBaseDir(base))
	require.NoError(t, err)
	defer a.Close()

	b1, err := New(ctx, locus{}, "bar", WithParent(a))
	require.NoError(t, err)
	require.NoError(t, b1.Close())

	// A fresh object with the same kind, name and parent supersedes the
	// earlier registration instead of duplicating it.
	b2, err := New(ctx, locus{}, "bar", WithParent(a))
	require.NoError(t, err)
	defer b2.Close()

	children := a.Children()
	require.Len(t, children, 1)
	assert.Same(t, b2, children[0])
}

func TestNew_StateSurvivesReopen(t *testing.T) {
	base := t.TempDir()
	ctx := context.Background()

	f, err := New(ctx, cohort{}, "foo", WithBaseDir(base))
	require.NoError(t, err)

	err = f.DB().BulkTransaction(ctx, func(cur *reldb.Cursor) error {
		if _, err := cur.Exec(ctx, "CREATE TABLE t (v TEXT)"); err != nil {
			return err
		}
		_, err := cur.Exec(ctx, "INSERT INTO t (v) VALUES (?)", "frozen")
		return err
	})
	require.NoError(t, err)
	require.NoError(t, f.KV().Put(ctx, "marker", "kept"))
	require.NoError(t, f.Close())

	// A new process run resolves the same directory and finds the state.
	g, err := New(ctx, cohort{}, "foo", WithBaseDir(base))
	require.NoError(t, err)
	defer g.Close()

	tab, err := g.DB().Query(ctx, "SELECT v FROM t")
	require.NoError(t, err)
	require.Equal(t, 1, tab.Len())
	assert.Equal(t, "frozen", tab.Rows[0][0])

	var marker string
	require.NoError(t, g.KV().Get(ctx, "marker", &marker))
	assert.Equal(t, "kept", marker)
}

func TestNew_InvalidNames(t *testing.T) {
	base := t.TempDir()
	ctx := context.Background()

	cases := []struct {
		label string
		name  string
	}{
		{"empty", ""},
		{"separator", "a/b"},
		{"backslash", `a\b`},
		{"nul", "a\x00b"},
		{"dot", "."},
		{"dotdot", ".."},
	}
	for _, tc := range cases {
		t.Run(tc.label, func(t *testing.T) {
			_, err := New(ctx, cohort{}, tc.name, WithBaseDir(base))
			require.Error(t, err)
			assert.True(t, IsInvalidName(err), "expected InvalidNameError, got %v", err)
		})
	}
}

func TestNew_DottedKindRejected(t *testing.T) {
	_, err := New(context.Background(), dottedKind{}, "x", WithBaseDir(t.TempDir()))
	require.Error(t, err)
	assert.True(t, IsInvalidName(err))
}

func TestNew_WithConfig(t *testing.T) {
	cfg := config.Config{BaseDir: t.TempDir()}

	f, err := New(context.Background(), cohort{}, "foo", WithConfig(cfg))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, filepath.Join(cfg.BaseDir, "databases", "Cohort.foo"), f.Dir())
}

func TestNew_NoBaseDirResolvable(t *testing.T) {
	// Empty explicit config fails before any directory is created.
	t.Setenv("CRYO_BASEDIR", "")
	os.Unsetenv("CRYO_BASEDIR")
	t.Setenv("HOME", "")

	_, err := New(context.Background(), cohort{}, "foo")
	require.Error(t, err)
	var cerr *config.Error
	assert.ErrorAs(t, err, &cerr)
}

func TestNew_UnwritableBaseDir(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("running as root; permission checks do not apply")
	}
	base := t.TempDir()
	require.NoError(t, os.Chmod(base, 0o555))
	t.Cleanup(func() { os.Chmod(base, 0o755) })

	_, err := New(context.Background(), cohort{}, "foo", WithBaseDir(base))
	require.Error(t, err)
	assert.True(t, IsDirectoryCreation(err), "expected DirectoryCreationError, got %v", err)
}

func TestSubpath(t *testing.T) {
	base := t.TempDir()
	ctx := context.Background()

	f, err := New(ctx, cohort{}, "foo", WithBaseDir(base))
	require.NoError(t, err)
	defer f.Close()

	// Without create, the path is computed only.
	p, err := f.Subpath("columns", false)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(f.Dir(), "columns"), p)
	_, statErr := os.Stat(p)
	assert.True(t, os.IsNotExist(statErr))

	// With create, the directory exists afterwards.
	p, err = f.Subpath("columns", true)
	require.NoError(t, err)
	info, err := os.Stat(p)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	_, err = f.Subpath("../escape", false)
	require.Error(t, err)
	assert.True(t, IsInvalidName(err))
}

func TestNew_FailedChildNotRegistered(t *testing.T) {
	base := t.TempDir()
	ctx := context.Background()

	a, err := New(ctx, cohort{}, "foo", WithBaseDir(base))
	require.NoError(t, err)
	defer a.Close()

	// Occupy the child's database path with a directory so the store
	// cannot be opened there.
	childDir := filepath.Join(a.Dir(), "Locus.bar")
	require.NoError(t, os.MkdirAll(filepath.Join(childDir, reldb.FileName), 0o755))

	_, err = New(ctx, locus{}, "bar", WithParent(a))
	require.Error(t, err)
	assert.Empty(t, a.Children(), "failed construction must not leave a child registered")
}

func TestRegister_RejectsCycle(t *testing.T) {
	base := t.TempDir()
	ctx := context.Background()

	a, err := New(ctx, cohort{}, "foo", WithBaseDir(base))
	require.NoError(t, err)
	defer a.Close()

	b, err := New(ctx, locus{}, "bar", WithParent(a))
	require.NoError(t, err)
	defer b.Close()

	err = b.register(a)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCyclicHierarchy)
}

func TestClose_Idempotent(t *testing.T) {
	f, err := New(context.Background(), cohort{}, "foo", WithBaseDir(t.TempDir()))
	require.NoError(t, err)

	require.NoError(t, f.Close())
	// Second close must not panic.
	_ = f.Close()
}
