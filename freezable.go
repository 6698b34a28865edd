package cryo

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cryodb/cryo/config"
	"github.com/cryodb/cryo/kv"
	"github.com/cryodb/cryo/reldb"
)

// Freezable is the persistence base for objects that are expensive to build
// and cheap to reload. Each instance owns a private directory holding a
// relational database, a key-value store, and any subdirectories handed out
// to collaborators (for example a columnar table store).
//
// The directory is a pure function of the object's kind, its name, and its
// ancestry: base/databases/{kind}.{name} for a root object, or
// parent-dir/{kind}.{name} for a nested one. Constructing an object with
// the same kind, name and ancestry in a later process resolves the same
// directory, which is what makes frozen state reloadable.
//
// A Freezable is single-threaded: it owns one database connection, and that
// connection must not be used concurrently.
type Freezable struct {
	kind string
	name string
	dir  string

	parent   *Freezable
	children []*Freezable

	db *reldb.Store
	kv *kv.Store
}

type options struct {
	parent  *Freezable
	baseDir string
	cfg     *config.Config
}

// Option customizes construction of a Freezable.
type Option func(*options)

// WithParent nests the new object inside parent's directory and registers
// it as parent's child.
func WithParent(parent *Freezable) Option {
	return func(o *options) { o.parent = parent }
}

// WithBaseDir overrides the configured base directory for this object.
// Ignored when the object has a parent, since a child always lives inside
// its parent's directory.
func WithBaseDir(dir string) Option {
	return func(o *options) { o.baseDir = dir }
}

// WithConfig supplies an explicit configuration instead of the process-wide
// default, avoiding any hidden global lookup.
func WithConfig(cfg config.Config) Option {
	return func(o *options) { o.cfg = &cfg }
}

// New constructs the persistence base for owner: it resolves the object's
// directory, creates it if absent, and opens the relational and key-value
// stores inside it. The caller must Close the returned Freezable when the
// owning object is discarded.
func New(ctx context.Context, owner Kinder, name string, opts ...Option) (*Freezable, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	kind, err := cleanKind(owner.Kind())
	if err != nil {
		return nil, err
	}
	name, err = cleanSegment(name, "name")
	if err != nil {
		return nil, err
	}

	dir, err := resolveDir(kind, name, o)
	if err != nil {
		return nil, err
	}

	f := &Freezable{kind: kind, name: name, dir: dir, parent: o.parent}
	if o.parent != nil {
		if err := o.parent.register(f); err != nil {
			return nil, err
		}
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		f.deregister()
		return nil, &DirectoryCreationError{Path: dir, Err: err}
	}

	f.db, err = reldb.Open(dir)
	if err != nil {
		f.deregister()
		return nil, err
	}
	f.kv, err = kv.Open(ctx, f.db)
	if err != nil {
		f.db.Close()
		f.deregister()
		return nil, err
	}
	return f, nil
}

// resolveDir computes the object's directory without touching the
// filesystem. Roots resolve under the base directory's databases/ tree,
// children under their parent's directory.
func resolveDir(kind, name string, o options) (string, error) {
	segment := kind + "." + name
	if o.parent != nil {
		return filepath.Join(o.parent.dir, segment), nil
	}

	baseDir := o.baseDir
	if baseDir == "" && o.cfg != nil {
		baseDir = o.cfg.BaseDir
	}
	if baseDir == "" {
		// Read at each construction rather than cached for the process, so
		// configuration changes take effect for later objects.
		cfg, err := config.Default()
		if err != nil {
			return "", err
		}
		baseDir = cfg.BaseDir
	}
	return filepath.Join(baseDir, "databases", segment), nil
}

// register adds child to f's registry. Registration is exactly-once per
// resolved directory: re-constructing an object with the same kind, name
// and parent supersedes the earlier registration instead of duplicating it.
// Registering an ancestor of f is rejected, keeping the hierarchy acyclic.
func (f *Freezable) register(child *Freezable) error {
	for p := f; p != nil; p = p.parent {
		if p == child || p.dir == child.dir {
			return fmt.Errorf("register %s under %s: %w", child.dir, f.dir, ErrCyclicHierarchy)
		}
	}
	for i, c := range f.children {
		if c.dir == child.dir {
			f.children[i] = child
			return nil
		}
	}
	f.children = append(f.children, child)
	return nil
}

// deregister removes f from its parent's registry, undoing a registration
// whose construction failed part-way. A root object is a no-op.
func (f *Freezable) deregister() {
	if f.parent == nil {
		return
	}
	for i, c := range f.parent.children {
		if c == f {
			f.parent.children = append(f.parent.children[:i], f.parent.children[i+1:]...)
			return
		}
	}
}

// Kind returns the stable category string of the owning type.
func (f *Freezable) Kind() string { return f.kind }

// Name returns the caller-supplied instance name.
func (f *Freezable) Name() string { return f.name }

// Dir returns the object's absolute storage directory.
func (f *Freezable) Dir() string { return f.dir }

// Parent returns the enclosing object, or nil for a root.
func (f *Freezable) Parent() *Freezable { return f.parent }

// Children returns the objects registered under this one. The slice is a
// copy; mutating it does not affect the registry.
func (f *Freezable) Children() []*Freezable {
	out := make([]*Freezable, len(f.children))
	copy(out, f.children)
	return out
}

// DB returns the object's relational store.
func (f *Freezable) DB() *reldb.Store { return f.db }

// KV returns the object's key-value store. It shares the relational store's
// connection, so writes issued through cursor variants participate in bulk
// transactions.
func (f *Freezable) KV() *kv.Store { return f.kv }

// Subpath returns dir/ext for a collaborator-owned subdirectory or file,
// optionally creating the directory. Collaborators use this instead of
// duplicating path derivation.
func (f *Freezable) Subpath(ext string, create bool) (string, error) {
	ext, err := cleanSegment(ext, "subpath")
	if err != nil {
		return "", err
	}
	path := filepath.Join(f.dir, ext)
	if create {
		if err := os.MkdirAll(path, 0o755); err != nil {
			return "", &DirectoryCreationError{Path: path, Err: err}
		}
	}
	return path, nil
}

// Close releases the database connection. The directory and its contents
// are left on disk; deletion is an explicit external operation, never
// performed by this layer.
func (f *Freezable) Close() error {
	if f.db == nil {
		return nil
	}
	return f.db.Close()
}
