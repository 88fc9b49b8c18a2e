// Package artifact locates a model snapshot inside a content-addressed cache.
//
// Layout:
//
//	<root>/refs/<ref>              text file holding a commit hash
//	<root>/snapshots/<hash>/       the artifact directory
//	<root>/snapshots/<hash>/config.json
package artifact

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

const (
	refsDir      = "refs"
	snapshotsDir = "snapshots"
	configFile   = "config.json"
)

// Snapshot is a resolved model artifact.
type Snapshot struct {
	Ref    string
	Commit string
	// Dir is the snapshot directory on disk.
	Dir string
	// ModelType is read from config.json when present.
	ModelType string
}

// Resolver resolves refs against one cache root.
type Resolver struct {
	root string
	fsys fs.FS
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithFS reads the cache from fsys instead of the local disk.
func WithFS(fsys fs.FS) Option {
	return func(r *Resolver) {
		r.fsys = fsys
	}
}

// NewResolver returns a Resolver for the cache rooted at root.
func NewResolver(root string, opts ...Option) *Resolver {
	r := &Resolver{root: root}
	for _, opt := range opts {
		opt(r)
	}
	if r.fsys == nil {
		r.fsys = os.DirFS(root)
	}
	return r
}

// Resolve reads refs/<ref>, then checks that the snapshot it names exists
// and carries a parseable config.json.
func (r *Resolver) Resolve(ref string) (Snapshot, error) {
	refPath := path.Join(refsDir, ref)
	if !fs.ValidPath(refPath) || strings.Contains(ref, "..") {
		return Snapshot{}, fmt.Errorf("%w: invalid ref %q", ErrCorruptArtifact, ref)
	}

	raw, err := fs.ReadFile(r.fsys, refPath)
	if err != nil {
		return Snapshot{}, notFound(refPath, err)
	}
	commit := strings.TrimSpace(string(raw))
	if commit == "" || strings.ContainsAny(commit, `/\`) || commit == "." || commit == ".." {
		return Snapshot{}, fmt.Errorf("%w: ref %q holds %q", ErrCorruptArtifact, ref, commit)
	}

	snapPath := path.Join(snapshotsDir, commit)
	info, err := fs.Stat(r.fsys, snapPath)
	if err != nil {
		return Snapshot{}, notFound(snapPath, err)
	}
	if !info.IsDir() {
		return Snapshot{}, fmt.Errorf("%w: %s is not a directory", ErrCorruptArtifact, snapPath)
	}

	cfgPath := path.Join(snapPath, configFile)
	cfgRaw, err := fs.ReadFile(r.fsys, cfgPath)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: read %s: %w", ErrCorruptArtifact, cfgPath, err)
	}
	var cfg struct {
		ModelType string `json:"model_type"`
	}
	if err := json.Unmarshal(cfgRaw, &cfg); err != nil {
		return Snapshot{}, fmt.Errorf("%w: parse %s: %w", ErrCorruptArtifact, cfgPath, err)
	}

	return Snapshot{
		Ref:       ref,
		Commit:    commit,
		Dir:       filepath.Join(r.root, snapshotsDir, commit),
		ModelType: cfg.ModelType,
	}, nil
}

func notFound(p string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrSnapshotNotFound, p)
	}
	return fmt.Errorf("%w: %s: %w", ErrCorruptArtifact, p, err)
}
