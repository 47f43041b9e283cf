package publish

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/roach88/serdegen/internal/backend"
	"github.com/roach88/serdegen/internal/codegen"
)

// Action records what happened to one file.
type Action string

const (
	Written   Action = "written"
	Unchanged Action = "unchanged"
	Planned   Action = "planned" // dry run, file missing or different
)

// Entry is one file in a publish report.
type Entry struct {
	Path   string `json:"path"`
	Action Action `json:"action"`
	Bytes  int    `json:"bytes"`
}

// Report lists every file a Publish call handled, in artifact order.
type Report struct {
	Target  codegen.Target `json:"target"`
	Module  string         `json:"module"`
	Entries []Entry        `json:"entries"`
}

// Publisher writes artifacts to disk.
type Publisher struct {
	runtime bool
	dryRun  bool
	log     *zap.Logger
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithRuntime controls whether runtime files are installed. Default true.
func WithRuntime(install bool) Option {
	return func(p *Publisher) { p.runtime = install }
}

// WithDryRun lists the files that would be written without touching disk.
func WithDryRun() Option {
	return func(p *Publisher) { p.dryRun = true }
}

// WithLogger sets the logger. Default is a no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(p *Publisher) { p.log = log }
}

// New creates a Publisher.
func New(opts ...Option) *Publisher {
	p := &Publisher{runtime: true, log: zap.NewNop()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Layout returns the destination path of f relative to dest.
func Layout(module string, f codegen.File) (string, error) {
	rel := filepath.FromSlash(f.Path)
	if filepath.IsAbs(rel) || rel == "." || strings.HasPrefix(filepath.Clean(rel), "..") {
		return "", errors.Newf("artifact path %q escapes the destination", f.Path)
	}
	if f.Kind == codegen.RuntimeFile {
		return filepath.Clean(rel), nil
	}
	if module == "" {
		return "", errors.New("artifact has no module name")
	}
	if escapesDest(module) {
		return "", errors.Newf("module %q escapes the destination", module)
	}
	return filepath.Join(module, rel), nil
}

func escapesDest(p string) bool {
	clean := filepath.Clean(filepath.FromSlash(p))
	return filepath.IsAbs(clean) || clean == "." || clean == ".." ||
		strings.HasPrefix(clean, ".."+string(filepath.Separator))
}

// Publish writes art under dest. Files whose content already matches are
// left alone. In dry-run mode nothing is written and every missing or
// differing file is reported as Planned. The first failing file stops the
// run; files written before it stay in place and are listed in the report.
func (p *Publisher) Publish(ctx context.Context, art backend.Artifact, dest string) (Report, error) {
	report := Report{Target: art.Target, Module: art.Module}
	for _, f := range art.Files {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if f.Kind == codegen.RuntimeFile && !p.runtime {
			continue
		}
		rel, err := Layout(art.Module, f)
		if err != nil {
			return report, err
		}
		path := filepath.Join(dest, rel)
		entry := Entry{Path: rel, Bytes: len(f.Content)}

		switch {
		case sameContent(path, f.Content):
			entry.Action = Unchanged
		case p.dryRun:
			entry.Action = Planned
		default:
			if err := WriteFileAtomic(path, f.Content, 0o644); err != nil {
				return report, errors.Wrapf(err, "publish %s", rel)
			}
			entry.Action = Written
		}
		p.log.Debug("publish file",
			zap.String("target", string(art.Target)),
			zap.String("path", rel),
			zap.String("action", string(entry.Action)),
			zap.Int("bytes", entry.Bytes),
		)
		report.Entries = append(report.Entries, entry)
	}
	p.log.Info("published artifact",
		zap.String("target", string(art.Target)),
		zap.String("module", art.Module),
		zap.String("dest", dest),
		zap.Int("files", len(report.Entries)),
		zap.Bool("dry_run", p.dryRun),
	)
	return report, nil
}

func sameContent(path string, data []byte) bool {
	existing, err := os.ReadFile(path)
	return err == nil && bytes.Equal(existing, data)
}

// WriteFileAtomic writes data to path through a temp file in the same
// directory, fsyncs it and renames it over path.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "create directory")
	}
	tmp := filepath.Join(dir, "."+filepath.Base(path)+"."+uuid.NewString()+".tmp")
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	cleanup := func() {
		_ = f.Close()
		_ = os.Remove(tmp)
	}
	if _, err := f.Write(data); err != nil {
		cleanup()
		return errors.Wrap(err, "write temp file")
	}
	if err := f.Sync(); err != nil {
		cleanup()
		return errors.Wrap(err, "sync temp file")
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrap(err, "close temp file")
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrap(err, "rename temp file")
	}
	return syncDir(dir)
}

// syncDir makes the rename durable. Platforms that cannot open a
// directory for sync are ignored.
func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return nil
	}
	defer d.Close()
	_ = d.Sync()
	return nil
}
