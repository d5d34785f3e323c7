package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/vbprojects/althtml/internal/compile"
	"github.com/vbprojects/althtml/internal/config"
	"github.com/vbprojects/althtml/internal/fswalk"
)

// pair is one resolved src/dst mapping.
type pair struct {
	Src string
	Dst string
}

// Runner recompiles a project whenever one of its files changes. Header
// templates are compiled first on every rebuild so their set and macro
// bindings are visible to each write pair.
type Runner struct {
	compiler *compile.Compiler
	headers  []string
	pairs    []pair
	watched  map[string]struct{}
}

// NewRunner resolves a project's globs and paths relative to baseDir.
func NewRunner(baseDir string, project config.Project) (*Runner, error) {
	headers, err := fswalk.ExpandGlobs(baseDir, project.Headers)
	if err != nil {
		return nil, err
	}

	r := &Runner{
		compiler: compile.NewCompiler(),
		watched:  map[string]struct{}{},
	}
	for _, h := range headers {
		abs, err := filepath.Abs(h)
		if err != nil {
			return nil, err
		}
		r.headers = append(r.headers, abs)
		r.watched[abs] = struct{}{}
	}
	for _, w := range project.Write {
		src, err := filepath.Abs(filepath.Join(baseDir, filepath.FromSlash(w.Src)))
		if err != nil {
			return nil, err
		}
		dst, err := filepath.Abs(filepath.Join(baseDir, filepath.FromSlash(w.Dst)))
		if err != nil {
			return nil, err
		}
		r.pairs = append(r.pairs, pair{Src: src, Dst: dst})
		r.watched[src] = struct{}{}
	}
	if len(r.pairs) == 0 {
		return nil, fmt.Errorf("no write pairs to watch")
	}
	return r, nil
}

// Rebuild recompiles headers and every write pair. Per-file failures are
// logged and counted; they never stop the remaining files.
func (r *Runner) Rebuild() (failed int) {
	r.compiler.Reset()

	for _, h := range r.headers {
		raw, err := os.ReadFile(h)
		if err != nil {
			slog.Warn("read header failed", "file", h, "error", err)
			failed++
			continue
		}
		if _, err := r.compiler.Compile(h, string(raw)); err != nil {
			slog.Warn("header compile failed", "file", h, "error", err)
			failed++
		}
	}

	for _, p := range r.pairs {
		raw, err := os.ReadFile(p.Src)
		if err != nil {
			slog.Warn("read source failed", "file", p.Src, "error", err)
			failed++
			continue
		}
		result, err := r.compiler.Compile(p.Src, string(raw))
		if err != nil {
			slog.Warn("compile failed", "file", p.Src, "error", err)
			failed++
			continue
		}
		if err := fswalk.EnsureParentDir(p.Dst); err != nil {
			slog.Warn("prepare output failed", "file", p.Dst, "error", err)
			failed++
			continue
		}
		if err := os.WriteFile(p.Dst, []byte(result.HTML), 0o644); err != nil {
			slog.Warn("write output failed", "file", p.Dst, "error", err)
			failed++
			continue
		}
		slog.Debug("wrote output", "src", p.Src, "dst", p.Dst)
	}
	return failed
}

// Run performs an initial build and then recompiles on every change to a
// watched file until the context is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	if failed := r.Rebuild(); failed > 0 {
		slog.Warn("initial build finished with failures", "failed", failed)
	} else {
		slog.Info("initial build complete", "files", len(r.pairs))
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	defer watcher.Close()

	dirs := map[string]struct{}{}
	for f := range r.watched {
		dirs[filepath.Dir(f)] = struct{}{}
	}
	for d := range dirs {
		if err := watcher.Add(d); err != nil {
			return fmt.Errorf("watch directory %q: %w", d, err)
		}
		slog.Info("watching directory", "dir", d)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil {
				continue
			}
			if _, tracked := r.watched[abs]; !tracked {
				continue
			}
			slog.Info("change detected", "file", abs)
			if failed := r.Rebuild(); failed > 0 {
				slog.Warn("rebuild finished with failures", "failed", failed)
			}
		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watch error", "error", watchErr)
		}
	}
}
