package gen

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/dave/jennifer/jen"
	"golang.org/x/sync/errgroup"
	"golang.org/x/tools/imports"

	"github.com/syssam/dirtydb/compiler/load"
)

// TablesFile is the name of the package level file.
const TablesFile = "tables.go"

// Generate writes one file per entity of g, plus TablesFile, into the
// target directory. It returns the written paths in entity order.
func Generate(ctx context.Context, g *Graph) ([]string, error) {
	if g.Target == "" {
		return nil, NewConfigError("Target", nil, "target directory is required")
	}
	if err := os.MkdirAll(g.Target, 0o755); err != nil {
		return nil, NewGenerationError("write", g.Target, "create output directory", err)
	}
	tasks := make([]fileTask, 0, len(g.Nodes)+1)
	for _, t := range g.Nodes {
		tasks = append(tasks, fileTask{name: t.File(), build: func() *jen.File { return genEntity(g, t) }})
	}
	tasks = append(tasks, fileTask{name: TablesFile, build: func() *jen.File { return genTables(g) }})

	var (
		mu      sync.Mutex
		written = make(map[string]string, len(tasks))
	)
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(max(g.Workers, 1))
	for _, task := range tasks {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			path, err := writeFile(g.Target, task)
			if err != nil {
				return err
			}
			mu.Lock()
			written[task.name] = path
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(tasks))
	for _, task := range tasks {
		paths = append(paths, written[task.name])
	}
	return paths, nil
}

// GenerateFile loads the entity file at path and generates its package.
// The package name of the file is used unless one is set in opts.
func GenerateFile(ctx context.Context, path string, opts ...Option) ([]string, error) {
	f, err := load.Load(path)
	if err != nil {
		return nil, err
	}
	if f.Package != "" {
		opts = slices.Insert(opts, 0, WithPackage(f.Package))
	}
	c, err := NewConfig(opts...)
	if err != nil {
		return nil, err
	}
	g, err := NewGraph(c, f.Entities...)
	if err != nil {
		return nil, err
	}
	return Generate(ctx, g)
}

// fileTask represents a single file generation task.
type fileTask struct {
	name  string // output file name, relative to the target
	build func() *jen.File
}

// writeFile renders, formats and writes a single file.
func writeFile(dir string, task fileTask) (string, error) {
	var buf bytes.Buffer
	if err := task.build().Render(&buf); err != nil {
		return "", NewGenerationError("render", task.name, "", err)
	}
	path := filepath.Join(dir, task.name)
	formatted, err := imports.Process(path, buf.Bytes(), nil)
	if err != nil {
		// Keep the unformatted output around for debugging.
		_ = os.WriteFile(path+".error", buf.Bytes(), 0o644)
		return "", NewGenerationError("format", task.name, "unformatted output written to "+path+".error", err)
	}
	if err := os.WriteFile(path, formatted, 0o644); err != nil {
		return "", NewGenerationError("write", task.name, "", err)
	}
	return path, nil
}
