// dirtygen writes the entity contract of dirtydb records from an entity
// description file.
//
//	dirtygen --schema entities.yaml --target ./models
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/pflag"

	"github.com/syssam/dirtydb/compiler/gen"
)

func main() {
	var (
		schema  = pflag.StringP("schema", "s", "entities.yaml", "entity description file")
		target  = pflag.StringP("target", "t", ".", "output directory")
		pkg     = pflag.StringP("package", "p", "", "generated package name (default: the package of the schema file)")
		header  = pflag.String("header", gen.DefaultHeader, "header comment of generated files")
		workers = pflag.IntP("workers", "w", 0, "files rendered in parallel (default: GOMAXPROCS)")
	)
	pflag.Parse()

	opts := []gen.Option{gen.WithTarget(*target), gen.WithHeader(*header)}
	if *pkg != "" {
		opts = append(opts, gen.WithPackage(*pkg))
	}
	if *workers > 0 {
		opts = append(opts, gen.WithWorkers(*workers))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	paths, err := gen.GenerateFile(ctx, *schema, opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dirtygen: %v\n", err)
		stop()
		os.Exit(1)
	}
	for _, p := range paths {
		fmt.Println(p)
	}
}
