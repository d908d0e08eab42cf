package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/goliatone/go-cms-inline/internal/di"
	"github.com/goliatone/go-cms-inline/internal/domain"
	"github.com/goliatone/go-cms-inline/internal/logging"
	"github.com/goliatone/go-cms-inline/internal/markdown"
	"github.com/goliatone/go-cms-inline/internal/runtimeconfig"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		log.Fatalf("seed: %v", err)
	}
}

func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to a TOML config file (defaults to built-in config)")
	contentDir := fs.String("content-dir", "content", "Root of <locale>/<page>/<element>.md files")
	directory := fs.String("directory", ".", "Directory to import, relative to the content root")
	pattern := fs.String("pattern", "*.md", "Glob pattern applied to file names")
	status := fs.String("status", "", "Force draft or published for every element")
	dryRun := fs.Bool("dry-run", false, "Preview changes without persisting content")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := runtimeconfig.DefaultConfig()
	if *configPath != "" {
		loaded, err := runtimeconfig.LoadFile(*configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	opts := markdown.ImportOptions{DryRun: *dryRun}
	if *status != "" {
		parsed, ok := domain.ParseStatus(*status)
		if !ok {
			return fmt.Errorf("%w: %q", markdown.ErrStatusInvalid, *status)
		}
		opts.Status = parsed
	}

	container, err := di.NewContainer(cfg)
	if err != nil {
		return fmt.Errorf("bootstrap container: %w", err)
	}
	defer container.Close()

	loader := markdown.NewLoader(os.DirFS(*contentDir), markdown.LoaderConfig{
		DefaultLocale: cfg.DefaultLocale,
		Pattern:       *pattern,
	})
	docs, err := loader.LoadDirectory(ctx, *directory)
	if err != nil {
		return fmt.Errorf("load documents: %w", err)
	}

	importer := markdown.NewImporter(markdown.ImporterConfig{
		Store:  container.ElementService(),
		Logger: logging.ModuleLogger(container.LoggerProvider(), "cms.seed"),
	})
	result, err := importer.Import(ctx, docs, opts)
	if result != nil {
		fmt.Fprintf(os.Stdout, "seeded %d documents: %d created, %d updated, %d unchanged, %d failed\n",
			len(docs), len(result.Created), len(result.Updated), len(result.Unchanged), len(result.Errors))
	}
	return err
}
