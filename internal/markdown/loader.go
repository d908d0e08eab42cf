package markdown

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/goliatone/go-cms-inline/internal/domain"
)

// Document is one parsed element file.
type Document struct {
	Path        string
	Locale      domain.Locale
	PageKey     string
	ElementKey  string
	FrontMatter FrontMatter
	Body        string
}

// LoaderConfig configures how element files are discovered.
type LoaderConfig struct {
	// DefaultLocale is used when the first path segment is not a locale.
	DefaultLocale string
	// Pattern limits discovered files (defaults to "*.md").
	Pattern string
}

// Loader turns filesystem paths into element documents.
type Loader struct {
	fs            fs.FS
	defaultLocale domain.Locale
	pattern       string
}

// NewLoader constructs a Loader over filesystem.
func NewLoader(filesystem fs.FS, cfg LoaderConfig) *Loader {
	pattern := cfg.Pattern
	if strings.TrimSpace(pattern) == "" {
		pattern = "*.md"
	}
	locale, ok := domain.ParseLocale(cfg.DefaultLocale)
	if !ok {
		locale = domain.LocaleEnglish
	}
	return &Loader{
		fs:            filesystem,
		defaultLocale: locale,
		pattern:       pattern,
	}
}

// LoadFile reads and parses a single element file.
func (l *Loader) LoadFile(ctx context.Context, name string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := fs.ReadFile(l.fs, name)
	if err != nil {
		return nil, fmt.Errorf("markdown loader read %s: %w", name, err)
	}
	meta, body, err := ParseFrontMatter(data)
	if err != nil {
		return nil, fmt.Errorf("markdown loader %s: %w", name, err)
	}

	locale, pageKey, elementKey := l.address(name)
	if meta.Page != "" {
		pageKey = meta.Page
	}
	if meta.Key != "" {
		elementKey = meta.Key
	}
	return &Document{
		Path:        name,
		Locale:      locale,
		PageKey:     pageKey,
		ElementKey:  elementKey,
		FrontMatter: meta,
		Body:        strings.TrimSpace(string(body)),
	}, nil
}

// LoadDirectory discovers element files under dir, sorted by path.
func (l *Loader) LoadDirectory(ctx context.Context, dir string) ([]*Document, error) {
	root := path.Clean(strings.TrimPrefix(dir, "/"))
	var docs []*Document

	walkErr := fs.WalkDir(l.fs, root, func(name string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if match, _ := path.Match(l.pattern, path.Base(name)); !match {
			return nil
		}
		doc, err := l.LoadFile(ctx, name)
		if err != nil {
			return err
		}
		docs = append(docs, doc)
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}

	sort.Slice(docs, func(i, j int) bool {
		return docs[i].Path < docs[j].Path
	})
	return docs, nil
}

// address derives locale, page and element keys from a path such as
// "ar/home/hero_title.md". Missing segments stay empty.
func (l *Loader) address(name string) (domain.Locale, string, string) {
	segments := strings.Split(path.Clean(name), "/")
	locale := l.defaultLocale
	if len(segments) > 1 {
		if parsed, ok := domain.ParseLocale(segments[0]); ok && string(parsed) == strings.ToLower(segments[0]) {
			locale = parsed
			segments = segments[1:]
		}
	}

	elementKey := strings.TrimSuffix(segments[len(segments)-1], path.Ext(segments[len(segments)-1]))
	pageKey := ""
	if len(segments) > 1 {
		pageKey = segments[len(segments)-2]
	}
	return locale, pageKey, elementKey
}
