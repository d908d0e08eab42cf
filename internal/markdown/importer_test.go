package markdown

import (
	"context"
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/goliatone/go-cms-inline/internal/domain"
	"github.com/goliatone/go-cms-inline/internal/elements"
)

func seedFS() fstest.MapFS {
	return fstest.MapFS{
		"ar/home/hero_title.md": {Data: []byte("---\ntype: text\nstatus: published\nmetadata:\n  tag: h1\n---\nأهلاً بكم\n")},
		"en/home/hero_title.md": {Data: []byte("---\ntype: text\nstatus: published\n---\nWelcome\n")},
		"en/home/hero_cta.md":   {Data: []byte("---\ntype: button\nmetadata:\n  url: /start\n---\nStart\n")},
		"en/home/notes.txt":     {Data: []byte("ignored")},
	}
}

func TestLoaderDerivesAddressFromPath(t *testing.T) {
	loader := NewLoader(seedFS(), LoaderConfig{DefaultLocale: "en"})

	docs, err := loader.LoadDirectory(context.Background(), ".")
	if err != nil {
		t.Fatalf("LoadDirectory returned error: %v", err)
	}
	if len(docs) != 3 {
		t.Fatalf("expected 3 markdown documents, got %d", len(docs))
	}

	first := docs[0]
	if first.Path != "ar/home/hero_title.md" || first.Locale != domain.LocaleArabic {
		t.Fatalf("unexpected first document %+v", first)
	}
	if first.PageKey != "home" || first.ElementKey != "hero_title" {
		t.Fatalf("unexpected address %s/%s", first.PageKey, first.ElementKey)
	}
	if first.Body != "أهلاً بكم" || first.FrontMatter.Metadata["tag"] != "h1" {
		t.Fatalf("unexpected body or metadata %+v", first)
	}
}

func TestLoaderFallsBackToDefaultLocaleAndOverrides(t *testing.T) {
	fsys := fstest.MapFS{
		"about/intro.md": {Data: []byte("---\ntype: rich_text\npage: company\nkey: intro_text\n---\n**Hello**\n")},
	}
	loader := NewLoader(fsys, LoaderConfig{DefaultLocale: "ar"})

	doc, err := loader.LoadFile(context.Background(), "about/intro.md")
	if err != nil {
		t.Fatalf("LoadFile returned error: %v", err)
	}
	if doc.Locale != domain.LocaleArabic {
		t.Fatalf("expected default locale ar, got %s", doc.Locale)
	}
	if doc.PageKey != "company" || doc.ElementKey != "intro_text" {
		t.Fatalf("expected front matter overrides, got %s/%s", doc.PageKey, doc.ElementKey)
	}
}

func TestImporterMergesLocalesIntoOneElement(t *testing.T) {
	ctx := context.Background()
	store := elements.NewService(elements.NewMemoryRepository())
	docs, err := NewLoader(seedFS(), LoaderConfig{}).LoadDirectory(ctx, ".")
	if err != nil {
		t.Fatalf("LoadDirectory returned error: %v", err)
	}

	importer := NewImporter(ImporterConfig{Store: store})
	result, err := importer.Import(ctx, docs, ImportOptions{})
	if err != nil {
		t.Fatalf("Import returned error: %v", err)
	}
	if len(result.Created) != 2 {
		t.Fatalf("expected 2 created elements, got %+v", result)
	}

	title, ok, err := store.Get(ctx, "home", "hero_title", "ar")
	if err != nil || !ok {
		t.Fatalf("expected published title, ok=%v err=%v", ok, err)
	}
	if title.Content != "أهلاً بكم" || title.Metadata["tag"] != "h1" {
		t.Fatalf("unexpected title %+v", title)
	}

	// The button has no status and stays a draft.
	if _, ok, _ := store.Get(ctx, "home", "hero_cta", "en"); ok {
		t.Fatalf("draft button must not be published")
	}
	working, ok, err := store.GetWorking(ctx, "home", "hero_cta", "en")
	if err != nil || !ok || working.Content != "Start" {
		t.Fatalf("expected working copy, got %+v ok=%v err=%v", working, ok, err)
	}

	again, err := importer.Import(ctx, docs, ImportOptions{})
	if err != nil {
		t.Fatalf("second Import returned error: %v", err)
	}
	if len(again.Unchanged) != 2 || len(again.Created) != 0 || len(again.Updated) != 0 {
		t.Fatalf("expected an idempotent re-import, got %+v", again)
	}
}

func TestImporterStatusOverrideAndDryRun(t *testing.T) {
	ctx := context.Background()
	store := elements.NewService(elements.NewMemoryRepository())
	docs, err := NewLoader(seedFS(), LoaderConfig{}).LoadDirectory(ctx, "en")
	if err != nil {
		t.Fatalf("LoadDirectory returned error: %v", err)
	}
	importer := NewImporter(ImporterConfig{Store: store})

	dry, err := importer.Import(ctx, docs, ImportOptions{DryRun: true})
	if err != nil {
		t.Fatalf("dry run returned error: %v", err)
	}
	if len(dry.Created) != 0 {
		t.Fatalf("dry run must not persist, got %+v", dry)
	}
	if list, _ := store.List(ctx, "home"); len(list) != 0 {
		t.Fatalf("dry run persisted %d elements", len(list))
	}

	if _, err := importer.Import(ctx, docs, ImportOptions{Status: domain.StatusPublished}); err != nil {
		t.Fatalf("Import returned error: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "home", "hero_cta", "en"); !ok {
		t.Fatalf("status override should publish the button")
	}
}

func TestImporterRejectsInconsistentGroups(t *testing.T) {
	store := elements.NewService(elements.NewMemoryRepository())
	importer := NewImporter(ImporterConfig{Store: store})

	cases := []struct {
		name string
		docs []*Document
		want error
	}{
		{
			name: "type mismatch",
			docs: []*Document{
				{Locale: domain.LocaleArabic, PageKey: "home", ElementKey: "hero", FrontMatter: FrontMatter{Type: "text"}},
				{Locale: domain.LocaleEnglish, PageKey: "home", ElementKey: "hero", FrontMatter: FrontMatter{Type: "image"}},
			},
			want: ErrTypeMismatch,
		},
		{
			name: "duplicate locale",
			docs: []*Document{
				{Locale: domain.LocaleEnglish, PageKey: "home", ElementKey: "hero", FrontMatter: FrontMatter{Type: "text"}},
				{Locale: domain.LocaleEnglish, PageKey: "Home", ElementKey: "HERO", FrontMatter: FrontMatter{Type: "text"}},
			},
			want: ErrDuplicateLocale,
		},
		{
			name: "missing type",
			docs: []*Document{{Locale: domain.LocaleEnglish, PageKey: "home", ElementKey: "hero"}},
			want: ErrElementTypeEmpty,
		},
		{
			name: "missing page",
			docs: []*Document{{Locale: domain.LocaleEnglish, ElementKey: "hero", FrontMatter: FrontMatter{Type: "text"}}},
			want: ErrAddressMissing,
		},
		{
			name: "bad status",
			docs: []*Document{{Locale: domain.LocaleEnglish, PageKey: "home", ElementKey: "hero", FrontMatter: FrontMatter{Type: "text", Status: "archived"}}},
			want: ErrStatusInvalid,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := importer.Import(context.Background(), tc.docs, ImportOptions{}); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestImporterRequiresStore(t *testing.T) {
	if _, err := NewImporter(ImporterConfig{}).Import(context.Background(), nil, ImportOptions{}); !errors.Is(err, ErrStoreRequired) {
		t.Fatalf("expected ErrStoreRequired, got %v", err)
	}
}

func TestParseFrontMatterNormalizesNestedMaps(t *testing.T) {
	source := []byte("---\ntype: button\nmetadata:\n  styling:\n    color: red\n  tags: [a, b]\n---\nGo\n")
	meta, body, err := ParseFrontMatter(source)
	if err != nil {
		t.Fatalf("ParseFrontMatter returned error: %v", err)
	}
	styling, ok := meta.Metadata["styling"].(map[string]any)
	if !ok || styling["color"] != "red" {
		t.Fatalf("expected nested string map, got %#v", meta.Metadata["styling"])
	}
	if strings.TrimSpace(string(body)) != "Go" {
		t.Fatalf("unexpected body %q", body)
	}
}
