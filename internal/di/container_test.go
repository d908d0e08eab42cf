package di

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/goliatone/go-cms-inline/internal/domain"
	"github.com/goliatone/go-cms-inline/internal/editors"
	"github.com/goliatone/go-cms-inline/internal/elements"
	"github.com/goliatone/go-cms-inline/internal/logging/gologger"
	"github.com/goliatone/go-cms-inline/internal/permissions"
	"github.com/goliatone/go-cms-inline/internal/runtimeconfig"
	"github.com/goliatone/go-cms-inline/pkg/interfaces"
	"github.com/goliatone/go-cms-inline/pkg/testsupport"
)

func TestNewContainerDefaultsToMemoryStorage(t *testing.T) {
	container, err := NewContainer(runtimeconfig.DefaultConfig())
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}
	defer container.Close()

	if _, ok := container.elementRepo.(*elements.MemoryRepository); !ok {
		t.Fatalf("expected memory repository, got %T", container.elementRepo)
	}
	if container.BunDB() != nil || container.CacheService() != nil {
		t.Fatalf("memory storage must not open a database or cache")
	}
	if container.Previewer() == nil {
		t.Fatalf("expected previewer when rich text is enabled")
	}
	if container.Metrics() != nil {
		t.Fatalf("telemetry is disabled by default")
	}
	if container.SchemaRegistry() == nil || container.Validator() == nil {
		t.Fatalf("expected metadata validation to be wired")
	}
}

func TestNewContainerRejectsInvalidConfig(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.DefaultLocale = "fr"

	if _, err := NewContainer(cfg); !errors.Is(err, runtimeconfig.ErrDefaultLocaleInvalid) {
		t.Fatalf("expected ErrDefaultLocaleInvalid, got %v", err)
	}
}

func TestConfigureLoggerProviderUsesGoLoggerAdapter(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Features.Logger = true
	cfg.Logging.Provider = "gologger"
	cfg.Logging.Level = "debug"
	cfg.Logging.Format = "json"

	container, err := NewContainer(cfg)
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}

	provider, ok := container.loggerProvider.(*gologger.Provider)
	if !ok {
		t.Fatalf("expected go-logger provider, got %T", container.loggerProvider)
	}
	if logger := provider.GetLogger("cms.test"); logger == nil {
		t.Fatal("expected logger from go-logger provider, got nil")
	}
}

func TestNoopLoggingProviderLeavesProviderUnset(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Features.Logger = true
	cfg.Logging.Provider = "noop"

	container, err := NewContainer(cfg)
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}
	if container.LoggerProvider() != nil {
		t.Fatalf("expected no provider, got %T", container.LoggerProvider())
	}
}

func TestContainerOpensSQLiteStorageWithCache(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Storage = runtimeconfig.StorageConfig{
		Provider: runtimeconfig.StorageBun,
		Driver:   runtimeconfig.DriverSQLite,
		DSN:      "file:di_container_cache?mode=memory&cache=shared",
	}
	cfg.Cache.Enabled = true

	container, err := NewContainer(cfg)
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}
	defer container.Close()

	if container.CacheService() == nil || container.keySerializer == nil {
		t.Fatalf("expected cache service and key serializer")
	}
	if _, ok := container.elementRepo.(*elements.BunRepository); !ok {
		t.Fatalf("expected bun repository, got %T", container.elementRepo)
	}
	if got := container.storageName(); got != "bun:sqlite3" {
		t.Fatalf("expected bun:sqlite3 storage, got %q", got)
	}

	ctx := context.Background()
	svc := container.ElementService()
	if _, err := svc.Upsert(ctx, elements.UpsertRequest{
		PageKey: "home", ElementKey: "hero_badge", ElementType: domain.ElementText,
		ContentEn: "Welcome", Status: domain.StatusPublished,
	}); err != nil {
		t.Fatalf("Upsert returned error: %v", err)
	}
	content, ok, err := svc.Get(ctx, "home", "hero_badge", "en")
	if err != nil || !ok {
		t.Fatalf("Get returned ok=%v err=%v", ok, err)
	}
	if content.Content != "Welcome" {
		t.Fatalf("expected Welcome, got %q", content.Content)
	}
}

func TestContainerUsesProvidedBunDB(t *testing.T) {
	db := testsupport.NewBunDB(t)

	container, err := NewContainer(runtimeconfig.DefaultConfig(), WithBunDB(db))
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}
	if container.ownsDB {
		t.Fatalf("container must not own a provided database")
	}
	if err := container.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	// The schema was created and the handle is still usable after Close.
	if _, err := container.ElementService().Upsert(context.Background(), elements.UpsertRequest{
		PageKey: "home", ElementKey: "hero_title", ElementType: domain.ElementText, ContentAr: "أهلاً",
	}); err != nil {
		t.Fatalf("Upsert returned error: %v", err)
	}
}

func TestOpenDBRejectsUnknownDriver(t *testing.T) {
	_, err := OpenDB(runtimeconfig.StorageConfig{Driver: "mysql", DSN: "root@/cms"})
	if err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}

type recordingSink struct {
	mu      sync.Mutex
	records []interfaces.ActivityRecord
}

func (s *recordingSink) Log(_ context.Context, record interfaces.ActivityRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record)
	return nil
}

func (s *recordingSink) verbs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.records))
	for _, record := range s.records {
		out = append(out, record.Verb)
	}
	return out
}

func TestSessionControllerPublishesThroughWiredSinks(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Features.Telemetry = true
	cfg.Features.Activity = true

	reg := prometheus.NewRegistry()
	sink := &recordingSink{}
	container, err := NewContainer(cfg, WithRegisterer(reg), WithActivitySink(sink))
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}

	ctx := permissions.WithPermissions(context.Background(), permissions.ElementsUpdate, permissions.ElementsPublish)
	watch, stop := context.WithCancel(ctx)
	defer stop()
	notes := container.Subscribe(watch)

	ctrl := container.NewSessionController()
	defer ctrl.Close()

	ref := domain.ElementRef{PageKey: "home", ElementKey: "hero_badge"}
	if _, err := ctrl.Open(ctx, ref, domain.ElementText); err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if _, err := ctrl.Edit(ctx, editors.ContentUpdate(domain.LocaleEnglish, "Welcome")); err != nil {
		t.Fatalf("Edit returned error: %v", err)
	}
	if _, err := ctrl.Publish(ctx); err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}

	content, ok, err := container.ElementService().Get(ctx, "home", "hero_badge", "en")
	if err != nil || !ok || content.Content != "Welcome" {
		t.Fatalf("expected published content, got %+v ok=%v err=%v", content, ok, err)
	}

	note := <-notes
	if note.Code != "element.published" {
		t.Fatalf("expected element.published notification, got %q", note.Code)
	}
	if got := testutil.ToFloat64(container.Metrics().SavesFinished.WithLabelValues("publish", "success")); got != 1 {
		t.Fatalf("expected one successful publish, got %v", got)
	}
	if verbs := sink.verbs(); len(verbs) != 1 || verbs[0] != "publish" {
		t.Fatalf("expected one publish activity record, got %v", verbs)
	}
}

func TestSessionControllerDeniedWithoutPermissions(t *testing.T) {
	container, err := NewContainer(runtimeconfig.DefaultConfig())
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}
	ctrl := container.NewSessionController()
	defer ctrl.Close()

	ctx := permissions.WithPermissions(context.Background(), permissions.ElementsRead)
	_, err = ctrl.Open(ctx, domain.ElementRef{PageKey: "home", ElementKey: "hero_badge"}, domain.ElementText)
	if !errors.Is(err, permissions.ErrPermissionDenied) {
		t.Fatalf("expected permission denied, got %v", err)
	}
}

func TestAutosaveConfigConvertsDurations(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.AutoSave.MaxRetries = 5
	container, err := NewContainer(cfg)
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}

	got := container.AutosaveConfig()
	if got.Interval != cfg.AutoSave.Interval.Std() || got.DebounceTime != cfg.AutoSave.DebounceTime.Std() {
		t.Fatalf("unexpected durations %+v", got)
	}
	if got.MaxRetries != 5 || !got.OnlyOnUserAction {
		t.Fatalf("unexpected autosave config %+v", got)
	}
	if err := got.Validate(); err != nil {
		t.Fatalf("converted config is invalid: %v", err)
	}
}

func TestRegisterHTTPMountsAPIs(t *testing.T) {
	container, err := NewContainer(runtimeconfig.DefaultConfig())
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}
	if err := container.RegisterHTTP(nil); !errors.Is(err, ErrMuxRequired) {
		t.Fatalf("expected ErrMuxRequired, got %v", err)
	}

	mux := http.NewServeMux()
	if err := container.RegisterHTTP(mux); err != nil {
		t.Fatalf("RegisterHTTP returned error: %v", err)
	}

	body := `{"element_type":"text","content_en":"Welcome","content_ar":"مرحباً"}`
	req := httptest.NewRequest(http.MethodPost, "/admin/api/elements/home/hero_badge/publish", strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from publish, got %d (%s)", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/elements/home/hero_badge?locale=ar", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "مرحباً") {
		t.Fatalf("expected published arabic content, got %d (%s)", rec.Code, rec.Body.String())
	}
}
