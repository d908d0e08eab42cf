package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	cmsinline "github.com/goliatone/go-cms-inline"
	"github.com/goliatone/go-cms-inline/internal/collections"
	"github.com/goliatone/go-cms-inline/internal/di"
	"github.com/goliatone/go-cms-inline/internal/domain"
	"github.com/goliatone/go-cms-inline/internal/editors"
	"github.com/goliatone/go-cms-inline/internal/permissions"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := cmsinline.DefaultConfig()
	if path := os.Getenv("CMS_INLINE_CONFIG"); path != "" {
		loaded, err := cmsinline.LoadConfig(path)
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
		cfg = loaded
	} else {
		cfg.Storage = cmsinline.StorageConfig{
			Provider: "bun",
			Driver:   "sqlite3",
			DSN:      "file:cms_inline_example?mode=memory&cache=shared",
		}
		cfg.Cache.Enabled = true
		cfg.Features.Logger = true
		cfg.Features.Telemetry = true
		cfg.Logging.Format = "console"
	}

	registry := prometheus.NewRegistry()
	module, err := cmsinline.New(cfg, di.WithRegisterer(registry))
	if err != nil {
		log.Fatalf("initialise cms: %v", err)
	}
	defer module.Close()

	editorCtx := permissions.WithPermissions(ctx,
		permissions.ElementsRead, permissions.ElementsUpdate, permissions.ElementsPublish,
		permissions.CollectionsRead, permissions.CollectionsUpdate, permissions.CollectionsPublish,
	)
	if err := seedHero(editorCtx, module); err != nil {
		log.Fatalf("seed hero: %v", err)
	}
	if err := editBadge(editorCtx, module); err != nil {
		log.Fatalf("edit badge: %v", err)
	}

	mux := http.NewServeMux()
	if err := module.RegisterHTTP(mux); err != nil {
		log.Fatalf("register http: %v", err)
	}
	mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	addr := os.Getenv("CMS_INLINE_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	server := &http.Server{
		Addr:              addr,
		Handler:           grantEditor(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.Printf("hero title (ar): %s", module.Resolve(ctx, "home", "hero_title", cmsinline.LocaleArabic, "…"))
	log.Printf("hero badge (en): %s", module.Resolve(ctx, "home", "hero_badge", cmsinline.LocaleEnglish, "…"))
	log.Printf("listening on %s", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("serve: %v", err)
	}
}

func seedHero(ctx context.Context, module *cmsinline.Module) error {
	store := module.Elements()
	seeds := []cmsinline.UpsertRequest{
		{
			PageKey: "home", ElementKey: "hero_title", ElementType: domain.ElementText,
			ContentAr: "منصة المحتوى", ContentEn: "The content platform",
			Metadata: map[string]any{"tag": "h1"},
			Status:   cmsinline.StatusPublished,
		},
		{
			PageKey: "home", ElementKey: "hero_cta", ElementType: domain.ElementButton,
			ContentAr: "ابدأ الآن", ContentEn: "Get started",
			Metadata: map[string]any{"url": "/signup", "variant": "primary"},
			Status:   cmsinline.StatusPublished,
		},
	}
	for _, req := range seeds {
		if _, err := store.Upsert(ctx, req); err != nil {
			return err
		}
	}

	coll, err := collections.New([]collections.HeroElement{
		collections.Text{
			Base:    collections.Base{ElementKey: "hero_title", Visible: true},
			Content: editors.Localized{Ar: "منصة المحتوى", En: "The content platform"},
		},
		collections.Button{
			Base:  collections.Base{ElementKey: "hero_cta", Visible: true},
			Label: editors.Localized{Ar: "ابدأ الآن", En: "Get started"},
		},
	})
	if err != nil {
		return err
	}
	_, err = module.Collections().Save(ctx, "home", "hero", coll, cmsinline.StatusPublished)
	return err
}

// editBadge runs one inline editing session end to end.
func editBadge(ctx context.Context, module *cmsinline.Module) error {
	ctrl := module.NewSession()
	defer ctrl.Close()

	ref := cmsinline.ElementRef{PageKey: "home", ElementKey: "hero_badge"}
	if _, err := ctrl.Open(ctx, ref, domain.ElementText); err != nil {
		return err
	}
	for _, update := range []editors.Update{
		editors.ContentUpdate(cmsinline.LocaleArabic, "جديد"),
		editors.ContentUpdate(cmsinline.LocaleEnglish, "New"),
	} {
		if _, err := ctrl.Edit(ctx, update); err != nil {
			return err
		}
	}
	_, err := ctrl.Publish(ctx)
	return err
}

// grantEditor stands in for a host authentication layer.
func grantEditor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := permissions.WithPermissions(r.Context(), "elements:*", "collections:*")
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
