package di

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	repocache "github.com/goliatone/go-repository-cache/cache"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/goliatone/go-cms-inline/internal/autosave"
	"github.com/goliatone/go-cms-inline/internal/collections"
	"github.com/goliatone/go-cms-inline/internal/commands"
	"github.com/goliatone/go-cms-inline/internal/editors"
	"github.com/goliatone/go-cms-inline/internal/elements"
	cmshttp "github.com/goliatone/go-cms-inline/internal/http"
	"github.com/goliatone/go-cms-inline/internal/logging"
	"github.com/goliatone/go-cms-inline/internal/logging/gologger"
	"github.com/goliatone/go-cms-inline/internal/notify"
	"github.com/goliatone/go-cms-inline/internal/permissions"
	"github.com/goliatone/go-cms-inline/internal/runtimeconfig"
	"github.com/goliatone/go-cms-inline/internal/scheduler"
	"github.com/goliatone/go-cms-inline/internal/session"
	"github.com/goliatone/go-cms-inline/internal/telemetry"
	"github.com/goliatone/go-cms-inline/internal/validation"
	"github.com/goliatone/go-cms-inline/pkg/activity"
	"github.com/goliatone/go-cms-inline/pkg/activity/usersink"
	"github.com/goliatone/go-cms-inline/pkg/interfaces"
)

var ErrMuxRequired = errors.New("di: http mux is required")

// Container wires configuration into repositories, services and the session
// controller factory.
type Container struct {
	Config runtimeconfig.Config

	loggerProvider interfaces.LoggerProvider
	logger         interfaces.Logger
	scheduler      interfaces.TaskScheduler

	broadcaster  *notify.Broadcaster
	notifier     interfaces.Notifier
	activityHook activity.Hook
	registerer   prometheus.Registerer
	metrics      *telemetry.Metrics

	gate        interfaces.CapabilityGate
	publishGate interfaces.CapabilityGate
	confirmer   interfaces.Confirmer

	bunDB         *bun.DB
	ownsDB        bool
	cacheTTL      time.Duration
	cacheService  repocache.CacheService
	keySerializer repocache.KeySerializer

	elementRepo   elements.Repository
	elementSvc    elements.Service
	collectionSvc *collections.Service
	schemas       *validation.Registry
	validator     *editors.Validator
	previewer     *editors.Previewer
}

// Option mutates the container before it is finalised.
type Option func(*Container)

// WithLoggerProvider overrides the provider built from the logging config.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		c.loggerProvider = provider
	}
}

// WithBunDB binds the element repository to db. The container does not close it.
func WithBunDB(db *bun.DB) Option {
	return func(c *Container) {
		c.bunDB = db
	}
}

// WithCache overrides the default cache service.
func WithCache(service repocache.CacheService, serializer repocache.KeySerializer) Option {
	return func(c *Container) {
		c.cacheService = service
		c.keySerializer = serializer
	}
}

// WithScheduler overrides the realtime scheduler used by autosave managers.
func WithScheduler(s interfaces.TaskScheduler) Option {
	return func(c *Container) {
		c.scheduler = s
	}
}

// WithNotifier adds a notification sink next to the built-in ones.
func WithNotifier(n interfaces.Notifier) Option {
	return func(c *Container) {
		c.notifier = n
	}
}

// WithActivityHook sets the audit trail hook used when the activity feature is on.
func WithActivityHook(hook activity.Hook) Option {
	return func(c *Container) {
		c.activityHook = hook
	}
}

// WithActivitySink records activity on a go-users activity sink.
func WithActivitySink(sink interfaces.ActivitySink) Option {
	return func(c *Container) {
		if sink != nil {
			c.activityHook = usersink.Hook{Sink: sink}
		}
	}
}

// WithRegisterer sets the prometheus registerer used when telemetry is on.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(c *Container) {
		c.registerer = reg
	}
}

// WithGate overrides the edit capability gate.
func WithGate(gate interfaces.CapabilityGate) Option {
	return func(c *Container) {
		c.gate = gate
	}
}

// WithPublishGate overrides the publish capability gate.
func WithPublishGate(gate interfaces.CapabilityGate) Option {
	return func(c *Container) {
		c.publishGate = gate
	}
}

// WithConfirmer sets the prompt used before discarding unsaved changes.
func WithConfirmer(confirmer interfaces.Confirmer) Option {
	return func(c *Container) {
		c.confirmer = confirmer
	}
}

// WithElementService overrides the element store binding.
func WithElementService(svc elements.Service) Option {
	return func(c *Container) {
		c.elementSvc = svc
	}
}

// NewContainer validates cfg and builds the container.
func NewContainer(cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cacheTTL := cfg.Cache.DefaultTTL.Std()
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}

	c := &Container{
		Config:   cfg,
		cacheTTL: cacheTTL,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	if err := c.configureLogger(); err != nil {
		return nil, err
	}
	c.configurePermissions()
	if err := c.configureStorage(); err != nil {
		return nil, err
	}
	c.configureCacheDefaults()
	c.configureRepositories()
	if err := c.configureServices(); err != nil {
		return nil, err
	}
	c.configureNotifications()

	c.logger.Info("container.configured",
		"storage", c.storageName(),
		"cache", c.cacheService != nil,
		"telemetry", c.metrics != nil,
		"activity", c.activityHook != nil && cfg.Features.Activity,
	)
	return c, nil
}

func (c *Container) configureLogger() error {
	if c.loggerProvider == nil && c.Config.Features.Logger {
		switch strings.ToLower(strings.TrimSpace(c.Config.Logging.Provider)) {
		case "gologger":
			provider, err := gologger.NewProvider(gologger.Config{
				Level:     c.Config.Logging.Level,
				Format:    c.Config.Logging.Format,
				AddSource: c.Config.Logging.AddSource,
				Focus:     c.Config.Logging.Focus,
			})
			if err != nil {
				return fmt.Errorf("di: configure logger: %w", err)
			}
			c.loggerProvider = provider
		case "noop":
		}
	}
	c.logger = logging.ModuleLogger(c.loggerProvider, "cms.container")
	return nil
}

func (c *Container) configurePermissions() {
	permissions.ConfigurePageScope(permissions.PageScopeConfig{
		Enabled:  c.Config.Editing.PageScopedPermissions,
		Strategy: permissions.StrategyByName(c.Config.Editing.ScopeStrategy),
	})
	if c.gate == nil {
		c.gate = permissions.Gate(permissions.ElementsUpdate)
	}
	if c.publishGate == nil {
		c.publishGate = permissions.Gate(permissions.ElementsPublish)
	}
}

func (c *Container) configureStorage() error {
	if c.bunDB == nil && strings.EqualFold(strings.TrimSpace(c.Config.Storage.Provider), runtimeconfig.StorageBun) {
		db, err := OpenDB(c.Config.Storage)
		if err != nil {
			return err
		}
		c.bunDB = db
		c.ownsDB = true
	}
	if c.bunDB == nil {
		return nil
	}
	if err := elements.CreateSchema(context.Background(), c.bunDB); err != nil {
		if c.ownsDB {
			_ = c.bunDB.Close()
		}
		return err
	}
	return nil
}

// OpenDB opens a bun handle for the configured driver.
func OpenDB(cfg runtimeconfig.StorageConfig) (*bun.DB, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	sqldb, err := sql.Open(driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("di: open %s: %w", driver, err)
	}
	switch driver {
	case runtimeconfig.DriverSQLite:
		sqldb.SetMaxOpenConns(1)
		return bun.NewDB(sqldb, sqlitedialect.New()), nil
	case runtimeconfig.DriverPostgres:
		return bun.NewDB(sqldb, pgdialect.New()), nil
	default:
		_ = sqldb.Close()
		return nil, fmt.Errorf("%w: %s", runtimeconfig.ErrStorageDriverUnknown, driver)
	}
}

func (c *Container) configureCacheDefaults() {
	if !c.Config.Cache.Enabled {
		return
	}

	if c.cacheService == nil {
		cfg := repocache.DefaultConfig()
		if c.cacheTTL > 0 {
			cfg.TTL = c.cacheTTL
		}
		service, err := repocache.NewCacheService(cfg)
		if err == nil {
			c.cacheService = service
		} else {
			c.logger.Warn("cache.disabled", "error", err)
		}
	}

	if c.cacheService != nil && c.keySerializer == nil {
		c.keySerializer = repocache.NewDefaultKeySerializer()
	}
}

func (c *Container) configureRepositories() {
	switch {
	case c.bunDB != nil && c.cacheService != nil:
		c.elementRepo = elements.NewBunRepositoryWithCache(c.bunDB, c.cacheService, c.keySerializer)
	case c.bunDB != nil:
		c.elementRepo = elements.NewBunRepository(c.bunDB)
	default:
		c.elementRepo = elements.NewMemoryRepository()
	}
}

func (c *Container) configureServices() error {
	registry, err := validation.NewDefaultRegistry()
	if err != nil {
		return fmt.Errorf("di: metadata schemas: %w", err)
	}
	c.schemas = registry
	c.validator = editors.NewValidator(registry)

	if c.elementSvc == nil {
		c.elementSvc = elements.NewService(c.elementRepo,
			elements.WithLogger(logging.ElementsLogger(c.loggerProvider)),
			elements.WithMetadataValidator(c.validator),
			elements.WithDefaultLocale(c.Config.DefaultLocale),
			elements.WithSubscriberBuffer(c.Config.Editing.NotificationBuffer),
		)
	}
	c.collectionSvc = collections.NewService(c.elementSvc,
		collections.WithLogger(logging.CollectionsLogger(c.loggerProvider)),
	)
	if c.Config.Features.RichText {
		c.previewer = editors.NewPreviewer(editors.PreviewOptions{HardWraps: true})
	}
	if c.scheduler == nil {
		c.scheduler = scheduler.NewRealtime()
	}
	return nil
}

func (c *Container) configureNotifications() {
	c.broadcaster = notify.NewBroadcaster()
	sinks := []interfaces.Notifier{
		notify.NewLogNotifier(logging.ModuleLogger(c.loggerProvider, "cms.notify")),
	}
	if c.Config.Features.Activity && c.activityHook != nil {
		sinks = append(sinks, notify.NewActivityNotifier(c.activityHook, logging.ModuleLogger(c.loggerProvider, "cms.activity")))
	}
	if c.notifier != nil {
		sinks = append(sinks, c.notifier)
	}
	// Subscribers hear about an outcome after it reached the audit trail.
	c.notifier = notify.Multi(append(sinks, c.broadcaster)...)

	if c.Config.Features.Telemetry {
		c.metrics = telemetry.NewMetrics(c.registerer)
	}
}

func (c *Container) storageName() string {
	switch {
	case c.bunDB == nil:
		return runtimeconfig.StorageMemory
	case c.ownsDB:
		return runtimeconfig.StorageBun + ":" + strings.ToLower(c.Config.Storage.Driver)
	default:
		return runtimeconfig.StorageBun
	}
}

// AutosaveConfig converts the configured autosave section.
func (c *Container) AutosaveConfig() autosave.Config {
	cfg := c.Config.AutoSave
	return autosave.Config{
		Enabled:          cfg.Enabled,
		Interval:         cfg.Interval.Std(),
		DebounceTime:     cfg.DebounceTime.Std(),
		MaxRetries:       cfg.MaxRetries,
		OnlyOnUserAction: cfg.OnlyOnUserAction,
		RetryBackoff:     cfg.RetryBackoff.Std(),
		MaxBackoff:       cfg.MaxBackoff.Std(),
	}
}

// NewSessionController returns a controller bound to the element store and
// the configured gates, notifiers and autosave settings. opts are applied last.
func (c *Container) NewSessionController(opts ...session.Option) *session.Controller {
	autosaveOpts := []autosave.Option{
		autosave.WithScheduler(c.scheduler),
		autosave.WithNotifier(c.notifier),
		autosave.WithLogger(logging.AutosaveLogger(c.loggerProvider)),
		autosave.WithSaveTimeout(c.Config.Editing.SaveTimeout.Std()),
	}
	if c.metrics != nil {
		autosaveOpts = append(autosaveOpts, autosave.WithRecorder(c.metrics))
	}

	base := []session.Option{
		session.WithGate(c.gate),
		session.WithPublishGate(c.publishGate),
		session.WithNotifier(c.notifier),
		session.WithLogger(logging.SessionLogger(c.loggerProvider)),
		session.WithAutosave(c.AutosaveConfig(), autosaveOpts...),
		session.WithRevisionCheck(c.Config.Editing.RevisionCheck),
	}
	if c.confirmer != nil {
		base = append(base, session.WithConfirmer(c.confirmer))
	}
	if c.previewer != nil {
		base = append(base, session.WithPreviewer(c.previewer))
	}
	return session.NewController(c.elementSvc, append(base, opts...)...)
}

// RegisterHTTP mounts the admin and public APIs on mux.
func (c *Container) RegisterHTTP(mux *http.ServeMux) error {
	if mux == nil {
		return ErrMuxRequired
	}
	opts := []cmshttp.AdminOption{
		cmshttp.WithElementStore(c.elementSvc),
		cmshttp.WithCollectionService(c.collectionSvc),
		cmshttp.WithPreviewer(c.previewer),
		cmshttp.WithLogger(commands.Logger(c.loggerProvider, "admin")),
	}
	if c.metrics != nil {
		opts = append(opts, cmshttp.WithObserver(commands.RecordTo(c.metrics)))
	}
	admin := cmshttp.NewAdminAPI(opts...)
	if err := admin.Register(mux); err != nil {
		return err
	}
	return cmshttp.NewPublicAPI("", c.elementSvc, c.collectionSvc).Register(mux)
}

// Subscribe streams notifications until ctx is done.
func (c *Container) Subscribe(ctx context.Context) <-chan interfaces.Notification {
	return c.broadcaster.Subscribe(ctx, c.Config.Editing.NotificationBuffer)
}

func (c *Container) ElementService() elements.Service          { return c.elementSvc }
func (c *Container) CollectionService() *collections.Service   { return c.collectionSvc }
func (c *Container) Previewer() *editors.Previewer             { return c.previewer }
func (c *Container) Validator() *editors.Validator             { return c.validator }
func (c *Container) SchemaRegistry() *validation.Registry      { return c.schemas }
func (c *Container) Notifier() interfaces.Notifier             { return c.notifier }
func (c *Container) Scheduler() interfaces.TaskScheduler       { return c.scheduler }
func (c *Container) Metrics() *telemetry.Metrics               { return c.metrics }
func (c *Container) LoggerProvider() interfaces.LoggerProvider { return c.loggerProvider }
func (c *Container) BunDB() *bun.DB                            { return c.bunDB }
func (c *Container) CacheService() repocache.CacheService      { return c.cacheService }

// Close releases the database handle when the container opened it.
func (c *Container) Close() error {
	if c.ownsDB && c.bunDB != nil {
		return c.bunDB.Close()
	}
	return nil
}
