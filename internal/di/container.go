package di

import (
	"strings"
	"time"

	"github.com/goliatone/go-nestsync/internal/audit"
	"github.com/goliatone/go-nestsync/internal/billing"
	"github.com/goliatone/go-nestsync/internal/children"
	"github.com/goliatone/go-nestsync/internal/domain"
	"github.com/goliatone/go-nestsync/internal/email"
	"github.com/goliatone/go-nestsync/internal/events"
	"github.com/goliatone/go-nestsync/internal/families"
	nshttp "github.com/goliatone/go-nestsync/internal/http"
	"github.com/goliatone/go-nestsync/internal/inventory"
	"github.com/goliatone/go-nestsync/internal/jobs"
	"github.com/goliatone/go-nestsync/internal/links"
	"github.com/goliatone/go-nestsync/internal/logging"
	"github.com/goliatone/go-nestsync/internal/logging/console"
	"github.com/goliatone/go-nestsync/internal/logging/gologger"
	"github.com/goliatone/go-nestsync/internal/notifications"
	"github.com/goliatone/go-nestsync/internal/runtimeconfig"
	"github.com/goliatone/go-nestsync/internal/scheduler"
	"github.com/goliatone/go-nestsync/internal/schemadoc"
	"github.com/goliatone/go-nestsync/internal/users"
	"github.com/goliatone/go-nestsync/pkg/activity"
	"github.com/goliatone/go-nestsync/pkg/activity/usersink"
	"github.com/goliatone/go-nestsync/pkg/interfaces"
	repocache "github.com/goliatone/go-repository-cache/cache"
	urlkit "github.com/goliatone/go-urlkit"
	"github.com/uptrace/bun"
)

// Container wires the feature services over shared infrastructure. Memory
// repositories back every service by default; supplying a Bun handle swaps in
// the persistent repositories without touching the service wiring.
type Container struct {
	Config runtimeconfig.Config

	loggerProvider interfaces.LoggerProvider
	clock          func() time.Time

	bunDB         *bun.DB
	cacheTTL      time.Duration
	cacheService  repocache.CacheService
	keySerializer repocache.KeySerializer

	userRepo    users.UserRepository
	consentRepo users.ConsentRepository

	familyRepo     families.FamilyRepository
	memberRepo     families.MemberRepository
	invitationRepo families.InvitationRepository

	childRepo children.ChildRepository

	itemRepo  inventory.ItemRepository
	usageRepo inventory.UsageRepository

	preferenceRepo   notifications.PreferenceRepository
	notificationRepo notifications.NotificationRepository

	planRepo         billing.PlanRepository
	subscriptionRepo billing.SubscriptionRepository
	recordRepo       billing.RecordRepository
	webhookRepo      billing.WebhookRepository

	scheduler interfaces.Scheduler
	auditor   audit.Recorder
	mailer    email.Mailer
	publisher events.Publisher
	natsPub   *events.NATSPublisher

	activityHooks activity.Hooks
	emitter       *activity.Emitter

	routeManager *urlkit.RouteManager
	linkBuilder  *links.Builder
	catalog      *schemadoc.Catalog

	membershipPolicy *families.MembershipPolicy

	userSvc         users.Service
	familySvc       families.Service
	childSvc        children.Service
	inventorySvc    inventory.Service
	notificationSvc notifications.Service
	billingSvc      billing.Service

	worker *jobs.Worker

	httpAPI       *nshttp.API
	authenticator *nshttp.Authenticator

	commandSubs []func()
}

// Option customizes container construction.
type Option func(*Container)

func WithBunDB(db *bun.DB) Option {
	return func(c *Container) {
		c.bunDB = db
	}
}

// WithCache overrides the repository cache service and key serializer used by
// the Bun-backed hot-path repositories.
func WithCache(service repocache.CacheService, serializer repocache.KeySerializer) Option {
	return func(c *Container) {
		c.cacheService = service
		c.keySerializer = serializer
	}
}

// WithLoggerProvider overrides the logger provider selected from configuration.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		c.loggerProvider = provider
	}
}

// WithClock overrides the time source shared by every service.
func WithClock(clock func() time.Time) Option {
	return func(c *Container) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithScheduler overrides the job scheduler binding.
func WithScheduler(s interfaces.Scheduler) Option {
	return func(c *Container) {
		c.scheduler = s
	}
}

// WithAuditRecorder overrides the audit sink used by guarded operations.
func WithAuditRecorder(recorder audit.Recorder) Option {
	return func(c *Container) {
		c.auditor = recorder
	}
}

// WithMailer overrides the outbound email transport.
func WithMailer(mailer email.Mailer) Option {
	return func(c *Container) {
		c.mailer = mailer
	}
}

// WithEventPublisher overrides the event bus binding.
func WithEventPublisher(publisher events.Publisher) Option {
	return func(c *Container) {
		c.publisher = publisher
	}
}

// WithActivityHooks registers activity hooks and enables the activity emitter.
func WithActivityHooks(hooks activity.Hooks) Option {
	return func(c *Container) {
		c.activityHooks = hooks
	}
}

// WithUserActivitySink bridges activity events into a go-users activity log.
func WithUserActivitySink(sink interfaces.ActivitySink) Option {
	return func(c *Container) {
		c.activityHooks = append(c.activityHooks, usersink.Hook{Sink: sink})
	}
}

// WithSchemaCatalog overrides the schema catalog published at bootstrap.
func WithSchemaCatalog(catalog *schemadoc.Catalog) Option {
	return func(c *Container) {
		c.catalog = catalog
	}
}

// WithUserService overrides the default user service binding.
func WithUserService(svc users.Service) Option {
	return func(c *Container) {
		c.userSvc = svc
	}
}

// WithFamilyService overrides the default family service binding.
func WithFamilyService(svc families.Service) Option {
	return func(c *Container) {
		c.familySvc = svc
	}
}

// WithChildService overrides the default child service binding.
func WithChildService(svc children.Service) Option {
	return func(c *Container) {
		c.childSvc = svc
	}
}

func WithInventoryService(svc inventory.Service) Option {
	return func(c *Container) {
		c.inventorySvc = svc
	}
}

func WithNotificationService(svc notifications.Service) Option {
	return func(c *Container) {
		c.notificationSvc = svc
	}
}

// WithBillingService overrides the default billing service binding.
func WithBillingService(svc billing.Service) Option {
	return func(c *Container) {
		c.billingSvc = svc
	}
}

// NewContainer creates a container with the provided configuration.
func NewContainer(cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cacheTTL := cfg.Cache.DefaultTTL
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}

	c := &Container{
		Config:           cfg,
		clock:            time.Now,
		cacheTTL:         cacheTTL,
		publisher:        events.NewNoOpPublisher(),
		userRepo:         users.NewMemoryUserRepository(),
		consentRepo:      users.NewMemoryConsentRepository(),
		familyRepo:       families.NewMemoryFamilyRepository(),
		memberRepo:       families.NewMemoryMemberRepository(),
		invitationRepo:   families.NewMemoryInvitationRepository(),
		childRepo:        children.NewMemoryChildRepository(),
		itemRepo:         inventory.NewMemoryItemRepository(),
		usageRepo:        inventory.NewMemoryUsageRepository(),
		preferenceRepo:   notifications.NewMemoryPreferenceRepository(),
		notificationRepo: notifications.NewMemoryNotificationRepository(),
		planRepo:         billing.NewMemoryPlanRepository(),
		subscriptionRepo: billing.NewMemorySubscriptionRepository(),
		recordRepo:       billing.NewMemoryBillingRecordRepository(),
		webhookRepo:      billing.NewMemoryWebhookRepository(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if err := c.configureLoggerProvider(); err != nil {
		return nil, err
	}

	c.configureCacheDefaults()
	c.configureRepositories()
	c.configureScheduler()
	c.configureAudit()
	if err := c.configureEvents(); err != nil {
		return nil, err
	}
	c.configureDelivery()
	c.configureLinks()
	c.configureActivity()

	if c.catalog == nil {
		c.catalog = schemadoc.NewCatalog(nil, "")
	}

	if c.userSvc == nil {
		c.userSvc = users.NewService(
			c.userRepo,
			c.consentRepo,
			users.WithClock(c.clock),
			users.WithLogger(logging.UsersLogger(c.loggerProvider)),
			users.WithDeleteHook(c.userDeleteCascade()),
		)
	}

	if c.notificationSvc == nil {
		deliveryLog := logging.NotificationsLogger(c.loggerProvider)
		notifyOpts := []notifications.ServiceOption{
			notifications.WithClock(c.clock),
			notifications.WithLogger(deliveryLog),
			notifications.WithConsentChecker(c.userSvc),
			notifications.WithChannelSender(domain.ChannelEmail, notifications.NewEmailSender(c.mailer, c.userSvc, deliveryLog)),
			notifications.WithChannelSender(domain.ChannelPush, notifications.NewPushSender(c.publisher, deliveryLog)),
		}
		if c.emitter != nil {
			notifyOpts = append(notifyOpts, notifications.WithActivityEmitter(c.emitter))
		}
		if c.linkBuilder != nil {
			notifyOpts = append(notifyOpts, notifications.WithWebLinker(c.linkBuilder))
		}
		c.notificationSvc = notifications.NewService(c.preferenceRepo, c.notificationRepo, c.userSvc, notifyOpts...)
	}

	if c.familySvc == nil {
		var linker notifications.InviteLinker
		if c.linkBuilder != nil {
			linker = c.linkBuilder
		}
		notifier := notifications.NewInviteNotifier(
			c.notificationSvc,
			c.userSvc,
			c.mailer,
			linker,
			logging.NotificationsLogger(c.loggerProvider),
		)

		famOpts := []families.ServiceOption{
			families.WithClock(c.clock),
			families.WithLogger(logging.FamiliesLogger(c.loggerProvider)),
			families.WithScheduler(c.scheduler),
			families.WithInviteNotifier(notifier),
		}
		if c.emitter != nil {
			famOpts = append(famOpts, families.WithActivityEmitter(c.emitter))
		}
		c.familySvc = families.NewService(c.familyRepo, c.memberRepo, c.invitationRepo, famOpts...)
	}

	if c.membershipPolicy == nil {
		c.membershipPolicy = families.NewMembershipPolicy(c.familySvc)
	}

	if c.childSvc == nil {
		childOpts := []children.ServiceOption{
			children.WithClock(c.clock),
			children.WithLogger(logging.ChildrenLogger(c.loggerProvider)),
			children.WithConsentChecker(c.userSvc),
			children.WithAccessPolicy(c.membershipPolicy),
			children.WithDeleteHook(c.childDeleteCascade()),
		}
		if c.auditor != nil {
			childOpts = append(childOpts, children.WithAuditRecorder(c.auditor))
		}
		if c.emitter != nil {
			childOpts = append(childOpts, children.WithActivityEmitter(c.emitter))
		}
		c.childSvc = children.NewService(c.childRepo, childOpts...)
	}

	if c.inventorySvc == nil {
		members := c.caregiverDirectory()
		invOpts := []inventory.ServiceOption{
			inventory.WithClock(c.clock),
			inventory.WithLogger(logging.InventoryLogger(c.loggerProvider)),
			inventory.WithConsentChecker(c.userSvc),
			inventory.WithAccessPolicy(c.membershipPolicy),
			inventory.WithEventPublisher(c.publisher),
			inventory.WithLowStockAlerter(notifications.NewLowStockAlerter(c.notificationSvc, members, logging.NotificationsLogger(c.loggerProvider))),
			inventory.WithSizeAdvisoryAlerter(notifications.NewSizeAdvisoryAlerter(c.notificationSvc, members, logging.NotificationsLogger(c.loggerProvider))),
			inventory.WithThresholdResolver(notifications.NewFamilyThresholds(c.preferenceRepo)),
		}
		if c.emitter != nil {
			invOpts = append(invOpts, inventory.WithActivityEmitter(c.emitter))
		}
		c.inventorySvc = inventory.NewService(c.itemRepo, c.usageRepo, c.childSvc, invOpts...)
	}

	if c.billingSvc == nil {
		broadcaster := notifications.NewFamilyBroadcaster(
			c.notificationSvc,
			c.caregiverDirectory(),
			logging.NotificationsLogger(c.loggerProvider),
		)

		billOpts := []billing.ServiceOption{
			billing.WithClock(c.clock),
			billing.WithLogger(logging.BillingLogger(c.loggerProvider)),
			billing.WithAccessPolicy(c.membershipPolicy),
			billing.WithProvinceResolver(c.provinceResolver()),
			billing.WithFamilyNotifier(broadcaster),
			billing.WithScheduler(c.scheduler),
		}
		if c.Config.Features.Billing {
			billOpts = append(billOpts, billing.WithWebhookSecret(c.Config.Billing.WebhookSecret))
		}
		if c.auditor != nil {
			billOpts = append(billOpts, billing.WithAuditRecorder(c.auditor))
		}
		if c.emitter != nil {
			billOpts = append(billOpts, billing.WithActivityEmitter(c.emitter))
		}
		billOpts = append(billOpts, billing.WithEventPublisher(c.publisher))
		c.billingSvc = billing.NewService(c.planRepo, c.subscriptionRepo, c.recordRepo, c.webhookRepo, billOpts...)
	}

	if c.worker == nil {
		workerOpts := []jobs.Option{
			jobs.WithLogger(logging.JobsLogger(c.loggerProvider)),
			jobs.WithClock(c.clock),
		}
		if c.auditor != nil {
			workerOpts = append(workerOpts, jobs.WithAuditRecorder(c.auditor))
		}
		if batch := c.Config.Notifications.DispatchBatch; batch > 0 {
			workerOpts = append(workerOpts, jobs.WithDispatchBatchSize(batch))
		}
		if every := c.Config.Notifications.DispatchInterval; every > 0 {
			workerOpts = append(workerOpts, jobs.WithDispatchInterval(every))
		}
		c.worker = jobs.NewWorker(c.scheduler, c.billingSvc, c.notificationSvc, c.inventorySvc, c.familySvc, workerOpts...)
	}

	c.configureCommands()

	return c, nil
}

func (c *Container) configureLoggerProvider() error {
	if c.loggerProvider != nil {
		return nil
	}

	if c.Config.Features.Logger && strings.EqualFold(strings.TrimSpace(c.Config.Logging.Provider), "gologger") {
		provider, err := gologger.NewProvider(gologger.Config{
			Level:     c.Config.Logging.Level,
			Format:    c.Config.Logging.Format,
			AddSource: c.Config.Logging.AddSource,
			Focus:     c.Config.Logging.Focus,
		})
		if err != nil {
			return err
		}
		c.loggerProvider = provider
		return nil
	}

	consoleOpts := console.Options{}
	if level, ok := console.ParseLevel(c.Config.Logging.Level); ok {
		consoleOpts.MinLevel = &level
	}
	c.loggerProvider = console.NewProvider(consoleOpts)
	return nil
}

func (c *Container) configureCacheDefaults() {
	if !c.Config.Cache.Enabled {
		return
	}

	if c.cacheService == nil {
		cacheCfg := repocache.DefaultConfig()
		if c.cacheTTL > 0 {
			cacheCfg.TTL = c.cacheTTL
		}
		service, err := repocache.NewCacheService(cacheCfg)
		if err == nil {
			c.cacheService = service
		}
	}

	if c.cacheService != nil && c.keySerializer == nil {
		c.keySerializer = repocache.NewDefaultKeySerializer()
	}
}

func (c *Container) configureRepositories() {
	if c.bunDB == nil {
		return
	}

	if c.cacheService != nil && c.keySerializer != nil && c.Config.Cache.Enabled {
		c.userRepo = users.NewBunUserRepositoryWithCache(c.bunDB, c.cacheService, c.keySerializer)
		c.familyRepo = families.NewBunFamilyRepositoryWithCache(c.bunDB, c.cacheService, c.keySerializer)
		c.planRepo = billing.NewBunPlanRepositoryWithCache(c.bunDB, c.cacheService, c.keySerializer)
	} else {
		c.userRepo = users.NewBunUserRepository(c.bunDB)
		c.familyRepo = families.NewBunFamilyRepository(c.bunDB)
		c.planRepo = billing.NewBunPlanRepository(c.bunDB)
	}

	c.consentRepo = users.NewBunConsentRepository(c.bunDB)
	c.memberRepo = families.NewBunMemberRepository(c.bunDB)
	c.invitationRepo = families.NewBunInvitationRepository(c.bunDB)
	c.childRepo = children.NewBunChildRepository(c.bunDB)
	c.itemRepo = inventory.NewBunItemRepository(c.bunDB)
	c.usageRepo = inventory.NewBunUsageRepository(c.bunDB)
	c.preferenceRepo = notifications.NewBunPreferenceRepository(c.bunDB)
	c.notificationRepo = notifications.NewBunNotificationRepository(c.bunDB)
	c.subscriptionRepo = billing.NewBunSubscriptionRepository(c.bunDB)
	c.recordRepo = billing.NewBunBillingRecordRepository(c.bunDB)
	c.webhookRepo = billing.NewBunWebhookRepository(c.bunDB)
}

func (c *Container) configureScheduler() {
	log := logging.SchedulerLogger(c.loggerProvider)

	if c.scheduler != nil {
		log.Info("scheduler.configured", "provider", "external")
		return
	}

	if !c.Config.Features.Scheduling {
		c.scheduler = scheduler.NewNoOp()
		log.Info("scheduler.configured", "provider", "no-op")
		return
	}

	c.scheduler = scheduler.NewInMemory(scheduler.WithClock(c.clock))
	log.Info("scheduler.configured", "provider", "in-memory")
}

func (c *Container) configureAudit() {
	if c.auditor != nil || !c.Config.Features.Audit {
		return
	}

	if c.bunDB != nil {
		c.auditor = audit.NewBunRecorder(c.bunDB)
		return
	}
	c.auditor = audit.NewInMemoryRecorder()
}

// configureEvents dials NATS when the events feature is on and no publisher
// override was supplied. Runs before configureDelivery so the push sender
// picks up the live bus.
func (c *Container) configureEvents() error {
	if !c.Config.Features.Events {
		return nil
	}
	if _, isNoop := c.publisher.(*events.NoOpPublisher); !isNoop {
		return nil
	}

	conn, err := events.Connect(c.Config.Events.URL)
	if err != nil {
		return err
	}
	logger := logging.ModuleLogger(c.loggerProvider, "nestsync.events")
	c.natsPub = events.NewNATSPublisher(conn, events.WithLogger(logger))
	c.publisher = c.natsPub
	logger.Info("event bus connected", "url", c.Config.Events.URL, "subject", c.Config.Events.Subject)
	return nil
}

func (c *Container) configureDelivery() {
	if c.mailer == nil {
		c.mailer = email.NewNoOpMailer(logging.NotificationsLogger(c.loggerProvider))
	}
	if c.publisher == nil {
		c.publisher = events.NewNoOpPublisher()
	}
}

func (c *Container) configureLinks() {
	if c.linkBuilder != nil {
		return
	}

	linkCfg := c.Config.Links
	routeCfg := linkCfg.RouteConfig
	if routeCfg == nil {
		if strings.TrimSpace(linkCfg.WebBaseURL) == "" {
			return
		}
		routeCfg = links.DefaultRouteConfig(linkCfg.WebBaseURL)
	}

	manager := urlkit.NewRouteManager(routeCfg)
	c.routeManager = manager
	c.linkBuilder = links.NewBuilder(links.BuilderOptions{Manager: manager})
}

func (c *Container) configureActivity() {
	if c.emitter != nil || len(c.activityHooks) == 0 {
		return
	}

	c.emitter = activity.NewEmitter(c.activityHooks, activity.Config{
		Enabled: true,
		Channel: "nestsync",
		Clock:   c.clock,
	})
}

// UserService exposes the account and consent service.
func (c *Container) UserService() users.Service {
	return c.userSvc
}

// FamilyService exposes the family and invitation service.
func (c *Container) FamilyService() families.Service {
	return c.familySvc
}

// ChildService exposes the child profile service.
func (c *Container) ChildService() children.Service {
	return c.childSvc
}

// InventoryService exposes the stock tracking service.
func (c *Container) InventoryService() inventory.Service {
	return c.inventorySvc
}

// NotificationService exposes the preference and delivery service.
func (c *Container) NotificationService() notifications.Service {
	return c.notificationSvc
}

// BillingService exposes the subscription and webhook service.
func (c *Container) BillingService() billing.Service {
	return c.billingSvc
}

// Worker exposes the background job worker.
func (c *Container) Worker() *jobs.Worker {
	return c.worker
}

// Scheduler exposes the configured job scheduler.
func (c *Container) Scheduler() interfaces.Scheduler {
	return c.scheduler
}

// AuditRecorder exposes the audit sink, nil when auditing is disabled.
func (c *Container) AuditRecorder() audit.Recorder {
	return c.auditor
}

// Mailer exposes the outbound email transport.
func (c *Container) Mailer() email.Mailer {
	return c.mailer
}

// EventPublisher exposes the event bus binding.
func (c *Container) EventPublisher() events.Publisher {
	return c.publisher
}

// LinkBuilder exposes the web link builder, nil when no base URL is configured.
func (c *Container) LinkBuilder() *links.Builder {
	return c.linkBuilder
}

// RouteManager exposes the underlying urlkit route manager.
func (c *Container) RouteManager() *urlkit.RouteManager {
	return c.routeManager
}

// SchemaCatalog exposes the schema catalog published at bootstrap.
func (c *Container) SchemaCatalog() *schemadoc.Catalog {
	return c.catalog
}

// MembershipPolicy exposes the family access policy shared by guarded services.
func (c *Container) MembershipPolicy() *families.MembershipPolicy {
	return c.membershipPolicy
}

// LoggerProvider exposes the configured logger provider.
func (c *Container) LoggerProvider() interfaces.LoggerProvider {
	return c.loggerProvider
}

// HTTPAPI lazily assembles the HTTP facade over the wired services.
func (c *Container) HTTPAPI() *nshttp.API {
	if c.httpAPI != nil {
		return c.httpAPI
	}

	if c.authenticator == nil {
		c.authenticator = nshttp.NewAuthenticator(nshttp.AuthenticatorOptions{
			Secret:   c.Config.Auth.Secret,
			Issuer:   c.Config.Auth.Issuer,
			Audience: c.Config.Auth.Audience,
			DevMode:  c.Config.Auth.DevMode,
			Users:    c.userSvc,
			Families: c.familySvc,
			Logger:   logging.HTTPLogger(c.loggerProvider),
			Clock:    c.clock,
		})
	}

	apiOpts := []nshttp.Option{
		nshttp.WithBasePath(c.Config.Server.BasePath),
		nshttp.WithAuthenticator(c.authenticator),
		nshttp.WithUserService(c.userSvc),
		nshttp.WithFamilyService(c.familySvc),
		nshttp.WithChildService(c.childSvc),
		nshttp.WithInventoryService(c.inventorySvc),
		nshttp.WithNotificationService(c.notificationSvc),
		nshttp.WithBillingService(c.billingSvc),
		nshttp.WithSchemaCatalog(c.catalog),
		nshttp.WithWebhookLimits(c.Config.Server.WebhookRPS, c.Config.Server.WebhookBurst),
		nshttp.WithWebhookMaxBody(c.Config.Server.MaxBodyBytes),
		nshttp.WithInfo(nshttp.Info{
			Name:        "nestsync",
			Version:     "dev",
			Environment: c.Config.Environment,
			Features:    c.enabledFeatures(),
		}),
		nshttp.WithLogger(logging.HTTPLogger(c.loggerProvider)),
	}
	if c.bunDB != nil {
		apiOpts = append(apiOpts, nshttp.WithPinger(c.bunDB))
	}

	c.httpAPI = nshttp.New(apiOpts...)
	return c.httpAPI
}

func (c *Container) enabledFeatures() []string {
	features := []string{}
	if c.Config.Features.Billing {
		features = append(features, "billing")
	}
	if c.Config.Features.Notifications {
		features = append(features, "notifications")
	}
	if c.Config.Features.Events {
		features = append(features, "events")
	}
	if c.Config.Features.Audit {
		features = append(features, "audit")
	}
	if c.Config.Features.Scheduling {
		features = append(features, "scheduling")
	}
	return features
}

// Close releases command subscriptions registered by the container.
func (c *Container) Close() {
	for _, unsub := range c.commandSubs {
		unsub()
	}
	c.commandSubs = nil
	if c.natsPub != nil {
		c.natsPub.Close()
		c.natsPub = nil
	}
}
