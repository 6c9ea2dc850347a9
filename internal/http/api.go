package http

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/goliatone/go-nestsync/billing"
	"github.com/goliatone/go-nestsync/children"
	"github.com/goliatone/go-nestsync/families"
	"github.com/goliatone/go-nestsync/internal/logging"
	"github.com/goliatone/go-nestsync/internal/schemadoc"
	"github.com/goliatone/go-nestsync/inventory"
	"github.com/goliatone/go-nestsync/notifications"
	"github.com/goliatone/go-nestsync/pkg/interfaces"
	"github.com/goliatone/go-nestsync/users"
)

// API registers the JSON endpoints for accounts, families, children,
// inventory, notifications, and billing. Everything except health, info, and
// the billing webhook sits behind the bearer-token middleware.
type API struct {
	basePath       string
	auth           *Authenticator
	users          users.Service
	families       families.Service
	children       children.Service
	inventory      inventory.Service
	notifications  notifications.Service
	billing        billing.Service
	catalog        *schemadoc.Catalog
	pinger         Pinger
	info           Info
	webhookLimiter *webhookLimiter
	webhookMaxBody int64
	logger         interfaces.Logger
}

// Option mutates the API configuration.
type Option func(*API)

// New constructs an API instance.
func New(opts ...Option) *API {
	api := &API{
		basePath:       "/api/v1",
		webhookMaxBody: defaultWebhookMaxBody,
		info:           Info{Name: "nestsync", Version: "dev"},
		logger:         logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(api)
		}
	}
	if api.webhookLimiter == nil {
		api.webhookLimiter = newWebhookLimiter(defaultWebhookRPS, defaultWebhookBurst)
	}
	return api
}

// WithBasePath overrides the base API path (defaults to "/api/v1").
func WithBasePath(path string) Option {
	return func(api *API) {
		if api == nil {
			return
		}
		if trimmed := strings.TrimSpace(path); trimmed != "" {
			api.basePath = trimmed
		}
	}
}

// WithAuthenticator wires the bearer-token middleware.
func WithAuthenticator(auth *Authenticator) Option {
	return func(api *API) {
		if api != nil {
			api.auth = auth
		}
	}
}

// WithUserService wires the account and consent service.
func WithUserService(service users.Service) Option {
	return func(api *API) {
		if api != nil {
			api.users = service
		}
	}
}

// WithFamilyService wires the family collaboration service.
func WithFamilyService(service families.Service) Option {
	return func(api *API) {
		if api != nil {
			api.families = service
		}
	}
}

// WithChildService wires the child profile service.
func WithChildService(service children.Service) Option {
	return func(api *API) {
		if api != nil {
			api.children = service
		}
	}
}

// WithInventoryService wires the stock and usage service.
func WithInventoryService(service inventory.Service) Option {
	return func(api *API) {
		if api != nil {
			api.inventory = service
		}
	}
}

// WithNotificationService wires the preference and delivery service.
func WithNotificationService(service notifications.Service) Option {
	return func(api *API) {
		if api != nil {
			api.notifications = service
		}
	}
}

// WithBillingService wires the plan and subscription service.
func WithBillingService(service billing.Service) Option {
	return func(api *API) {
		if api != nil {
			api.billing = service
		}
	}
}

// WithSchemaCatalog wires the published resource schema catalog.
func WithSchemaCatalog(catalog *schemadoc.Catalog) Option {
	return func(api *API) {
		if api != nil {
			api.catalog = catalog
		}
	}
}

// WithPinger wires the connectivity probe behind the readiness endpoint.
func WithPinger(pinger Pinger) Option {
	return func(api *API) {
		if api != nil {
			api.pinger = pinger
		}
	}
}

// WithInfo overrides the build identity reported by the info endpoint.
func WithInfo(info Info) Option {
	return func(api *API) {
		if api == nil {
			return
		}
		if strings.TrimSpace(info.Name) != "" {
			api.info.Name = info.Name
		}
		if strings.TrimSpace(info.Version) != "" {
			api.info.Version = info.Version
		}
		api.info.Environment = info.Environment
		api.info.Features = info.Features
	}
}

// WithWebhookLimits overrides the webhook token bucket. Rate is requests per
// second shared by all callers; each remote IP additionally gets its own
// bucket with the same settings.
func WithWebhookLimits(rps float64, burst int) Option {
	return func(api *API) {
		if api == nil || rps <= 0 || burst <= 0 {
			return
		}
		api.webhookLimiter = newWebhookLimiter(rps, burst)
	}
}

// WithWebhookMaxBody caps the raw webhook body read (defaults to 1 MiB).
func WithWebhookMaxBody(limit int64) Option {
	return func(api *API) {
		if api != nil && limit > 0 {
			api.webhookMaxBody = limit
		}
	}
}

// WithLogger attaches a logger used for request diagnostics.
func WithLogger(logger interfaces.Logger) Option {
	return func(api *API) {
		if api != nil && logger != nil {
			api.logger = logger
		}
	}
}

// Register attaches every endpoint to the provided mux.
func (api *API) Register(mux *http.ServeMux) error {
	if mux == nil {
		return fmt.Errorf("http: mux is required")
	}
	if api == nil {
		return fmt.Errorf("http: api is nil")
	}

	base := joinPath(api.basePath, "")

	api.registerSystemRoutes(mux, base)
	api.registerUserRoutes(mux, base)
	api.registerFamilyRoutes(mux, base)
	api.registerChildRoutes(mux, base)
	api.registerInventoryRoutes(mux, base)
	api.registerNotificationRoutes(mux, base)
	api.registerBillingRoutes(mux, base)
	api.registerWebhookRoutes(mux, base)

	return nil
}

// authenticated wraps a handler with the bearer-token middleware. Routes
// registered through it reject requests without a verified actor.
func (api *API) authenticated(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if api == nil || api.auth == nil {
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
			return
		}
		ctx, err := api.auth.Authenticate(r)
		if err != nil {
			writeAuthError(w, err)
			return
		}
		next(w, r.WithContext(ctx))
	}
}
