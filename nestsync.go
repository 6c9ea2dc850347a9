package nestsync

import (
	"context"
	"net/http"

	"github.com/goliatone/go-nestsync/billing"
	"github.com/goliatone/go-nestsync/children"
	"github.com/goliatone/go-nestsync/families"
	"github.com/goliatone/go-nestsync/internal/di"
	nshttp "github.com/goliatone/go-nestsync/internal/http"
	"github.com/goliatone/go-nestsync/internal/jobs"
	"github.com/goliatone/go-nestsync/inventory"
	"github.com/goliatone/go-nestsync/notifications"
	"github.com/goliatone/go-nestsync/pkg/interfaces"
	"github.com/goliatone/go-nestsync/users"
)

// UserService exports the account and consent ledger contract for consumers
// of the nestsync package.
type UserService = users.Service

// FamilyService exports the family membership service contract.
type FamilyService = families.Service

// ChildService exports the child profile service contract.
type ChildService = children.Service

// InventoryService exports the diaper inventory service contract.
type InventoryService = inventory.Service

// NotificationService exports the notification service contract.
type NotificationService = notifications.Service

// BillingService exports the subscription billing service contract.
type BillingService = billing.Service

// Module represents the top level NestSync runtime façade.
type Module struct {
	container *di.Container
}

// New constructs a NestSync module using the provided configuration and
// optional DI overrides.
func New(cfg Config, opts ...di.Option) (*Module, error) {
	container, err := di.NewContainer(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Module{container: container}, nil
}

// Container exposes the underlying DI container for advanced integrations.
func (m *Module) Container() *di.Container {
	return m.container
}

// Bootstrap seeds the plan catalog, publishes schema docs, and books the
// recurring jobs. Call it once after New, before serving traffic.
func (m *Module) Bootstrap(ctx context.Context) error {
	return m.container.Bootstrap(ctx)
}

// Users returns the configured account service.
func (m *Module) Users() UserService {
	return m.container.UserService()
}

// Families returns the configured family service.
func (m *Module) Families() FamilyService {
	return m.container.FamilyService()
}

// Children returns the configured child profile service.
func (m *Module) Children() ChildService {
	return m.container.ChildService()
}

// Inventory returns the configured inventory service.
func (m *Module) Inventory() InventoryService {
	return m.container.InventoryService()
}

// Notifications returns the configured notification service.
func (m *Module) Notifications() NotificationService {
	return m.container.NotificationService()
}

// Billing returns the configured billing service.
func (m *Module) Billing() BillingService {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.BillingService()
}

// Worker returns the background job worker.
func (m *Module) Worker() *jobs.Worker {
	return m.container.Worker()
}

// Scheduler returns the scheduler used for reminder automation.
func (m *Module) Scheduler() interfaces.Scheduler {
	return m.container.Scheduler()
}

// HTTP returns the REST API surface.
func (m *Module) HTTP() *nshttp.API {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.HTTPAPI()
}

// Handler builds an http.Handler with every API route registered.
func (m *Module) Handler() (http.Handler, error) {
	mux := http.NewServeMux()
	if err := m.HTTP().Register(mux); err != nil {
		return nil, err
	}
	return mux, nil
}

// Close releases dispatcher subscriptions held by the container.
func (m *Module) Close() {
	m.container.Close()
}
