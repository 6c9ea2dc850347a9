package links

import (
	"fmt"
	"strings"

	urlkit "github.com/goliatone/go-urlkit"
	"github.com/google/uuid"
)

// Route names registered in the web group. A deployment-supplied route
// config must keep these names for the builder to resolve them.
const (
	RouteInviteAccept = "invite_accept"
	RouteChild        = "child"
	RouteSubscription = "subscription"
	RoutePreferences  = "preferences"
)

// DefaultGroup is the route group the builder resolves against.
const DefaultGroup = "web"

// DefaultRouteConfig returns the web app route table rooted at baseURL.
// Deployments with a custom app shell override it through the links
// configuration.
func DefaultRouteConfig(baseURL string) *urlkit.Config {
	return &urlkit.Config{
		Groups: []urlkit.GroupConfig{
			{
				Name:    DefaultGroup,
				BaseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
				Paths: map[string]string{
					RouteInviteAccept: "/invites/:code",
					RouteChild:        "/children/:id",
					RouteSubscription: "/settings/billing",
					RoutePreferences:  "/settings/notifications",
				},
			},
		},
	}
}

// BuilderOptions configures the go-urlkit backed link builder.
type BuilderOptions struct {
	Manager *urlkit.RouteManager
	Group   string
}

// Builder renders absolute web app URLs for invitation emails and
// notification payloads.
type Builder struct {
	manager *urlkit.RouteManager
	group   string
}

// NewBuilder constructs a builder backed by go-urlkit.
func NewBuilder(opts BuilderOptions) *Builder {
	group := strings.TrimSpace(opts.Group)
	if group == "" {
		group = DefaultGroup
	}
	return &Builder{manager: opts.Manager, group: group}
}

// InviteURL returns the accept link for an invitation code.
func (b *Builder) InviteURL(code string) (string, error) {
	return b.build(RouteInviteAccept, map[string]any{"code": code})
}

// ChildURL returns the deep link to a child's dashboard.
func (b *Builder) ChildURL(childID uuid.UUID) (string, error) {
	return b.build(RouteChild, map[string]any{"id": childID.String()})
}

// SubscriptionURL returns the billing settings link.
func (b *Builder) SubscriptionURL() (string, error) {
	return b.build(RouteSubscription, nil)
}

// PreferencesURL returns the notification settings link.
func (b *Builder) PreferencesURL() (string, error) {
	return b.build(RoutePreferences, nil)
}

// build resolves the route inside the configured group. A builder without a
// manager yields an empty URL so callers degrade to code-only copy.
func (b *Builder) build(route string, params map[string]any) (string, error) {
	if b == nil || b.manager == nil {
		return "", nil
	}

	group, err := lookupGroup(b.manager, b.group)
	if err != nil {
		return "", err
	}
	builder, err := safeBuilder(group, route)
	if err != nil {
		return "", err
	}

	for key, value := range params {
		builder.WithParam(key, value)
	}
	return builder.Build()
}

// lookupGroup guards the urlkit group accessor, which panics on unknown
// names. Named results let the recover surface as an error.
func lookupGroup(manager *urlkit.RouteManager, name string) (group *urlkit.Group, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("links: route group %q not found", name)
		}
	}()
	group = manager.Group(name)
	return group, err
}

func safeBuilder(group *urlkit.Group, route string) (builder *urlkit.Builder, err error) {
	if group == nil {
		return nil, fmt.Errorf("links: urlkit group is nil")
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("links: route %q not registered: %v", route, rec)
		}
	}()
	builder = group.Builder(route)
	return builder, err
}
