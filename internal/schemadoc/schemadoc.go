package schemadoc

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	crud "github.com/goliatone/go-crud"
	"github.com/goliatone/go-nestsync/internal/openapi"
	"github.com/goliatone/go-slug"
)

// defaultVersion stamps documents when the catalog has no explicit version.
const defaultVersion = "1.0.0"

// Resource describes one payload schema published for API clients.
type Resource struct {
	Name        string
	Plural      string
	Title       string
	Description string
	Schema      map[string]any
}

// Registry is the destination for projected schema documents.
type Registry interface {
	Register(ctx context.Context, name, plural string, doc map[string]any) error
	Get(name string) (map[string]any, bool)
}

// CrudRegistry publishes documents into the go-crud schema registry.
type CrudRegistry struct{}

func (CrudRegistry) Register(_ context.Context, name, plural string, doc map[string]any) error {
	if ok := crud.RegisterSchemaDocument(name, plural, doc); !ok {
		return fmt.Errorf("schemadoc: crud registry rejected %q", name)
	}
	return nil
}

func (CrudRegistry) Get(name string) (map[string]any, bool) {
	entry, ok := crud.GetSchema(name)
	if !ok {
		return nil, false
	}
	return entry.Document, true
}

// Catalog projects resource schemas into OpenAPI documents, pushes them into
// the registry, and keeps the published index the HTTP layer lists from.
type Catalog struct {
	registry Registry
	version  string

	mu    sync.RWMutex
	names map[string]bool
}

// NewCatalog builds a catalog over the given registry. A nil registry
// defaults to the go-crud backed one.
func NewCatalog(registry Registry, version string) *Catalog {
	if registry == nil {
		registry = CrudRegistry{}
	}
	if strings.TrimSpace(version) == "" {
		version = defaultVersion
	}
	return &Catalog{
		registry: registry,
		version:  version,
		names:    map[string]bool{},
	}
}

// Publish projects each resource and registers its document. Resources
// without a schema are rejected rather than silently skipped so a wiring gap
// shows up at startup.
func (c *Catalog) Publish(ctx context.Context, resources ...Resource) error {
	for _, res := range resources {
		doc, err := BuildDocument(res, c.version)
		if err != nil {
			return err
		}
		if err := c.registry.Register(ctx, res.Name, pluralName(res), doc.AsMap()); err != nil {
			return err
		}
		c.mu.Lock()
		c.names[res.Name] = true
		c.mu.Unlock()
	}
	return nil
}

// Resources returns the published resource names, sorted.
func (c *Catalog) Resources() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]string, 0, len(c.names))
	for name := range c.names {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Document returns the registered document for one published resource.
func (c *Catalog) Document(name string) (map[string]any, bool) {
	c.mu.RLock()
	known := c.names[name]
	c.mu.RUnlock()
	if !known {
		return nil, false
	}
	return c.registry.Get(name)
}

// BuildDocument projects a resource schema into an OpenAPI document.
func BuildDocument(res Resource, version string) (*openapi.Document, error) {
	name := strings.TrimSpace(res.Name)
	if name == "" {
		return nil, fmt.Errorf("schemadoc: resource name required")
	}
	if res.Schema == nil {
		return nil, fmt.Errorf("schemadoc: resource %q has no schema", name)
	}
	if strings.TrimSpace(version) == "" {
		version = defaultVersion
	}

	title := strings.TrimSpace(res.Title)
	if title == "" {
		title = name
	}
	doc := openapi.NewDocument(title, version)
	if description := strings.TrimSpace(res.Description); description != "" {
		doc.SetDescription(description)
	}
	doc.AddSchema(componentName(name), res.Schema)
	doc.SetExtension("x-nestsync", map[string]any{
		"resource": name,
	})
	return doc, nil
}

func componentName(value string) string {
	normalized, err := slug.Normalize(value)
	if err != nil || normalized == "" {
		normalized = value
	}
	return strings.ReplaceAll(normalized, "-", "_")
}

func pluralName(res Resource) string {
	if plural := strings.TrimSpace(res.Plural); plural != "" {
		return plural
	}
	return strings.TrimSpace(res.Name) + "s"
}
