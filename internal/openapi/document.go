// Package openapi assembles the minimal OpenAPI 3 documents the schema
// catalog publishes. Registry consumers read raw maps, so the builder renders
// straight to map form rather than marshaling a struct.
package openapi

const specVersion = "3.0.3"

// Document accumulates the component schemas and vendor extensions published
// for one resource.
type Document struct {
	title       string
	description string
	version     string
	schemas     map[string]any
	extensions  map[string]any
}

// NewDocument starts an empty document with the given info title and version.
func NewDocument(title, version string) *Document {
	return &Document{
		title:      title,
		version:    version,
		schemas:    map[string]any{},
		extensions: map[string]any{},
	}
}

// SetDescription attaches the info description rendered beside the title.
func (d *Document) SetDescription(text string) {
	if d == nil {
		return
	}
	d.description = text
}

// AddSchema registers a component schema under the given name.
func (d *Document) AddSchema(name string, schema map[string]any) {
	if d == nil || name == "" || schema == nil {
		return
	}
	if d.schemas == nil {
		d.schemas = map[string]any{}
	}
	d.schemas[name] = schema
}

// SetExtension sets a top-level vendor extension on the document.
func (d *Document) SetExtension(key string, value any) {
	if d == nil || key == "" {
		return
	}
	if d.extensions == nil {
		d.extensions = map[string]any{}
	}
	d.extensions[key] = value
}

// AsMap renders the document for registry consumers. Paths is always present
// because OpenAPI 3 requires it, even though schema documents declare no
// operations.
func (d *Document) AsMap() map[string]any {
	if d == nil {
		return nil
	}

	info := map[string]any{
		"title":   d.title,
		"version": d.version,
	}
	if d.description != "" {
		info["description"] = d.description
	}

	out := map[string]any{
		"openapi": specVersion,
		"info":    info,
		"paths":   map[string]any{},
	}
	if len(d.schemas) > 0 {
		out["components"] = map[string]any{"schemas": d.schemas}
	}
	for key, value := range d.extensions {
		out[key] = value
	}
	return out
}
