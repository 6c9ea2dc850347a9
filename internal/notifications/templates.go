package notifications

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/adrg/frontmatter"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

//go:embed templates/*.md
var templateFS embed.FS

// messageTemplate holds the parsed title and markdown body for one
// notification type.
type messageTemplate struct {
	title *template.Template
	body  *template.Template
}

// Renderer turns notification types and payload data into a title and a
// markdown body, and markdown into HTML for email delivery.
type Renderer struct {
	templates map[NotificationType]*messageTemplate
	markdown  goldmark.Markdown
}

// NewRenderer parses the embedded message templates.
func NewRenderer() (*Renderer, error) {
	entries, err := templateFS.ReadDir("templates")
	if err != nil {
		return nil, fmt.Errorf("notifications: read templates: %w", err)
	}

	r := &Renderer{
		templates: make(map[NotificationType]*messageTemplate, len(entries)),
		markdown:  goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}

	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasSuffix(name, ".md") {
			continue
		}
		kind := NotificationType(strings.TrimSuffix(name, ".md"))

		source, err := templateFS.ReadFile("templates/" + name)
		if err != nil {
			return nil, fmt.Errorf("notifications: read template %s: %w", name, err)
		}

		var meta struct {
			Title string `yaml:"title"`
		}
		body, err := frontmatter.Parse(bytes.NewReader(source), &meta)
		if err != nil {
			return nil, fmt.Errorf("notifications: parse template %s: %w", name, err)
		}

		titleTmpl, err := template.New(name + ":title").Parse(meta.Title)
		if err != nil {
			return nil, fmt.Errorf("notifications: parse title template %s: %w", name, err)
		}
		bodyTmpl, err := template.New(name + ":body").Parse(string(bytes.TrimSpace(body)))
		if err != nil {
			return nil, fmt.Errorf("notifications: parse body template %s: %w", name, err)
		}

		r.templates[kind] = &messageTemplate{title: titleTmpl, body: bodyTmpl}
	}

	return r, nil
}

// MustNewRenderer panics when the embedded templates do not parse. Templates
// ship with the binary, so a failure here is a build defect.
func MustNewRenderer() *Renderer {
	r, err := NewRenderer()
	if err != nil {
		panic(err)
	}
	return r
}

// Render produces the title and markdown body for a notification type from
// the payload data.
func (r *Renderer) Render(kind NotificationType, data map[string]any) (string, string, error) {
	tmpl, ok := r.templates[kind]
	if !ok {
		return "", "", fmt.Errorf("notifications: no template for type %q", kind)
	}
	if data == nil {
		data = map[string]any{}
	}

	var title bytes.Buffer
	if err := tmpl.title.Execute(&title, data); err != nil {
		return "", "", fmt.Errorf("notifications: render %s title: %w", kind, err)
	}
	var body bytes.Buffer
	if err := tmpl.body.Execute(&body, data); err != nil {
		return "", "", fmt.Errorf("notifications: render %s body: %w", kind, err)
	}
	return strings.TrimSpace(title.String()), strings.TrimSpace(body.String()), nil
}

// HTML converts a markdown body into HTML for email delivery.
func (r *Renderer) HTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := r.markdown.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("notifications: render html: %w", err)
	}
	return buf.String(), nil
}
