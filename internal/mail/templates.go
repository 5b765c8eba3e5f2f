package mail

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))

const fallbackLocale = "en_US"

// CancellationData fills the cancellation email
type CancellationData struct {
	ProviderName string
	UserName     string
	Date         string
}

// RenderCancellation renders the cancellation body for locale, falling back to English
func RenderCancellation(locale string, data CancellationData) (string, error) {
	name := "cancellation." + locale + ".tmpl"
	if templates.Lookup(name) == nil {
		name = "cancellation." + fallbackLocale + ".tmpl"
	}
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	return buf.String(), nil
}
