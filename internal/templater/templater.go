// Package templater renders the starting body of new notes.
package templater

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"
	"time"

	"github.com/Paintersrp/snyft/internal/constants"
)

//go:embed templates
var embeddedTemplates embed.FS

// ErrTemplateNotFound is returned for an unknown template name.
var ErrTemplateNotFound = errors.New("template not found")

type SingleTemplate struct {
	FilePath string
	Content  string
}

type TemplateMap map[string]SingleTemplate

// Templater manages a collection of templates.
type Templater struct {
	templates TemplateMap
	now       func() time.Time
}

// TemplateData is passed to templates during rendering.
type TemplateData struct {
	Title     string
	Date      string
	Time      string
	Timestamp string
}

// NewTemplater loads user templates from ~/.snyft/templates, then the
// embedded ones. A user template shadows an embedded one of the same name.
func NewTemplater() (*Templater, error) {
	userHomeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return newTemplater(filepath.Join(userHomeDir, constants.ConfigDir, "templates"))
}

func newTemplater(userTemplateDir string) (*Templater, error) {
	tmplMap := make(TemplateMap)

	if _, err := os.Stat(userTemplateDir); err == nil {
		if err := tmplMap.loadTemplates(userTemplateDir); err != nil {
			return nil, err
		}
	}

	if err := tmplMap.loadEmbeddedTemplates(embeddedTemplates); err != nil {
		return nil, err
	}

	return &Templater{templates: tmplMap, now: time.Now}, nil
}

// Names lists the available templates.
func (t *Templater) Names() []string {
	names := make([]string, 0, len(t.templates))
	for name := range t.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has reports whether a template exists.
func (t *Templater) Has(name string) bool {
	_, ok := t.templates[name]
	return ok
}

// Data fills the date fields for a note titled title.
func (t *Templater) Data(title string) TemplateData {
	cur := t.now()
	return TemplateData{
		Title:     title,
		Date:      cur.Format("2006-01-02"),
		Time:      cur.Format("15:04"),
		Timestamp: cur.Format("2006-01-02 15:04:05"),
	}
}

// Execute renders the named template for a note titled title.
func (t *Templater) Execute(templateName, title string) (string, error) {
	tmplData, ok := t.templates[templateName]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrTemplateNotFound, templateName)
	}

	tmpl, err := template.New(templateName).Parse(tmplData.Content)
	if err != nil {
		return "", fmt.Errorf("templater: parse %s: %w", tmplData.FilePath, err)
	}

	var renderedTemplate bytes.Buffer
	if err := tmpl.Execute(&renderedTemplate, t.Data(title)); err != nil {
		return "", fmt.Errorf("templater: render %s: %w", templateName, err)
	}

	return renderedTemplate.String(), nil
}

func (m TemplateMap) loadEmbeddedTemplates(embeddedFS embed.FS) error {
	return fs.WalkDir(
		embeddedFS,
		"templates",
		func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			if !d.IsDir() {
				name := strings.TrimSuffix(d.Name(), filepath.Ext(d.Name()))
				if _, exists := m[name]; !exists {
					data, err := fs.ReadFile(embeddedFS, path)
					if err != nil {
						return err
					}
					m[name] = SingleTemplate{FilePath: path, Content: string(data)}
				}
			}

			return nil
		},
	)
}

func (m TemplateMap) loadTemplates(dirPath string) error {
	return filepath.WalkDir(
		dirPath,
		func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			if !d.IsDir() && filepath.Ext(path) == ".tmpl" {
				name := strings.TrimSuffix(d.Name(), filepath.Ext(d.Name()))
				if _, exists := m[name]; !exists {
					data, err := os.ReadFile(path)
					if err != nil {
						return err
					}
					m[name] = SingleTemplate{FilePath: path, Content: string(data)}
				}
			}
			return nil
		},
	)
}
