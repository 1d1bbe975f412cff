package server

import (
	"html/template"
	"net/http"

	"go.uber.org/zap"

	"pixgate/internal/ui"
)

type TemplateManager struct {
	Templates map[string]*template.Template
	log       *zap.Logger
}

func NewTemplateManager(log *zap.Logger) (*TemplateManager, error) {
	tmpls, err := loadTemplates()
	if err != nil {
		return nil, err
	}
	return &TemplateManager{Templates: tmpls, log: log}, nil
}

func loadTemplates() (map[string]*template.Template, error) {
	tmpls := make(map[string]*template.Template)

	layoutContent, err := ui.Templates.ReadFile("layout.html")
	if err != nil {
		return nil, err
	}

	baseTmpl, err := template.New("layout").Parse(string(layoutContent))
	if err != nil {
		return nil, err
	}

	pages := []string{"home.html", "error.html"}

	for _, page := range pages {
		pageContent, err := ui.Templates.ReadFile(page)
		if err != nil {
			return nil, err
		}

		pageTmpl, err := baseTmpl.Clone()
		if err != nil {
			return nil, err
		}

		_, err = pageTmpl.Parse(string(pageContent))
		if err != nil {
			return nil, err
		}

		tmpls[page] = pageTmpl
	}

	return tmpls, nil
}

// Render writes the page with status. Headers must not have been sent yet.
func (tm *TemplateManager) Render(w http.ResponseWriter, status int, name string, data map[string]interface{}) {
	tmpl, ok := tm.Templates[name]
	if !ok {
		tm.log.Error("Template not found", zap.String("template", name))
		http.Error(w, "Template not found", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tmpl.Execute(w, data); err != nil {
		tm.log.Error("Error executing template", zap.String("template", name), zap.Error(err))
	}
}
