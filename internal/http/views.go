package http

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"expensetracker/internal/core"
	"expensetracker/internal/store"
	"expensetracker/internal/viewmodel"
	appweb "expensetracker/web"
)

type tabLink struct {
	Name   string
	Label  string
	Active bool
}

// pageData is what every page and partial template receives.
type pageData struct {
	Tab     string
	Tabs    []tabLink
	Theme   string
	Profile store.Profile
	Avatar  template.URL
	Loading bool
	Today   string

	Categories       []core.Category
	FilterCategories []core.Category

	View         viewmodel.View
	PieStyle     template.CSS
	TopCategory  string
	MostFrequent string
}

// listData feeds the expense_list partial, which appears on several tabs.
type listData struct {
	Title   string
	Records []core.Expense
	Loading bool
	Tab     string
}

var templateFuncs = template.FuncMap{
	"money": formatMoney,
	"date":  formatDate,
	"list": func(title string, records []core.Expense, loading bool, tab string) listData {
		return listData{Title: title, Records: records, Loading: loading, Tab: tab}
	},
}

func parseTemplates() (*template.Template, error) {
	return template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
}

// view returns the memoized view-model for f over the current store
// revision. Entries for older revisions simply age out of the cache.
func (s *Server) view(f viewmodel.Filter) viewmodel.View {
	records, rev := s.store.Snapshot()
	today := core.DateOf(s.now())
	key := fmt.Sprintf("%d|%s|%s", rev, f.Key(), today)

	s.metrics.viewLookups.Add(1)
	return s.views.GetOrCompute(key, func() viewmodel.View {
		s.metrics.viewMisses.Add(1)
		return viewmodel.Compute(records, f, today)
	})
}

func (s *Server) pageData(tab string, f viewmodel.Filter) pageData {
	profile := s.session.Profile()
	v := s.view(f)

	d := pageData{
		Tab:              tab,
		Theme:            s.theme,
		Profile:          profile,
		Avatar:           avatarSrc(profile),
		Loading:          s.store.Loading(),
		Today:            core.DateOf(s.now()).String(),
		Categories:       core.Categories,
		FilterCategories: append([]core.Category{core.CategoryAll}, core.Categories...),
		View:             v,
		// Built from palette constants and decimals only.
		PieStyle:     template.CSS("background: " + v.Gradient()),
		TopCategory:  "None",
		MostFrequent: "N/A",
	}
	for _, t := range tabs {
		d.Tabs = append(d.Tabs, tabLink{Name: t, Label: tabLabel(t), Active: t == tab})
	}
	if top, ok := v.TopCategory(); ok {
		d.TopCategory = top.Category.String()
	}
	if most, ok := v.MostFrequent(); ok {
		d.MostFrequent = most.Category.String()
	}
	return d
}

func tabLabel(tab string) string {
	switch tab {
	case TabExpenses:
		return "Expenses"
	case TabReports:
		return "Reports"
	case TabSettings:
		return "Settings"
	default:
		return "Dashboard"
	}
}

// renderHTML executes a named template into memory so a failure never
// leaves a half-written response.
func (s *Server) renderHTML(ctx context.Context, name string, data any) (string, error) {
	if s.templates == nil {
		return "", fmt.Errorf("templates not loaded")
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger.ErrorContext(ctx, "Template execution failed", "error", err, "template", name)
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}
