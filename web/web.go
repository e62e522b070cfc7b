// Package web provides the embedded web UI for rpncalc.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/lemonberrylabs/rpncalc/pkg/store"
)

//go:embed templates/*.html
var templateFS embed.FS

// recentLimit is the number of evaluations shown on the dashboard.
const recentLimit = 20

// pages are the templates rendered with templates/layout.html.
var pages = []string{"dashboard.html", "evaluation_detail.html", "not_found.html"}

// Evaluator evaluates and records one expression.
type Evaluator func(input, source string) (*store.Evaluation, error)

// Handler serves the web UI pages.
type Handler struct {
	store    store.Backend
	evaluate Evaluator
	pages    map[string]*template.Template
}

// pageData wraps all page-specific data with common fields.
type pageData struct {
	NavActive string
	Data      interface{}
}

// New creates a new web UI handler. Form submissions go through evaluate.
// It panics if a template fails to parse.
func New(s store.Backend, evaluate Evaluator) *Handler {
	funcMap := template.FuncMap{
		"timeAgo":    timeAgo,
		"formatTime": formatTime,
		"stateClass": stateClass,
		"stateIcon":  stateIcon,
		"truncate":   truncate,
	}

	// Each page is parsed with the layout on its own so their define blocks don't collide.
	parsed := make(map[string]*template.Template, len(pages))
	for _, page := range pages {
		parsed[page] = template.Must(
			template.New("").Funcs(funcMap).ParseFS(templateFS, "templates/layout.html", "templates/"+page),
		)
	}

	return &Handler{
		store:    s,
		evaluate: evaluate,
		pages:    parsed,
	}
}

func (h *Handler) render(c *fiber.Ctx, status int, page string, navActive string, data interface{}) error {
	tmpl, ok := h.pages[page]
	if !ok {
		return c.Status(500).SendString(fmt.Sprintf("unknown page %q", page))
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, page, pageData{NavActive: navActive, Data: data}); err != nil {
		return c.Status(500).SendString(fmt.Sprintf("template error: %v", err))
	}

	c.Set("Content-Type", "text/html; charset=utf-8")
	return c.Status(status).Send(buf.Bytes())
}

// Register adds web UI routes to the Fiber app.
func (h *Handler) Register(app *fiber.App) {
	app.Get("/ui", h.dashboard)
	app.Get("/ui/evaluations/:id", h.evaluationDetail)
	app.Post("/ui/evaluate", h.submit)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.Redirect("/ui")
	})
}

// --- Page Data Types ---

type dashboardContent struct {
	Recent         []*store.Evaluation
	Total          int
	SucceededCount int
	FailedCount    int
	Expression     string
}

type evaluationDetailContent struct {
	Evaluation *store.Evaluation
}

type notFoundContent struct {
	Message string
}

// --- Page Handlers ---

func (h *Handler) dashboard(c *fiber.Ctx) error {
	evs, err := h.store.List(0)
	if err != nil {
		return c.Status(500).SendString(err.Error())
	}

	content := dashboardContent{
		Total:      len(evs),
		Expression: c.Query("expression"),
	}
	for _, ev := range evs {
		switch ev.State {
		case store.EvaluationSucceeded:
			content.SucceededCount++
		case store.EvaluationFailed:
			content.FailedCount++
		}
	}

	content.Recent = evs
	if len(content.Recent) > recentLimit {
		content.Recent = content.Recent[:recentLimit]
	}

	return h.render(c, 200, "dashboard.html", "dashboard", content)
}

func (h *Handler) evaluationDetail(c *fiber.Ctx) error {
	id := c.Params("id")
	ev, err := h.store.Get(id)
	if err != nil {
		return h.render(c, 404, "not_found.html", "", notFoundContent{
			Message: fmt.Sprintf("Evaluation '%s' not found", id),
		})
	}
	return h.render(c, 200, "evaluation_detail.html", "dashboard", evaluationDetailContent{
		Evaluation: ev,
	})
}

// submit evaluates the form's expression and redirects to the new record.
func (h *Handler) submit(c *fiber.Ctx) error {
	input := c.FormValue("expression")
	if input == "" {
		return c.Redirect("/ui", fiber.StatusSeeOther)
	}

	ev, err := h.evaluate(input, store.SourceUI)
	if err != nil {
		log.Printf("Error evaluating from UI: %v", err)
		return c.Status(500).SendString(err.Error())
	}
	return c.Redirect("/ui/evaluations/"+ev.ID, fiber.StatusSeeOther)
}

// --- Template Helpers ---

func timeAgo(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		m := int(d.Minutes())
		if m == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", m)
	case d < 24*time.Hour:
		h := int(d.Hours())
		if h == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", h)
	default:
		days := int(d.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04:05")
}

func stateClass(state store.EvaluationState) string {
	switch state {
	case store.EvaluationSucceeded:
		return "state-succeeded"
	case store.EvaluationFailed:
		return "state-failed"
	default:
		return ""
	}
}

func stateIcon(state store.EvaluationState) template.HTML {
	switch state {
	case store.EvaluationSucceeded:
		return "&#10003;"
	case store.EvaluationFailed:
		return "&#10007;"
	default:
		return "&#8226;"
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
