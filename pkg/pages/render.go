package pages

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strconv"
	"strings"

	"github.com/jinzhu/inflection"

	"github.com/bidzilla/bidzilla-web/pkg/models"
)

const (
	layoutFile  = "templates/layout.html"
	pagesGlob   = "templates/pages/*.html"
	currencySym = "₹"
)

// Renderer executes page templates inside the shared layout.
type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer parses the layout and every page template from fsys.
// Each page is parsed into its own clone of the layout so that every page
// can define its own "content" block.
func NewRenderer(fsys fs.FS) (*Renderer, error) {
	base, err := template.New("layout").Funcs(templateFuncs()).ParseFS(fsys, layoutFile)
	if err != nil {
		return nil, fmt.Errorf("failed to parse layout: %w", err)
	}

	files, err := fs.Glob(fsys, pagesGlob)
	if err != nil {
		return nil, fmt.Errorf("failed to list page templates: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no page templates match %s", pagesGlob)
	}

	r := &Renderer{pages: make(map[string]*template.Template, len(files))}
	for _, file := range files {
		page, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("failed to clone layout for %s: %w", file, err)
		}
		if _, err := page.ParseFS(fsys, file); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", file, err)
		}
		r.pages[strings.TrimSuffix(path.Base(file), ".html")] = page
	}
	return r, nil
}

// Render writes the named page. Output is buffered so a template error never
// leaves a half-written page behind.
func (r *Renderer) Render(w io.Writer, name string, data any) error {
	page, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}

	var buf bytes.Buffer
	if err := page.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("failed to render %s: %w", name, err)
	}
	_, err := buf.WriteTo(w)
	return err
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"money":       formatMoney,
		"budget":      formatBudget,
		"statusClass": statusClass,
		"inProgress":  func(s models.ProjectStatus) bool { return s.Normalize() == models.StatusInProgress },
		"plural":      pluralize,
	}
}

func formatMoney(v float64) string {
	return currencySym + strconv.FormatFloat(v, 'f', -1, 64)
}

func formatBudget(lo, hi float64) string {
	return formatMoney(lo) + " – " + formatMoney(hi)
}

// statusClass maps a project status to its badge style. Unknown statuses get
// the neutral badge.
func statusClass(s models.ProjectStatus) string {
	switch s.Normalize() {
	case models.StatusOpen:
		return "badge-open"
	case models.StatusPending:
		return "badge-pending"
	case models.StatusInProgress:
		return "badge-in-progress"
	case models.StatusCompleted:
		return "badge-completed"
	default:
		return ""
	}
}

// pluralize renders a counter such as "1 bid" or "3 bids".
func pluralize(n int, word string) string {
	if n != 1 {
		word = inflection.Plural(word)
	}
	return strconv.Itoa(n) + " " + word
}
