package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/adstudio/pkg/core/carousel"
	"github.com/matzehuels/adstudio/pkg/core/compose"
	"github.com/matzehuels/adstudio/pkg/pipeline"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	listPendingStyle  = lipgloss.NewStyle().Foreground(colorWarn)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorText)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorFaint)
)

// browseRefresh is how often the view polls the session while idle.
const browseRefresh = 100 * time.Millisecond

// =============================================================================
// BrowseModel - Interactive carousel and template browser
// =============================================================================

type (
	tickMsg     time.Time
	renderedMsg struct {
		res  *pipeline.Result
		path string
		err  error
	}
	dedupedMsg struct {
		groups [][]int
		err    error
	}
)

// BrowseModel is the bubbletea model for `adstudio browse`. It drives a
// live editing session: the arrow keys step the carousel through the
// navigator, t and p cycle template and platform, and enter renders the
// current composition.
type BrowseModel struct {
	ctx     context.Context
	session *compose.Session
	runner  *pipeline.Runner
	upload  bool
	outDir  string

	Rendered *pipeline.Result
	Err      error
	status   string
	busy     bool
}

// NewBrowseModel creates a model over sess. runner renders on enter.
func NewBrowseModel(ctx context.Context, sess *compose.Session, runner *pipeline.Runner, upload bool, outDir string) BrowseModel {
	return BrowseModel{ctx: ctx, session: sess, runner: runner, upload: upload, outDir: outDir}
}

func tick() tea.Cmd {
	return tea.Tick(browseRefresh, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m BrowseModel) Init() tea.Cmd {
	return tick()
}

func (m BrowseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	nav := m.session.Navigator()
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "left", "h":
			nav.Prev()
		case "right", "l":
			nav.Next()
		case "t":
			m.cycleTemplate()
		case "p":
			m.cyclePlatform()
		case "d":
			if !m.busy {
				m.busy, m.status = true, "hashing images..."
				return m, m.dedupe()
			}
		case "enter", "r":
			if !m.busy {
				m.busy, m.status = true, "rendering..."
				return m, m.render()
			}
		}
	case tickMsg:
		return m, tick()
	case renderedMsg:
		m.busy = false
		if msg.err != nil {
			m.Err, m.status = msg.err, "render failed: "+msg.err.Error()
			return m, nil
		}
		m.Rendered = msg.res
		m.status = "wrote " + msg.path
		if msg.res.Artifact.Degraded {
			m.status += " (placeholder)"
		}
	case dedupedMsg:
		m.busy = false
		switch {
		case msg.err != nil:
			m.status = "dedupe failed: " + msg.err.Error()
		case len(msg.groups) == 0:
			m.status = "no duplicates"
		default:
			m.status = fmt.Sprintf("%d duplicate groups", len(msg.groups))
		}
	}
	return m, nil
}

func (m *BrowseModel) cycleTemplate() {
	ts := compose.Templates()
	cur := m.session.State().Template
	next := ts[0].ID
	for i, t := range ts {
		if t.ID == cur {
			next = ts[(i+1)%len(ts)].ID
		}
	}
	if err := m.session.Update(func(st *compose.State) { st.Template = next }); err != nil {
		m.status = err.Error()
	}
}

func (m *BrowseModel) cyclePlatform() {
	ps := compose.Platforms()
	cur := m.session.State().Platform
	next := ps[0].ID
	for i, p := range ps {
		if p.ID == cur {
			next = ps[(i+1)%len(ps)].ID
		}
	}
	if err := m.session.Update(func(st *compose.State) { st.Platform = next }); err != nil {
		m.status = err.Error()
	}
}

func (m BrowseModel) render() tea.Cmd {
	st := m.session.State()
	return func() tea.Msg {
		res, err := m.runner.Generate(m.ctx, pipeline.Options{State: st, Upload: m.upload})
		if err != nil {
			return renderedMsg{err: err}
		}
		path := outputPath(m.outDir, res.FileName)
		if err := os.WriteFile(path, res.Artifact.Data, 0o644); err != nil {
			return renderedMsg{err: err}
		}
		return renderedMsg{res: res, path: path}
	}
}

func (m BrowseModel) dedupe() tea.Cmd {
	return func() tea.Msg {
		groups, err := carousel.DetectDuplicates(m.ctx, m.session.Images(), m.session.Sources(), nil)
		return dedupedMsg{groups: groups, err: err}
	}
}

func (m BrowseModel) View() string {
	var b strings.Builder
	st := m.session.State()
	nav := m.session.Navigator()

	b.WriteString(StyleTitle.Render("Browse " + st.Name))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("←/→ image  t template  p platform  d dedupe  ⏎ render  q quit"))
	b.WriteString("\n\n")

	current := nav.Index()
	pending, hasPending := nav.Pending()
	sources := m.session.Sources().Sources()

	rows := make([][]string, len(sources))
	for i, src := range sources {
		marker := "  "
		switch {
		case i == current:
			marker = "▸ "
		case hasPending && i == pending:
			marker = "… "
		}
		dup := ""
		if src.Duplicate {
			dup = "duplicate"
		}
		rows[i] = []string{marker, fmt.Sprintf("%d", i+1), src.URL, dup}
	}

	if len(rows) > 0 {
		t := table.New().
			Border(lipgloss.RoundedBorder()).
			BorderStyle(lipgloss.NewStyle().Foreground(colorFaint)).
			Headers("", "#", "Image", "").
			Rows(rows...).
			StyleFunc(func(row, col int) lipgloss.Style {
				switch {
				case row == -1:
					return styleHeader
				case row == current:
					return listSelectedStyle
				case hasPending && row == pending:
					return listPendingStyle
				case row < len(sources) && sources[row].Duplicate:
					return listDimStyle
				}
				return listNormalStyle
			})
		b.WriteString(t.Render())
		b.WriteString("\n\n")
	} else {
		b.WriteString(listDimStyle.Render("  no carousel images"))
		b.WriteString("\n\n")
	}

	tpl, _ := compose.Lookup(st.Template)
	p, _ := compose.PlatformByID(st.Platform)
	b.WriteString(fmt.Sprintf("  %s %s   %s %s (%d×%d)   %s %s\n",
		listDimStyle.Render("template"), listNormalStyle.Render(tpl.Name),
		listDimStyle.Render("platform"), listNormalStyle.Render(p.Name), p.Width, p.Height,
		listDimStyle.Render("carousel"), listNormalStyle.Render(nav.State().String())))
	if r, ok := m.session.ImageRect(); ok {
		b.WriteString(listDimStyle.Render(fmt.Sprintf("  image %.0f×%.0f at (%.0f, %.0f)", r.Width, r.Height, r.Left, r.Top)))
		b.WriteString("\n")
	}
	if m.status != "" {
		b.WriteString("\n  " + m.status + "\n")
	}
	return b.String()
}
