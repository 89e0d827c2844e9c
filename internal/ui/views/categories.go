package views

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/tgienger/taskdeck/internal/categories"
	"github.com/tgienger/taskdeck/internal/ui/keys"
	"github.com/tgienger/taskdeck/internal/ui/styles"
)

const barWidth = 24

type categoryItem struct {
	agg categories.Aggregate
}

func (i categoryItem) Title() string { return i.agg.Name }
func (i categoryItem) Description() string {
	return fmt.Sprintf("%d tasks, %d completed", i.agg.Count, i.agg.Completed)
}
func (i categoryItem) FilterValue() string { return i.agg.Name }

type categoryDelegate struct {
	styles *styles.Styles
	width  int
}

func (d categoryDelegate) Height() int                               { return 2 }
func (d categoryDelegate) Spacing() int                              { return 1 }
func (d categoryDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (d categoryDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	c, ok := item.(categoryItem)
	if !ok {
		return
	}

	selected := index == m.Index()
	width := max(d.width-4, 20)

	var titleStyle, descStyle lipgloss.Style
	if selected {
		titleStyle = d.styles.ListSelected.Width(width)
		descStyle = d.styles.ListSelected.Foreground(styles.Current.ForegroundDim).Width(width)
	} else {
		titleStyle = d.styles.ListItem.Width(width)
		descStyle = d.styles.ListItem.Foreground(styles.Current.ForegroundDim).Width(width)
	}

	title := titleStyle.Render(fmt.Sprintf("%s  %s %3d%%", c.Title(), GradientBar(c.agg.Gradient, c.agg.Percentage, barWidth), c.agg.Percentage))
	desc := descStyle.Render(c.Description())

	fmt.Fprintf(w, "%s\n%s", title, desc)
}

// GradientBar draws a progress bar of width cells, the filled part blended
// between the two gradient colors
func GradientBar(gradient [2]string, percentage, width int) string {
	from, err := colorful.Hex(gradient[0])
	if err != nil {
		from, _ = colorful.Hex(categories.DefaultGradient[0])
	}
	to, err := colorful.Hex(gradient[1])
	if err != nil {
		to, _ = colorful.Hex(categories.DefaultGradient[1])
	}

	filled := clamp(percentage, 0, 100) * width / 100
	var b strings.Builder
	for i := 0; i < width; i++ {
		if i >= filled {
			b.WriteString(lipgloss.NewStyle().Foreground(styles.Current.Border).Render("░"))
			continue
		}
		t := 0.0
		if width > 1 {
			t = float64(i) / float64(width-1)
		}
		cell := from.BlendLuv(to, t).Clamped().Hex()
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(cell)).Render("█"))
	}
	return b.String()
}

// CategoriesView lists category aggregates for the signed-in user
type CategoriesView struct {
	source   func() []categories.Aggregate
	list     list.Model
	delegate *categoryDelegate
	styles   *styles.Styles
	keys     keys.KeyMap
	width    int
	height   int
}

// NewCategoriesView creates the view. source is called on every store change.
func NewCategoriesView(source func() []categories.Aggregate) *CategoriesView {
	s := styles.NewStyles()
	delegate := &categoryDelegate{styles: s, width: 80}

	l := list.New([]list.Item{}, delegate, 0, 0)
	l.Title = "Categories"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = s.Title
	l.SetShowHelp(false)

	v := &CategoriesView{
		source:   source,
		list:     l,
		delegate: delegate,
		styles:   s,
		keys:     keys.DefaultKeyMap(),
	}
	v.reload()
	return v
}

// Init initializes the view
func (v *CategoriesView) Init() tea.Cmd {
	return nil
}

// Restyle picks up the current theme
func (v *CategoriesView) Restyle() {
	v.styles = styles.NewStyles()
	v.delegate.styles = v.styles
	v.list.Styles.Title = v.styles.Title
}

// Aggregates returns the rows currently listed
func (v *CategoriesView) Aggregates() []categories.Aggregate {
	items := v.list.Items()
	out := make([]categories.Aggregate, 0, len(items))
	for _, it := range items {
		if c, ok := it.(categoryItem); ok {
			out = append(out, c.agg)
		}
	}
	return out
}

func (v *CategoriesView) reload() {
	aggs := v.source()
	items := make([]list.Item, len(aggs))
	for i, a := range aggs {
		items[i] = categoryItem{agg: a}
	}
	v.list.SetItems(items)
}

// Update handles messages
func (v *CategoriesView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		contentWidth := styles.ContentWidth(msg.Width)
		v.delegate.width = contentWidth
		v.list.SetSize(contentWidth-4, msg.Height-6)
		return v, nil

	case StoreChanged:
		v.reload()
		return v, nil

	case tea.KeyMsg:
		// keys go to the filter input while filtering
		if v.list.FilterState() == list.Filtering {
			break
		}
		switch {
		case key.Matches(msg, v.keys.Quit):
			return v, tea.Quit
		case key.Matches(msg, v.keys.Back):
			return v, send(BackToTasks{})
		case key.Matches(msg, v.keys.Theme):
			return v, send(ToggleTheme{})
		case key.Matches(msg, v.keys.Enter):
			if item, ok := v.list.SelectedItem().(categoryItem); ok {
				return v, tea.Sequence(
					send(FilterCategory{ID: item.agg.ID, Name: item.agg.Name}),
					send(BackToTasks{}),
				)
			}
			return v, nil
		}
	}

	var cmd tea.Cmd
	v.list, cmd = v.list.Update(msg)
	return v, cmd
}

// View renders the view
func (v *CategoriesView) View() string {
	s := v.styles
	if len(v.list.Items()) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			s.Title.Render("Categories"),
			"",
			s.TitleMuted.Render("No categories yet. Add one to a task to see progress here."),
			"",
			s.Help.Render(s.HelpKey.Render("esc")+" back"),
		)
		return styles.CenterView(lipgloss.NewStyle().Padding(1, 2).Render(content), v.width, v.height)
	}

	help := s.Help.Render(fmt.Sprintf("%s show tasks • %s filter • %s back • %s quit",
		s.HelpKey.Render("↵"),
		s.HelpKey.Render("/"),
		s.HelpKey.Render("esc"),
		s.HelpKey.Render("q"),
	))
	return styles.CenterView(v.list.View()+"\n"+help, v.width, v.height)
}
