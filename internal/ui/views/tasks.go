package views

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/taskdeck/internal/api"
	"github.com/tgienger/taskdeck/internal/cache"
	"github.com/tgienger/taskdeck/internal/categories"
	"github.com/tgienger/taskdeck/internal/models"
	"github.com/tgienger/taskdeck/internal/ui/keys"
	"github.com/tgienger/taskdeck/internal/ui/styles"
)

var statusGlyphs = map[models.Status]string{
	models.StatusUpcoming:   "○",
	models.StatusInProgress: "◐",
	models.StatusInReview:   "◑",
	models.StatusCompleted:  "●",
}

// TaskListView shows every cached task
type TaskListView struct {
	ctx    context.Context
	store  *cache.Store
	mut    Mutator
	tasks  []models.Task
	styles *styles.Styles
	keys   keys.KeyMap

	width  int
	height int

	cursor  int
	scrollY int

	// category filter, empty for all tasks
	filterID   string
	filterName string

	// New task form
	creating bool
	newTitle textinput.Model

	// Delete confirmation. It stays open when the delete fails.
	confirmingDelete bool
	deleting         bool
	deleteTargetID   string
	deleteTargetName string
	deleteErr        string

	showHelpPopup bool
}

// NewTaskListView creates a task list reading from store
func NewTaskListView(ctx context.Context, store *cache.Store, mut Mutator) *TaskListView {
	newTitle := textinput.New()
	newTitle.Placeholder = "Task title"
	newTitle.CharLimit = 200

	v := &TaskListView{
		ctx:      ctx,
		store:    store,
		mut:      mut,
		styles:   styles.NewStyles(),
		keys:     keys.DefaultKeyMap(),
		newTitle: newTitle,
	}
	v.reload()
	return v
}

// Init initializes the view
func (v *TaskListView) Init() tea.Cmd {
	return nil
}

// Restyle picks up the current theme
func (v *TaskListView) Restyle() {
	v.styles = styles.NewStyles()
}

// Selected returns the task under the cursor
func (v *TaskListView) Selected() (models.Task, bool) {
	if v.cursor < 0 || v.cursor >= len(v.tasks) {
		return models.Task{}, false
	}
	return v.tasks[v.cursor], true
}

// Tasks returns the rows currently shown
func (v *TaskListView) Tasks() []models.Task {
	return v.tasks
}

func (v *TaskListView) reload() {
	tasks := v.store.List()
	if v.filterID != "" {
		tasks = categories.Filter(tasks, v.filterID)
	}
	v.tasks = tasks
	if v.cursor >= len(v.tasks) {
		v.cursor = max(0, len(v.tasks)-1)
	}
	v.ensureVisible()
}

// Update handles messages
func (v *TaskListView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		v.newTitle.Width = clamp(styles.ContentWidth(v.width)-10, 20, 50)
		return v, nil

	case StoreChanged:
		v.reload()
		return v, nil

	case FilterCategory:
		v.filterID, v.filterName = msg.ID, msg.Name
		v.cursor, v.scrollY = 0, 0
		v.reload()
		return v, nil

	case mutationDone:
		if msg.op == "delete" && msg.taskID == v.deleteTargetID {
			v.deleting = false
			if msg.err != nil {
				v.deleteErr = api.Message(msg.err, "Failed to delete task")
				return v, nil
			}
			v.closeDeleteConfirm()
		}
		return v, nil

	case tea.KeyMsg:
		// any key closes the help popup
		if v.showHelpPopup {
			v.showHelpPopup = false
			return v, nil
		}
		if v.confirmingDelete {
			return v.updateConfirmDelete(msg)
		}
		if v.creating {
			return v.updateCreating(msg)
		}
		return v.updateNormal(msg)
	}
	return v, nil
}

func (v *TaskListView) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Quit):
		return v, tea.Quit

	case key.Matches(msg, v.keys.Back):
		if v.filterID != "" {
			return v, send(FilterCategory{})
		}
		return v, nil

	case key.Matches(msg, v.keys.Help):
		v.showHelpPopup = true
		return v, nil

	case key.Matches(msg, v.keys.Up):
		if v.cursor > 0 {
			v.cursor--
			v.ensureVisible()
		}
		return v, nil

	case key.Matches(msg, v.keys.Down):
		if v.cursor < len(v.tasks)-1 {
			v.cursor++
			v.ensureVisible()
		}
		return v, nil

	case key.Matches(msg, v.keys.Enter):
		if t, ok := v.Selected(); ok {
			return v, send(OpenTask{ID: t.ID})
		}
		return v, nil

	case key.Matches(msg, v.keys.New):
		v.creating = true
		v.newTitle.Reset()
		return v, v.newTitle.Focus()

	case key.Matches(msg, v.keys.Done):
		t, ok := v.Selected()
		if !ok || t.Completed() {
			return v, nil
		}
		return v, run("mark_done", t.ID, func() error { return v.mut.MarkDone(v.ctx, t.ID) })

	case key.Matches(msg, v.keys.Status):
		t, ok := v.Selected()
		if !ok {
			return v, nil
		}
		next := t.Status.Next()
		return v, run("update", t.ID, func() error {
			return v.mut.Update(v.ctx, t.ID, models.TaskPatch{Status: &next})
		})

	case key.Matches(msg, v.keys.Delete):
		if t, ok := v.Selected(); ok {
			v.confirmingDelete = true
			v.deleteTargetID = t.ID
			v.deleteTargetName = t.Title
			v.deleteErr = ""
		}
		return v, nil

	case key.Matches(msg, v.keys.Categories):
		return v, send(OpenCategories{})

	case key.Matches(msg, v.keys.Theme):
		return v, send(ToggleTheme{})

	case key.Matches(msg, v.keys.Refresh):
		return v, send(RefreshTasks{})
	}
	return v, nil
}

func (v *TaskListView) updateCreating(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.creating = false
		v.newTitle.Blur()
		return v, nil

	case key.Matches(msg, v.keys.Enter):
		v.creating = false
		v.newTitle.Blur()
		title := strings.TrimSpace(v.newTitle.Value())
		if title == "" {
			return v, nil
		}
		draft := models.Task{
			Title:    title,
			Priority: models.PriorityMedium,
			Status:   models.StatusUpcoming,
		}
		if v.filterName != "" {
			draft.Categories = []string{v.filterName}
		}
		return v, run("create", "", func() error {
			_, err := v.mut.Create(v.ctx, draft)
			return err
		})
	}

	var cmd tea.Cmd
	v.newTitle, cmd = v.newTitle.Update(msg)
	return v, cmd
}

func (v *TaskListView) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if v.deleting {
		return v, nil
	}
	switch {
	case key.Matches(msg, v.keys.Confirm):
		v.deleting = true
		v.deleteErr = ""
		id := v.deleteTargetID
		return v, run("delete", id, func() error { return v.mut.Delete(v.ctx, id) })
	case key.Matches(msg, v.keys.Cancel):
		v.closeDeleteConfirm()
	}
	return v, nil
}

func (v *TaskListView) closeDeleteConfirm() {
	v.confirmingDelete = false
	v.deleteTargetID = ""
	v.deleteTargetName = ""
	v.deleteErr = ""
}

func (v *TaskListView) visibleItems() int {
	// Each task item is 2 lines + 1 margin
	return max((v.height-12)/3, 1)
}

func (v *TaskListView) ensureVisible() {
	visible := v.visibleItems()
	if v.cursor < v.scrollY {
		v.scrollY = v.cursor
	} else if v.cursor >= v.scrollY+visible {
		v.scrollY = v.cursor - visible + 1
	}
}

// View renders the view
func (v *TaskListView) View() string {
	if v.showHelpPopup {
		return v.renderHelpPopup()
	}
	if v.confirmingDelete {
		return v.renderDeleteConfirm()
	}
	if v.creating {
		return v.renderNewForm()
	}

	var b strings.Builder
	b.WriteString(v.renderHeader())
	b.WriteString("\n\n")
	b.WriteString(v.renderTaskList())
	b.WriteString("\n")
	b.WriteString(v.renderHelp())
	return styles.CenterView(b.String(), v.width, v.height)
}

func (v *TaskListView) renderHeader() string {
	s := v.styles
	title := "Tasks"
	if v.filterName != "" {
		title += " · " + v.filterName
	}
	done := 0
	for _, t := range v.tasks {
		if t.Completed() {
			done++
		}
	}
	summary := s.TitleMuted.Render(fmt.Sprintf("%d tasks, %d completed", len(v.tasks), done))
	return lipgloss.JoinVertical(lipgloss.Left, s.Title.Render(title), summary)
}

func (v *TaskListView) renderTaskList() string {
	s := v.styles
	if len(v.tasks) == 0 {
		return s.TitleMuted.Render("No tasks. Press 'n' to create one.")
	}

	var items []string
	end := min(v.scrollY+v.visibleItems(), len(v.tasks))
	for i := v.scrollY; i < end; i++ {
		items = append(items, v.renderTaskItem(v.tasks[i], i == v.cursor))
	}
	return lipgloss.JoinVertical(lipgloss.Left, items...)
}

func (v *TaskListView) renderTaskItem(task models.Task, selected bool) string {
	s := v.styles
	width := max(styles.ContentWidth(v.width)-4, 20)

	glyph := statusGlyphs[task.Status]
	if glyph == "" {
		glyph = "?"
	}
	titleLine := glyph + " " + task.Title

	meta := []string{string(task.Priority), string(task.Status)}
	if task.DueDate != nil {
		meta = append(meta, "due "+task.DueDate.Local().Format("Jan 2"))
	}
	if len(task.Comments) > 0 {
		meta = append(meta, fmt.Sprintf("%d comments", len(task.Comments)))
	}
	metaLine := strings.Join(meta, " · ")
	if len(task.Categories) > 0 {
		metaLine += "  " + strings.Join(task.Categories, ", ")
	}

	itemStyle := s.ListItem
	if selected {
		itemStyle = s.ListSelected
	}
	title := itemStyle.Width(width).Render(titleLine)
	metaText := itemStyle.Foreground(styles.Current.ForegroundDim).Width(width).Render(metaLine)
	return lipgloss.JoinVertical(lipgloss.Left, title, metaText) + "\n"
}

func (v *TaskListView) renderNewForm() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)
	inputWidth := clamp(contentWidth-6, 20, 50)

	form := lipgloss.JoinVertical(lipgloss.Left,
		s.Title.Render("New Task"),
		"",
		"Title:",
		s.InputFocused.Width(inputWidth).Render(v.newTitle.View()),
		"",
		s.TitleMuted.Render("↵: create • Esc: cancel"),
	)
	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		form,
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *TaskListView) renderHelp() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)
	if contentWidth > 0 && contentWidth < 50 {
		return s.Help.Render(s.HelpKey.Render("?") + " help")
	}
	return s.Help.Render(
		fmt.Sprintf("%s view • %s new • %s done • %s status • %s del • %s categories • %s theme • %s refresh • %s quit",
			s.HelpKey.Render("↵"),
			s.HelpKey.Render("n"),
			s.HelpKey.Render("x"),
			s.HelpKey.Render("s"),
			s.HelpKey.Render("d"),
			s.HelpKey.Render("c"),
			s.HelpKey.Render("t"),
			s.HelpKey.Render("r"),
			s.HelpKey.Render("q"),
		),
	)
}

func (v *TaskListView) renderHelpPopup() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	helpItems := []string{
		s.HelpKey.Render("↵") + "      view task",
		s.HelpKey.Render("n") + "      new task",
		s.HelpKey.Render("x") + "      mark done",
		s.HelpKey.Render("s") + "      next status",
		s.HelpKey.Render("d") + "      delete task",
		s.HelpKey.Render("c") + "      categories",
		s.HelpKey.Render("t") + "      toggle theme",
		s.HelpKey.Render("r") + "      refresh",
		s.HelpKey.Render("esc") + "    clear filter",
		s.HelpKey.Render("q") + "      quit",
		"",
		s.TitleMuted.Render("Press any key to close"),
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		append([]string{s.Title.Render("Keyboard Shortcuts"), ""}, helpItems...)...,
	)
	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		s.Popup.Render(content),
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *TaskListView) renderDeleteConfirm() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	status := ""
	switch {
	case v.deleting:
		status = s.TitleMuted.Render("Deleting...")
	case v.deleteErr != "":
		status = lipgloss.NewStyle().Foreground(styles.Current.Error).Render(v.deleteErr)
	}

	content := lipgloss.JoinVertical(lipgloss.Center,
		s.Title.Foreground(styles.Current.Error).Render("Delete Task?"),
		"",
		s.TitleMuted.Render(fmt.Sprintf("Are you sure you want to delete %q?", v.deleteTargetName)),
		status,
		"",
		lipgloss.JoinHorizontal(lipgloss.Center,
			s.ButtonPrimary.Render(" Y - Yes "),
			"  ",
			s.Button.Render(" N - No "),
		),
	)
	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		content,
	)
	return styles.CenterView(centered, v.width, v.height)
}
