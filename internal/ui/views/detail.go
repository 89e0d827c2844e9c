package views

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/taskdeck/internal/cache"
	"github.com/tgienger/taskdeck/internal/models"
	"github.com/tgienger/taskdeck/internal/ui/keys"
	"github.com/tgienger/taskdeck/internal/ui/styles"
)

// TaskDetailView shows one task with its comments
type TaskDetailView struct {
	ctx    context.Context
	store  *cache.Store
	mut    Mutator
	taskID string
	task   models.Task
	found  bool
	styles *styles.Styles
	keys   keys.KeyMap

	width  int
	height int

	// selected comment
	cursor int

	commentInput        textarea.Model
	commentInputFocused bool
}

// NewTaskDetailView creates a detail view for the task with the given id
func NewTaskDetailView(ctx context.Context, store *cache.Store, mut Mutator, taskID string) *TaskDetailView {
	commentInput := textarea.New()
	commentInput.Placeholder = "Add a comment..."
	commentInput.CharLimit = 2000
	commentInput.SetWidth(50)
	commentInput.SetHeight(3)
	commentInput.ShowLineNumbers = false

	v := &TaskDetailView{
		ctx:          ctx,
		store:        store,
		mut:          mut,
		taskID:       taskID,
		styles:       styles.NewStyles(),
		keys:         keys.DefaultKeyMap(),
		commentInput: commentInput,
	}
	v.reload()
	return v
}

// Init initializes the view
func (v *TaskDetailView) Init() tea.Cmd {
	return nil
}

// Restyle picks up the current theme
func (v *TaskDetailView) Restyle() {
	v.styles = styles.NewStyles()
}

// TaskID returns the id of the task being shown
func (v *TaskDetailView) TaskID() string {
	return v.taskID
}

func (v *TaskDetailView) reload() {
	v.task, v.found = v.store.Get(v.taskID)
	if v.cursor >= len(v.task.Comments) {
		v.cursor = max(0, len(v.task.Comments)-1)
	}
}

// Update handles messages
func (v *TaskDetailView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		v.commentInput.SetWidth(clamp(styles.ContentWidth(v.width)-10, 20, 50))
		return v, nil

	case StoreChanged:
		v.reload()
		return v, nil

	case tea.KeyMsg:
		if v.commentInputFocused {
			return v.updateCommentInput(msg)
		}
		return v.updateNormal(msg)
	}
	return v, nil
}

func (v *TaskDetailView) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		return v, send(BackToTasks{})

	case msg.String() == "ctrl+c":
		return v, tea.Quit

	case key.Matches(msg, v.keys.Up):
		if v.cursor > 0 {
			v.cursor--
		}

	case key.Matches(msg, v.keys.Down):
		if v.cursor < len(v.task.Comments)-1 {
			v.cursor++
		}

	case key.Matches(msg, v.keys.AddComment):
		if !v.found {
			return v, nil
		}
		v.commentInputFocused = true
		return v, v.commentInput.Focus()

	case key.Matches(msg, v.keys.Delete):
		if !v.found || v.cursor >= len(v.task.Comments) {
			return v, nil
		}
		if v.task.Comments[v.cursor].Pending() {
			return v, nil
		}
		taskID, index := v.taskID, v.cursor
		return v, run("delete_comment", taskID, func() error {
			return v.mut.DeleteComment(v.ctx, taskID, index)
		})

	case key.Matches(msg, v.keys.Done):
		if !v.found || v.task.Completed() {
			return v, nil
		}
		id := v.taskID
		return v, run("mark_done", id, func() error { return v.mut.MarkDone(v.ctx, id) })

	case key.Matches(msg, v.keys.Status):
		if !v.found {
			return v, nil
		}
		id, next := v.taskID, v.task.Status.Next()
		return v, run("update", id, func() error {
			return v.mut.Update(v.ctx, id, models.TaskPatch{Status: &next})
		})
	}
	return v, nil
}

func (v *TaskDetailView) updateCommentInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.commentInputFocused = false
		v.commentInput.Blur()
		return v, nil

	case key.Matches(msg, v.keys.Submit):
		text := strings.TrimSpace(v.commentInput.Value())
		v.commentInput.Reset()
		v.commentInputFocused = false
		v.commentInput.Blur()
		if text == "" {
			return v, nil
		}
		id := v.taskID
		return v, run("add_comment", id, func() error { return v.mut.AddComment(v.ctx, id, text) })
	}

	var cmd tea.Cmd
	v.commentInput, cmd = v.commentInput.Update(msg)
	return v, cmd
}

// View renders the view
func (v *TaskDetailView) View() string {
	s := v.styles
	if !v.found {
		content := lipgloss.JoinVertical(lipgloss.Left,
			s.TitleMuted.Render("This task no longer exists."),
			"",
			s.Help.Render(s.HelpKey.Render("esc")+" back"),
		)
		return styles.CenterView(lipgloss.NewStyle().Padding(1, 2).Render(content), v.width, v.height)
	}

	task := v.task
	textWidth := clamp(styles.ContentWidth(v.width)-10, 20, 70)
	labelStyle := s.TitleMuted

	descText := task.Description
	if descText == "" {
		descText = s.TitleMuted.Render("No description")
	}
	due := "None"
	if task.DueDate != nil {
		due = task.DueDate.Local().Format("Mon Jan 2, 2006")
	}
	assignee := task.Assignee
	if assignee == "" {
		assignee = "Unassigned"
	}
	categoryLine := s.TitleMuted.Render("None")
	if len(task.Categories) > 0 {
		var chips []string
		for _, c := range task.Categories {
			chips = append(chips, s.Category.Render(c))
		}
		categoryLine = lipgloss.JoinHorizontal(lipgloss.Left, chips...)
	}

	commentInputStyle := s.Input
	if v.commentInputFocused {
		commentInputStyle = s.InputFocused
	}

	var helpText string
	if v.commentInputFocused {
		helpText = s.Help.Render(fmt.Sprintf("%s submit • %s cancel",
			s.HelpKey.Render("ctrl+s"),
			s.HelpKey.Render("esc"),
		))
	} else {
		helpText = s.Help.Render(fmt.Sprintf("%s comment • %s delete comment • %s done • %s status • %s back",
			s.HelpKey.Render("a"),
			s.HelpKey.Render("d"),
			s.HelpKey.Render("x"),
			s.HelpKey.Render("s"),
			s.HelpKey.Render("esc"),
		))
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		s.Title.MarginBottom(1).Render(task.Title),
		labelStyle.Render("Status")+"  "+string(task.Status)+"   "+
			labelStyle.Render("Priority")+"  "+s.TaskPriority.Render(string(task.Priority)),
		labelStyle.Render("Due")+"  "+due+"   "+labelStyle.Render("Assignee")+"  "+assignee,
		"",
		labelStyle.Render("Categories"),
		categoryLine,
		"",
		labelStyle.Render("Description"),
		lipgloss.NewStyle().Width(textWidth).Render(descText),
		"",
		labelStyle.Render(fmt.Sprintf("Comments (%d)", len(task.Comments))),
		v.renderComments(textWidth),
		"",
		commentInputStyle.Render(v.commentInput.View()),
		"",
		helpText,
	)

	padded := lipgloss.NewStyle().Padding(1, 2).Render(content)
	return styles.CenterView(padded, v.width, v.height)
}

func (v *TaskDetailView) renderComments(width int) string {
	s := v.styles
	if len(v.task.Comments) == 0 {
		return s.TitleMuted.Render("No comments yet")
	}

	var lines []string
	for i, c := range v.task.Comments {
		header := c.Author
		switch {
		case c.Pending():
			header += " · sending..."
		case c.CreatedAt != nil:
			header += " · " + c.CreatedAt.Local().Format("Jan 2, 2006 3:04 PM")
		}
		itemStyle := s.ListItem
		if i == v.cursor && !v.commentInputFocused {
			itemStyle = s.ListSelected
		}
		lines = append(lines, itemStyle.Width(width).Render(
			lipgloss.JoinVertical(lipgloss.Left,
				s.TitleMuted.Render(header),
				c.Text,
			),
		))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
