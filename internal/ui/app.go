package ui

import (
	"context"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/taskdeck/internal/cache"
	"github.com/tgienger/taskdeck/internal/categories"
	"github.com/tgienger/taskdeck/internal/db"
	"github.com/tgienger/taskdeck/internal/logging"
	"github.com/tgienger/taskdeck/internal/mutation"
	"github.com/tgienger/taskdeck/internal/session"
	"github.com/tgienger/taskdeck/internal/ui/styles"
	"github.com/tgienger/taskdeck/internal/ui/views"
)

// Currently active view
type View int

const (
	ViewTasks View = iota
	ViewDetail
	ViewCategories
)

// Session is the part of the session the UI reads and drives
type Session interface {
	State() session.State
	Refresh(ctx context.Context) error
	Categories() []categories.Aggregate
}

// Settings persists UI preferences
type Settings interface {
	SetSetting(key, value string) error
}

type refreshDone struct {
	err error
}

type App struct {
	ctx      context.Context
	session  Session
	store    *cache.Store
	mut      views.Mutator
	bus      *mutation.Bus
	settings Settings
	log      *slog.Logger

	storeCh  chan cache.Change
	noticeCh chan mutation.Notice

	currentView View
	taskList    *views.TaskListView
	detail      *views.TaskDetailView
	categories  *views.CategoriesView
	toasts      *views.Toasts
	styles      *styles.Styles

	width  int
	height int
}

// NewApp creates the application model. Call Close once the program exits.
func NewApp(ctx context.Context, sess Session, store *cache.Store, mut views.Mutator, bus *mutation.Bus, settings Settings) *App {
	return &App{
		ctx:         ctx,
		session:     sess,
		store:       store,
		mut:         mut,
		bus:         bus,
		settings:    settings,
		log:         logging.Logger("ui"),
		storeCh:     store.Subscribe(),
		noticeCh:    bus.Subscribe(),
		currentView: ViewTasks,
		taskList:    views.NewTaskListView(ctx, store, mut),
		categories:  views.NewCategoriesView(sess.Categories),
		toasts:      views.NewToasts(),
		styles:      styles.NewStyles(),
	}
}

// Close releases the store and notice subscriptions
func (a *App) Close() {
	a.store.Unsubscribe(a.storeCh)
	a.bus.Unsubscribe(a.noticeCh)
}

// SetInFlightTTL bounds how long an in-flight toast waits for its outcome
func (a *App) SetInFlightTTL(d time.Duration) {
	a.toasts.SetInFlightTTL(d)
}

// CurrentView reports which view has focus
func (a *App) CurrentView() View {
	return a.currentView
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(
		waitForChange(a.storeCh),
		views.WaitForNotice(a.noticeCh),
	)
}

// waitForChange blocks for the next store change and folds any queued
// changes into the same message
func waitForChange(ch <-chan cache.Change) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		for {
			select {
			case _, ok := <-ch:
				if !ok {
					return views.StoreChanged{}
				}
			default:
				return views.StoreChanged{}
			}
		}
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	toastCmd := a.toasts.Update(msg)

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		inner := a.innerSize()
		a.taskList.Update(inner)
		a.categories.Update(inner)
		if a.detail != nil {
			a.detail.Update(inner)
		}
		return a, nil

	case views.StoreChanged:
		a.broadcast(msg)
		return a, waitForChange(a.storeCh)

	case views.NoticeMsg:
		return a, tea.Batch(a.toasts.Push(msg.Notice), views.WaitForNotice(a.noticeCh))

	case views.OpenTask:
		a.detail = views.NewTaskDetailView(a.ctx, a.store, a.mut, msg.ID)
		a.detail.Update(a.innerSize())
		a.currentView = ViewDetail
		return a, nil

	case views.OpenCategories:
		a.categories.Update(views.StoreChanged{})
		a.currentView = ViewCategories
		return a, nil

	case views.BackToTasks:
		a.currentView = ViewTasks
		a.detail = nil
		return a, nil

	case views.FilterCategory:
		_, cmd := a.taskList.Update(msg)
		return a, cmd

	case views.ToggleTheme:
		name := styles.ToggleTheme()
		if err := a.settings.SetSetting(db.KeyTheme, name); err != nil {
			a.log.Warn("failed to save theme", "theme", name, "error", err)
		}
		a.restyle()
		return a, nil

	case views.RefreshTasks:
		ctx := a.ctx
		return a, func() tea.Msg {
			return refreshDone{err: a.session.Refresh(ctx)}
		}

	case refreshDone:
		if msg.err != nil {
			a.log.Warn("refresh failed", "error", msg.err)
		}
		return a, nil
	}

	var cmd tea.Cmd
	switch a.currentView {
	case ViewDetail:
		if a.detail != nil {
			_, cmd = a.detail.Update(msg)
		}
	case ViewCategories:
		_, cmd = a.categories.Update(msg)
	default:
		_, cmd = a.taskList.Update(msg)
	}
	if _, ok := msg.(tea.KeyMsg); !ok && a.currentView != ViewTasks {
		// mutation results started elsewhere still reach the list
		a.taskList.Update(msg)
	}
	return a, tea.Batch(cmd, toastCmd)
}

func (a *App) broadcast(msg tea.Msg) {
	a.taskList.Update(msg)
	a.categories.Update(msg)
	if a.detail != nil {
		a.detail.Update(msg)
	}
}

func (a *App) restyle() {
	a.styles = styles.NewStyles()
	a.taskList.Restyle()
	a.categories.Restyle()
	a.toasts.Restyle()
	if a.detail != nil {
		a.detail.Restyle()
	}
}

// innerSize leaves room for the status bar and toasts
func (a *App) innerSize() tea.WindowSizeMsg {
	return tea.WindowSizeMsg{Width: a.width, Height: max(a.height-2, 0)}
}

func (a *App) View() string {
	var body string
	switch a.currentView {
	case ViewDetail:
		if a.detail != nil {
			body = a.detail.View()
		}
	case ViewCategories:
		body = a.categories.View()
	default:
		body = a.taskList.View()
	}

	parts := []string{a.renderStatusBar(), body}
	if t := a.toasts.View(); t != "" {
		parts = append(parts, lipgloss.PlaceHorizontal(styles.ContentWidth(a.width), lipgloss.Right, t))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (a *App) renderStatusBar() string {
	s := a.styles
	st := a.session.State()

	var left string
	switch {
	case st.Loading:
		left = "Loading..."
	case st.SignedIn:
		left = st.User.Name
	default:
		left = "Not signed in. Run 'taskdeck login'."
	}

	right := ""
	switch {
	case st.Err != "":
		right = lipgloss.NewStyle().Foreground(styles.Current.Error).Render(st.Err)
	case !st.LastSync.IsZero():
		right = "synced " + st.LastSync.Local().Format(time.Kitchen)
	}

	width := styles.ContentWidth(a.width)
	gap := max(width-lipgloss.Width(left)-lipgloss.Width(right)-2, 1)
	return s.StatusBar.Render(left + lipgloss.NewStyle().Width(gap).Render("") + right)
}
