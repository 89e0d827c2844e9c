package ui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tgienger/taskdeck/internal/cache"
	"github.com/tgienger/taskdeck/internal/categories"
	"github.com/tgienger/taskdeck/internal/db"
	"github.com/tgienger/taskdeck/internal/models"
	"github.com/tgienger/taskdeck/internal/mutation"
	"github.com/tgienger/taskdeck/internal/session"
	"github.com/tgienger/taskdeck/internal/ui/styles"
	"github.com/tgienger/taskdeck/internal/ui/views"
)

type fakeSession struct {
	state     session.State
	store     *cache.Store
	refreshes int
}

func (f *fakeSession) State() session.State { return f.state }

func (f *fakeSession) Refresh(ctx context.Context) error {
	f.refreshes++
	return nil
}

func (f *fakeSession) Categories() []categories.Aggregate {
	return categories.Compute(f.store.List())
}

type memSettings map[string]string

func (m memSettings) SetSetting(key, value string) error {
	m[key] = value
	return nil
}

type noopMutator struct{}

func (noopMutator) Create(context.Context, models.Task) (models.Task, error) {
	return models.Task{}, nil
}
func (noopMutator) Update(context.Context, string, models.TaskPatch) error { return nil }
func (noopMutator) MarkDone(context.Context, string) error                 { return nil }
func (noopMutator) Delete(context.Context, string) error                   { return nil }
func (noopMutator) AddComment(context.Context, string, string) error       { return nil }
func (noopMutator) DeleteComment(context.Context, string, int) error       { return nil }

func newTestApp(t *testing.T) (*App, *cache.Store, *mutation.Bus, memSettings, *fakeSession) {
	t.Helper()
	store := cache.New()
	store.Insert(models.Task{ID: "1", Title: "Ship it", Status: models.StatusUpcoming, Categories: []string{"Ops"}})
	bus := mutation.NewBus()
	settings := memSettings{}
	sess := &fakeSession{
		store: store,
		state: session.State{SignedIn: true, User: models.User{Name: "Ada"}},
	}
	app := NewApp(context.Background(), sess, store, noopMutator{}, bus, settings)
	t.Cleanup(app.Close)
	app.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return app, store, bus, settings, sess
}

func TestAppNavigation(t *testing.T) {
	app, _, _, _, _ := newTestApp(t)

	app.Update(views.OpenTask{ID: "1"})
	if app.CurrentView() != ViewDetail {
		t.Fatalf("Expected detail view, got %v", app.CurrentView())
	}
	if !strings.Contains(app.View(), "Ship it") {
		t.Error("Expected the detail view to show the task title")
	}

	app.Update(views.BackToTasks{})
	app.Update(views.OpenCategories{})
	if app.CurrentView() != ViewCategories {
		t.Fatalf("Expected categories view, got %v", app.CurrentView())
	}
	app.Update(views.BackToTasks{})
	if app.CurrentView() != ViewTasks {
		t.Errorf("Expected task list, got %v", app.CurrentView())
	}
}

func TestAppToggleThemePersists(t *testing.T) {
	styles.SetTheme("dark")
	t.Cleanup(func() { styles.SetTheme("dark") })

	app, _, _, settings, _ := newTestApp(t)
	app.Update(views.ToggleTheme{})
	if styles.Current.Name != "light" {
		t.Errorf("Expected light theme, got %s", styles.Current.Name)
	}
	if settings[db.KeyTheme] != "light" {
		t.Errorf("Expected theme to be saved, got %q", settings[db.KeyTheme])
	}
}

func TestAppRefresh(t *testing.T) {
	app, _, _, _, sess := newTestApp(t)
	_, cmd := app.Update(views.RefreshTasks{})
	app.Update(cmd())
	if sess.refreshes != 1 {
		t.Errorf("Expected one refresh, got %d", sess.refreshes)
	}
}

func TestAppListensToStoreAndNotices(t *testing.T) {
	app, store, bus, _, _ := newTestApp(t)
	cmd := app.Init()
	if cmd == nil {
		t.Fatal("Expected listener commands")
	}

	store.Insert(models.Task{ID: "2", Title: "Follow up"})
	msg := waitForChange(app.storeCh)()
	if _, ok := msg.(views.StoreChanged); !ok {
		t.Fatalf("Expected StoreChanged, got %#v", msg)
	}
	app.Update(msg)
	if !strings.Contains(app.View(), "Follow up") {
		t.Error("Expected the new task in the list")
	}

	bus.Publish(mutation.Notice{OpID: "op", Phase: mutation.PhaseSucceeded, Message: "Task created", TTL: time.Minute})
	app.Update(views.WaitForNotice(app.noticeCh)())
	if !strings.Contains(app.View(), "Task created") {
		t.Error("Expected the toast to render")
	}
}

func TestAppStatusBar(t *testing.T) {
	app, _, _, _, sess := newTestApp(t)
	if !strings.Contains(app.View(), "Ada") {
		t.Error("Expected the signed-in user in the status bar")
	}

	sess.state = session.State{Err: "database offline"}
	if !strings.Contains(app.View(), "database offline") {
		t.Error("Expected the session error in the status bar")
	}
}
