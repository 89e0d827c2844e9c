package api_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/tgienger/taskdeck/internal/api"
	"github.com/tgienger/taskdeck/internal/models"
	"github.com/tgienger/taskdeck/internal/testutil"
	"github.com/tgienger/taskdeck/internal/wire"
)

type staticCreds struct {
	mu      sync.Mutex
	token   string
	revoked int
}

func (c *staticCreds) Token(context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token, nil
}

func (c *staticCreds) Revoke(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
	c.revoked++
	return nil
}

func setup(t *testing.T) (*testutil.FakeAPI, *api.Client, *staticCreds) {
	t.Helper()
	fake := testutil.NewFakeAPI()
	srv := fake.Start()
	t.Cleanup(srv.Close)

	creds := &staticCreds{token: fake.AddUser("Ada", "ada@example.com", "secret")}
	return fake, api.New(srv.URL, creds), creds
}

func TestCreateThenList(t *testing.T) {
	_, client, _ := setup(t)
	ctx := context.Background()

	title := "Write report"
	status := string(models.StatusInProgress)
	created, err := client.Create(ctx, wire.TaskPatch{Title: &title, Status: &status, Categories: &[]string{"Docs"}})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected a server-assigned id")
	}
	if created.CreatedBy != "Ada" {
		t.Errorf("CreatedBy = %q, want Ada", created.CreatedBy)
	}

	tasks, err := client.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != created.ID || tasks[0].Status != models.StatusInProgress {
		t.Fatalf("List = %+v", tasks)
	}

	mine, err := client.ListCreatedByMe(ctx)
	if err != nil {
		t.Fatalf("ListCreatedByMe: %v", err)
	}
	if len(mine) != 1 {
		t.Errorf("ListCreatedByMe returned %d tasks, want 1", len(mine))
	}
}

func TestUpdateReturnsServerTask(t *testing.T) {
	fake, client, _ := setup(t)
	ctx := context.Background()
	stamp := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fake.SetClock(func() time.Time { return stamp })
	fake.Seed(wire.Task{ID: "t1", Title: "A", Priority: "low", Status: "upcoming", Categories: []string{}})

	status := string(models.StatusCompleted)
	got, err := client.Update(ctx, "t1", wire.TaskPatch{Status: &status})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Status != models.StatusCompleted || !got.UpdatedAt.Equal(stamp) {
		t.Errorf("Update = %+v", got)
	}
	if got.Title != "A" {
		t.Errorf("title changed to %q", got.Title)
	}
	if !fake.Tasks()[0].Done {
		t.Error("server should mirror status into done")
	}
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		sentinel error
	}{
		{"not found", http.StatusNotFound, api.ErrNotFound},
		{"validation", http.StatusBadRequest, api.ErrValidation},
		{"conflict", http.StatusConflict, api.ErrValidation},
		{"server", http.StatusInternalServerError, api.ErrServer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake, client, _ := setup(t)
			fake.FailNext("DELETE /api/tasks/{id}", tt.status, "nope")

			err := client.Delete(context.Background(), "t1")
			if !errors.Is(err, tt.sentinel) {
				t.Fatalf("err = %v, want %v", err, tt.sentinel)
			}
			var apiErr *api.Error
			if !errors.As(err, &apiErr) || apiErr.Status != tt.status {
				t.Fatalf("expected *api.Error with status %d, got %v", tt.status, err)
			}
			if got := api.Message(err, "fallback"); got != "nope" {
				t.Errorf("Message = %q, want nope", got)
			}
			if api.IsNoData(err) {
				t.Error("IsNoData should be false")
			}
		})
	}
}

func TestUnauthorizedRevokesCredential(t *testing.T) {
	_, client, creds := setup(t)
	creds.token = "stale"

	_, err := client.List(context.Background())
	if !errors.Is(err, api.ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
	if !api.IsNoData(err) {
		t.Error("unauthorized should count as no data")
	}
	if creds.revoked != 1 || creds.token != "" {
		t.Errorf("revoked = %d token = %q", creds.revoked, creds.token)
	}
}

func TestUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := api.New(url, nil)
	_, err := client.List(context.Background())
	if !errors.Is(err, api.ErrUnreachable) {
		t.Fatalf("err = %v, want ErrUnreachable", err)
	}
	if !api.IsNoData(err) {
		t.Error("unreachable should count as no data")
	}
	if got := api.Message(err, "Failed to load tasks"); got != "Failed to load tasks" {
		t.Errorf("Message = %q", got)
	}
}

func TestRequestHeaders(t *testing.T) {
	var gotToken, gotRequestID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("x-custom-auth")
		gotRequestID = r.Header.Get("X-Request-ID")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	t.Cleanup(srv.Close)

	client := api.New(srv.URL, &staticCreds{token: "abc"}, api.WithAuthHeader("x-custom-auth"))
	if _, err := client.List(context.Background()); err != nil {
		t.Fatalf("List: %v", err)
	}
	if gotToken != "abc" {
		t.Errorf("token header = %q", gotToken)
	}
	if gotRequestID == "" {
		t.Error("missing X-Request-ID")
	}
}

func TestPlainTextErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Task title too long", http.StatusUnprocessableEntity)
	}))
	t.Cleanup(srv.Close)

	_, err := api.New(srv.URL, nil).Get(context.Background(), "x")
	if got := api.Message(err, "fallback"); got != "Task title too long" {
		t.Errorf("Message = %q", got)
	}
}

func TestSignInAcceptsPlainToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("token-123\n"))
	}))
	t.Cleanup(srv.Close)

	token, err := api.New(srv.URL, nil).SignIn(context.Background(), "a@b.c", "pw")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if token != "token-123" {
		t.Errorf("token = %q", token)
	}
}

func TestSignInAndSignUp(t *testing.T) {
	fake := testutil.NewFakeAPI()
	srv := fake.Start()
	t.Cleanup(srv.Close)
	client := api.New(srv.URL, nil)
	ctx := context.Background()

	token, user, err := client.SignUp(ctx, "Grace", "grace@example.com", "pw")
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if token == "" || user.Name != "Grace" {
		t.Errorf("SignUp = %q %+v", token, user)
	}

	if _, err := client.SignIn(ctx, "grace@example.com", "wrong"); !errors.Is(err, api.ErrValidation) {
		t.Errorf("bad password err = %v", err)
	}
	token, err = client.SignIn(ctx, "grace@example.com", "pw")
	if err != nil || token == "" {
		t.Fatalf("SignIn = %q, %v", token, err)
	}

	me, err := api.New(srv.URL, &staticCreds{token: token}).Me(ctx)
	if err != nil {
		t.Fatalf("Me: %v", err)
	}
	if me.Email != "grace@example.com" {
		t.Errorf("Me = %+v", me)
	}
}

func TestComments(t *testing.T) {
	fake, client, _ := setup(t)
	ctx := context.Background()
	fake.Seed(wire.Task{ID: "t1", Title: "A", Priority: "low", Status: "upcoming"})

	got, err := client.AddComment(ctx, "t1", "first")
	if err != nil {
		t.Fatalf("AddComment: %v", err)
	}
	if len(got.Comments) != 1 || got.Comments[0].ID == "" || got.Comments[0].Author != "Ada" {
		t.Fatalf("comments = %+v", got.Comments)
	}

	got, err = client.DeleteComment(ctx, "t1", got.Comments[0].ID)
	if err != nil {
		t.Fatalf("DeleteComment: %v", err)
	}
	if len(got.Comments) != 0 {
		t.Errorf("comments after delete = %+v", got.Comments)
	}
	if fake.Calls("DELETE /api/tasks/{id}/comments/{commentId}") != 1 {
		t.Error("expected one delete call")
	}
}

func TestCategoriesEndpoint(t *testing.T) {
	fake, client, _ := setup(t)
	fake.Seed(
		wire.Task{ID: "1", Title: "a", Status: "completed", Categories: []string{"Web Design"}, AssignedTo: "ada@example.com"},
		wire.Task{ID: "2", Title: "b", Status: "upcoming", Categories: []string{"Web Design"}, AssignedTo: "ada@example.com"},
	)

	cats, err := client.Categories(context.Background())
	if err != nil {
		t.Fatalf("Categories: %v", err)
	}
	if len(cats) != 1 || cats[0].ProjectCount != 2 || cats[0].Percentage != 50 || cats[0].ID != "web-design" {
		t.Errorf("Categories = %+v", cats)
	}
}
