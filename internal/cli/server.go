package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/tgienger/taskdeck/internal/logging"
	"github.com/tgienger/taskdeck/internal/testutil"
	"github.com/tgienger/taskdeck/internal/wire"
)

var fakeServerCmd = &cobra.Command{
	Use:   "fake-server",
	Short: "Serve an in-memory task backend for local demos",
	Args:  cobra.NoArgs,
	RunE:  runFakeServer,
}

func init() {
	fakeServerCmd.Flags().String("addr", ":3000", "Listen address")
	fakeServerCmd.Flags().Bool("seed", true, "Create a demo account and sample tasks")
}

func runFakeServer(cmd *cobra.Command, args []string) error {
	addr, _ := cmd.Flags().GetString("addr")
	seed, _ := cmd.Flags().GetBool("seed")
	log := logging.Logger("fake-server")

	fake := testutil.NewFakeAPI()
	if seed {
		token := seedDemo(fake)
		fmt.Fprintf(cmd.OutOrStdout(), "Demo account: demo@example.com / demo (token %s)\n", token)
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           otelhttp.NewHandler(fake, "taskdeck-fake"),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	fmt.Fprintf(cmd.OutOrStdout(), "fake backend listening on %s\n", addr)
	log.Info("fake backend listening", "addr", addr)

	select {
	case err := <-errCh:
		return err
	case <-cmd.Context().Done():
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func seedDemo(fake *testutil.FakeAPI) string {
	token := fake.AddUser("Demo", "demo@example.com", "demo")
	now := time.Now().UTC().Truncate(time.Millisecond)
	due := now.Add(72 * time.Hour)
	desc := "Collect feedback from the last sprint"
	demo := wire.Creator{Name: "Demo", Email: "demo@example.com"}

	fake.Seed(
		wire.Task{ID: "t-1", Title: "Landing page hero", Priority: "high", Status: "in-progress",
			Categories: []string{"Web Design"}, AssignedTo: "demo@example.com", CreatedBy: demo,
			CreatedOn: now, LastUpdated: now, DueDate: &due, Comments: []wire.Comment{}},
		wire.Task{ID: "t-2", Title: "Checkout flow", Priority: "medium", Status: "completed", Done: true,
			Categories: []string{"Web Development", "UI/UX"}, AssignedTo: "demo@example.com", CreatedBy: demo,
			CreatedOn: now, LastUpdated: now, Comments: []wire.Comment{
				{ID: "c-1", Name: "Demo", Comment: "Shipped to staging", CreatedAt: &now},
			}},
		wire.Task{ID: "t-3", Title: "Retro notes", Priority: "low", Status: "upcoming", Description: &desc,
			Categories: []string{"Content Writing"}, CreatedBy: demo,
			CreatedOn: now, LastUpdated: now, Comments: []wire.Comment{}},
		wire.Task{ID: "t-4", Title: "App store listing", Priority: "medium", Status: "in-review",
			Categories: []string{"Mobile App", "Marketing"}, AssignedTo: "demo@example.com", CreatedBy: demo,
			CreatedOn: now, LastUpdated: now, Comments: []wire.Comment{}},
	)
	return token
}
