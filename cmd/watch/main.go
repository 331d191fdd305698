package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"order-tracker/internal/core/httpclient"
	"order-tracker/internal/core/logger"
	"order-tracker/internal/features/tracking/adapters"
	"order-tracker/internal/features/tracking/domain"
	"order-tracker/internal/features/tracking/service"

	"github.com/spf13/pflag"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

// run follows one order until ctx is done.
//
// Exit codes:
//
//	0 = stopped by the user
//	1 = the order could not be loaded
//	2 = usage error
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := pflag.NewFlagSet("watch", pflag.ContinueOnError)
	cmd.SetOutput(stderr)

	var (
		apiURL    string
		orderID   string
		token     string
		reconnect time.Duration
		idle      time.Duration
		logLevel  string
	)

	cmd.StringVar(&apiURL, "api", "http://localhost:8080", "Base URL of the order tracker API")
	cmd.StringVar(&orderID, "order", "", "Order ID to watch (REQUIRED)")
	cmd.StringVar(&token, "token", os.Getenv("ORDER_TRACKER_TOKEN"), "Bearer token (default $ORDER_TRACKER_TOKEN)")
	cmd.DurationVar(&reconnect, "reconnect", 2*time.Second, "Minimum spacing between reconnect attempts")
	cmd.DurationVar(&idle, "idle-timeout", adapters.DefaultIdleTimeout, "Reconnect when the stream sends nothing, not even a heartbeat, for this long (0 disables)")
	cmd.StringVar(&logLevel, "log-level", "warn", "Log level")

	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if orderID == "" {
		_, _ = fmt.Fprintln(stderr, "Error: --order is required")
		return 2
	}

	if err := logger.Init("development", logLevel); err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	defer logger.Sync()

	feed := adapters.NewSSEFeed(apiURL,
		httpclient.NewClient(0, httpclient.WithBearerToken(token)),
		adapters.WithIdleTimeout(idle),
	)
	reconciler := service.NewReconciler(feed, orderID, reconnect)
	if err := reconciler.Start(ctx); err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: unable to load tracking: %v\n", err)
		return 1
	}
	defer reconciler.Close()

	for {
		select {
		case <-ctx.Done():
			return 0
		case e, ok := <-reconciler.Events():
			if !ok {
				return 0
			}
			render(stdout, e)
		}
	}
}

func render(w io.Writer, e domain.Event) {
	switch e.Kind {
	case domain.EventSnapshot:
		_, _ = fmt.Fprintln(w, renderTimeline(*e.Timeline))
		if last, ok := e.Order.LastEvent(); ok {
			_, _ = fmt.Fprintf(w, "    latest: %s at %s, %s\n",
				last.Status.Label(), last.Location, last.Timestamp.Local().Format(time.DateTime))
		}

	case domain.EventStatusChanged:
		_, _ = fmt.Fprintf(w, "==> %s\n", e.Notice.Message)

	case domain.EventConnection:
		_, _ = fmt.Fprintf(w, "--- connection %s\n", e.State)
	}
}

func renderTimeline(p domain.Projection) string {
	if p.Special {
		return "[ " + p.Label + " ]"
	}

	parts := make([]string, 0, len(p.Stages))
	for _, s := range p.Stages {
		mark := " "
		switch {
		case s.Current && !s.Complete:
			mark = ">"
		case s.Complete:
			mark = "x"
		}
		parts = append(parts, fmt.Sprintf("[%s] %s", mark, s.Label))
	}
	return strings.Join(parts, "  ")
}
