// Command revealwatch follows a group's live channel and paces its draw reveal
// in the terminal. It reconnects on failure and replays the reveal from the
// catch-up the server sends on every attach.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/net/websocket"

	"savingscircle/internal/domain"
	"savingscircle/internal/reveal"
)

type options struct {
	server   string
	groupID  string
	token    string
	interval time.Duration
	retry    time.Duration
	once     bool
}

func main() {
	var opts options
	flag.StringVar(&opts.server, "server", "http://localhost:8080", "API base URL")
	flag.StringVar(&opts.groupID, "group", "", "group ID to watch (required)")
	flag.StringVar(&opts.token, "token", os.Getenv("CIRCLE_TOKEN"), "bearer token (default $CIRCLE_TOKEN)")
	flag.DurationVar(&opts.interval, "interval", reveal.DefaultInterval, "delay between revealed positions")
	flag.DurationVar(&opts.retry, "retry", 500*time.Millisecond, "first reconnect delay; later ones back off exponentially")
	flag.BoolVar(&opts.once, "once", false, "exit after the first complete reveal")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	if opts.groupID == "" || opts.token == "" {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	syncer := reveal.New(reveal.Config{
		Interval: opts.interval,
		OnStep: func(s reveal.Step) {
			fmt.Fprintf(os.Stdout, "  #%d/%d  %s (%s)\n", s.Index, s.Total, s.Entry.DisplayName, s.Entry.MemberID)
		},
		OnComplete: func(identity string) {
			fmt.Fprintf(os.Stdout, "reveal complete: %s\n", identity)
			if opts.once {
				cancel()
			}
		},
	})
	defer syncer.Stop()

	if err := watch(ctx, opts, syncer, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("watch failed", "err", err)
		os.Exit(1)
	}
}

// watch keeps a live connection open until ctx ends, reconnecting with backoff.
func watch(ctx context.Context, opts options, syncer *reveal.Synchronizer, logger *slog.Logger) error {
	endpoint, origin, err := liveURL(opts.server, opts.groupID, opts.token)
	if err != nil {
		return backoff.Permanent(err)
	}
	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = 0
	if opts.retry > 0 {
		policy.InitialInterval = opts.retry
	}

	return backoff.RetryNotify(func() error {
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		err := follow(ctx, endpoint, origin, syncer)
		// A dropped connection abandons the reveal; the next catch-up restarts it.
		syncer.Stop()
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		if err == nil {
			policy.Reset()
			return errors.New("connection closed by server")
		}
		return err
	}, backoff.WithContext(policy, ctx), func(err error, wait time.Duration) {
		logger.Warn("live connection lost", "err", err, "retry_in", wait.Round(time.Millisecond))
	})
}

// follow reads events from one connection until it closes. A clean close returns nil.
func follow(ctx context.Context, endpoint, origin string, syncer *reveal.Synchronizer) error {
	conn, err := websocket.Dial(endpoint, "", origin)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()
	closed := make(chan struct{})
	defer close(closed)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-closed:
		}
	}()

	for {
		var ev domain.Event
		if err := websocket.JSON.Receive(conn, &ev); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("receive: %w", err)
		}
		describe(ev)
		syncer.HandleEvent(ev)
	}
}

func describe(ev domain.Event) {
	switch {
	case ev.CatchUp != nil:
		fmt.Fprintf(os.Stdout, "[%d] catch up: state=%s turn=%d positions=%d\n", ev.Seq, ev.CatchUp.State, ev.CatchUp.CurrentTurn, len(ev.CatchUp.Sequence.Entries))
	case ev.GroupFilled != nil:
		fmt.Fprintf(os.Stdout, "[%d] group filled with %d members\n", ev.Seq, ev.GroupFilled.MemberCount)
	case ev.DrawStarted != nil:
		fmt.Fprintf(os.Stdout, "[%d] draw started: %d positions\n", ev.Seq, len(ev.DrawStarted.Sequence.Entries))
	case ev.TurnAdvanced != nil:
		fmt.Fprintf(os.Stdout, "[%d] turn %d, delivery for period %d to %s\n", ev.Seq, ev.TurnAdvanced.NewTurn,
			ev.TurnAdvanced.DeliveryCreated.Period, ev.TurnAdvanced.DeliveryCreated.RecipientMemberID)
	case ev.GroupCompleted != nil:
		fmt.Fprintf(os.Stdout, "[%d] group completed at %s\n", ev.Seq, ev.GroupCompleted.EndedAt.Format(time.RFC3339))
	default:
		fmt.Fprintf(os.Stdout, "[%d] %s\n", ev.Seq, ev.Type)
	}
}

// liveURL turns an http(s) API base into the group's WebSocket endpoint and origin.
func liveURL(server, groupID, token string) (string, string, error) {
	u, err := url.Parse(strings.TrimSuffix(server, "/"))
	if err != nil {
		return "", "", fmt.Errorf("parse server URL: %w", err)
	}
	origin := u.Scheme + "://" + u.Host
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", "", fmt.Errorf("server URL must be http or https, got %q", server)
	}
	u.Path += "/groups/" + groupID + "/live"
	u.RawQuery = url.Values{"token": {token}}.Encode()
	return u.String(), origin, nil
}
