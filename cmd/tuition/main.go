// Command tuition is the terminal front end of Tuitionbook. Run it without
// arguments for the list of subcommands.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mmynk/tuitionbook/internal/api"
	"github.com/mmynk/tuitionbook/internal/checkout"
	"github.com/mmynk/tuitionbook/internal/config"
	"github.com/mmynk/tuitionbook/internal/gateway"
	"github.com/mmynk/tuitionbook/internal/netwatch"
	"github.com/mmynk/tuitionbook/internal/session"
	"github.com/mmynk/tuitionbook/internal/storage/sqlite"
	"github.com/mmynk/tuitionbook/pkg/logging"
)

func main() {
	os.Exit(realMain())
}

func realMain() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		return 1
	}
	logging.Setup(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	storage, closeStorage, err := openSessionStorage(cfg)
	if err != nil {
		slog.Error("Failed to open session storage", "backend", cfg.SessionBackend, "error", err)
		return 1
	}
	defer closeStorage()

	sess := session.New(storage)
	if err := sess.Rehydrate(ctx); err != nil {
		slog.Warn("Starting signed out", "error", err)
	}

	gw := gateway.New(cfg.APIURL, sess,
		gateway.WithTimeout(cfg.RequestTimeout),
		gateway.WithForceLogoutStatuses(cfg.ForceLogoutStatuses...),
		gateway.WithLogoutHook(sess.ForceLogout),
		gateway.WithRequestLogging(cfg.ShowAllRequestURL),
	)

	if cfg.NetwatchPingURL != "" {
		w := netwatch.New(cfg.NetwatchPingURL, cfg.NetwatchInterval)
		w.Subscribe(func(online bool) {
			if !online {
				fmt.Fprintln(os.Stderr, netwatch.OfflineMessage)
			}
		})
		go w.Run(ctx)
	}

	// One buffered reader for every prompt, the checkout prompt included.
	in := bufio.NewReader(os.Stdin)
	notify := &notifier{out: os.Stdout, errOut: os.Stderr}
	cli := &commandLine{
		api:      api.New(gw),
		session:  sess,
		notify:   notify,
		checkout: newCheckout(cfg, in, os.Stdout),
		keyID:    cfg.CheckoutKeyID,
		in:       in,
		out:      os.Stdout,
	}

	err = cli.run(ctx, os.Args)
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errHelp):
		return 2
	default:
		if !notify.shownError() {
			fmt.Fprintln(os.Stderr, "error:", cliMessage(err))
		}
		return 1
	}
}

// openSessionStorage returns the configured session backend and its closer.
func openSessionStorage(cfg *config.Config) (session.Storage, func(), error) {
	if cfg.SessionBackend == config.SessionBackendSQLite {
		kv, err := sqlite.NewKV(cfg.SessionPath)
		if err != nil {
			return nil, nil, err
		}
		return kv, func() { kv.Close() }, nil
	}
	return session.NewFileStorage(cfg.SessionPath), func() {}, nil
}

// newCheckout completes payments locally when the checkout secret is known,
// which is the case against the reference server. Otherwise the payer pastes
// the gateway's result.
func newCheckout(cfg *config.Config, in io.Reader, out io.Writer) checkout.Checkout {
	if cfg.CheckoutKeySecret != "" {
		return checkout.Sandbox{Secret: cfg.CheckoutKeySecret}
	}
	return checkout.Prompt{In: in, Out: out}
}
