package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/mama165/sdk-go/logs"
	"golang.org/x/sync/errgroup"

	"github.com/wtask/linechat/internal/chat"
	"github.com/wtask/linechat/internal/chat/conn"
	"github.com/wtask/linechat/internal/config"
	"github.com/wtask/linechat/internal/httpserver"
	"github.com/wtask/linechat/internal/version"
)

func main() {
	r, err := parseRole(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		printUsage(os.Stderr)
		os.Exit(2)
	}
	if err := run(r); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(r role) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logs.GetLoggerFromString(cfg.LogLevel)
	slog.SetDefault(log)
	log.Debug("Started", "role", r.String(), "version", version.Get().String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if r == roleServer {
		return runServer(ctx, cfg, log)
	}
	return runClient(ctx, cfg, log)
}

func runServer(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	server, err := chat.NewServer(
		chat.DefaultBroker(cfg.HistoryGreets),
		chat.WithLogger(log),
		chat.WithConnectionLimit(cfg.MaxConnections),
		chat.WithMaxLineBytes(cfg.MaxLineBytes),
		chat.WithConnectionOptions(
			conn.WithWriteTimeout(cfg.WriteTimeout),
			conn.WithRateLimit(cfg.LineRate, cfg.LineBurst),
		),
	)
	if err != nil {
		return fmt.Errorf("can't start chat server: %w", err)
	}

	listener, err := net.Listen("tcp", cfg.ListenAddress())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.ListenAddress(), err)
	}
	log.Info("Chat server has started", "address", listener.Addr().String())

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.Serve(listener); !errors.Is(err, chat.ErrServerClosed) {
			return err
		}
		return nil
	})

	var ops *httpserver.Server
	if cfg.OpsAddress != "" {
		ops = httpserver.New(server, cfg.AllowedOrigins(), log)
		g.Go(func() error {
			return ops.Start(cfg.OpsAddress)
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		log.Info("Got stop signal")
		if ops != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			if err := ops.Shutdown(shutdownCtx); err != nil {
				log.Warn("Ops server shutdown failed", "error", err)
			}
		}
		log.Info("Chat server stopped", "elapsed", server.Shutdown(cfg.ShutdownTimeout))
		return nil
	})

	return g.Wait()
}

func runClient(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	client, err := chat.Dial(ctx, cfg.ServerAddress(), cfg.ClientName, os.Stdout,
		conn.WithLogger(log),
		conn.WithMaxLineBytes(cfg.MaxLineBytes),
		conn.WithWriteTimeout(cfg.WriteTimeout),
	)
	if err != nil {
		return err
	}
	err = client.Run(ctx, os.Stdin)
	<-client.Done()
	return err
}
