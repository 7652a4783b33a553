package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/aretw0/warp/internal/presentation/tui"
	httpAdapter "github.com/aretw0/warp/pkg/adapters/http"
	"github.com/aretw0/warp/pkg/adapters/jsonl"
	"github.com/aretw0/warp/pkg/enginetest"
)

// ShutdownTimeout bounds the graceful shutdown of the dev engine.
const ShutdownTimeout = 5 * time.Second

// DevEngine serves the in-memory engine over websocket and, optionally,
// newline delimited JSON on a raw TCP port.
type DevEngine struct {
	HTTPAddr  string
	JSONLAddr string
	Version   string
	Logger    *slog.Logger
	Out       io.Writer

	// Ready, when set, receives the bound addresses once both listeners
	// are up.
	Ready func(httpAddr, jsonlAddr string)
}

// Run blocks until ctx is cancelled or a listener fails.
func (d *DevEngine) Run(ctx context.Context) error {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	engine := enginetest.New(enginetest.WithLogger(logger))
	handler := httpAdapter.NewHandler(engine,
		httpAdapter.WithLogger(logger),
		httpAdapter.WithVersion(d.Version),
	)

	httpLn, err := net.Listen("tcp", d.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", d.HTTPAddr, err)
	}
	srv := &http.Server{Handler: handler, ReadHeaderTimeout: 10 * time.Second}

	serverErrors := make(chan error, 2)
	go func() {
		if err := srv.Serve(httpLn); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	jsonlAddr := ""
	var jsonlLn net.Listener
	if d.JSONLAddr != "" {
		jsonlLn, err = net.Listen("tcp", d.JSONLAddr)
		if err != nil {
			_ = srv.Close()
			return fmt.Errorf("listen %s: %w", d.JSONLAddr, err)
		}
		jsonlAddr = jsonlLn.Addr().String()
		go func() {
			serverErrors <- serveJSONL(ctx, jsonlLn, engine, logger)
		}()
	}

	if d.Out != nil {
		tui.PrintBanner(d.Out, "dev engine")
		fmt.Fprintf(d.Out, "websocket  ws://%s/ws\n", httpLn.Addr())
		if jsonlAddr != "" {
			fmt.Fprintf(d.Out, "jsonl      tcp://%s\n", jsonlAddr)
		}
	}
	if d.Ready != nil {
		d.Ready(httpLn.Addr().String(), jsonlAddr)
	}

	select {
	case err := <-serverErrors:
		_ = srv.Close()
		if jsonlLn != nil {
			_ = jsonlLn.Close()
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("dev engine shutting down")
	if jsonlLn != nil {
		_ = jsonlLn.Close()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown did not complete", "timeout", ShutdownTimeout, "error", err)
		return srv.Close()
	}
	return nil
}

func serveJSONL(ctx context.Context, ln net.Listener, engine *enginetest.Engine, logger *slog.Logger) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		go func() {
			t := jsonl.NewConn(conn, jsonl.WithLogger(logger))
			defer t.Close()
			if err := engine.Serve(ctx, t); err != nil && ctx.Err() == nil {
				logger.Debug("jsonl session ended", "remote", conn.RemoteAddr().String(), "error", err)
			}
		}()
	}
}
