package cli_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/aretw0/warp/internal/cli"
	"github.com/aretw0/warp/internal/config"
	"github.com/aretw0/warp/internal/logging"
	"github.com/aretw0/warp/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDevEngine_ServesBothTransports(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	type addrs struct{ http, jsonl string }
	ready := make(chan addrs, 1)
	var banner bytes.Buffer
	d := &cli.DevEngine{
		HTTPAddr:  "127.0.0.1:0",
		JSONLAddr: "127.0.0.1:0",
		Version:   "test",
		Logger:    logging.NewNop(),
		Out:       &banner,
		Ready:     func(h, j string) { ready <- addrs{h, j} },
	}
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	var a addrs
	select {
	case a = <-ready:
	case err := <-done:
		t.Fatalf("dev engine stopped: %v", err)
	}
	assert.Contains(t, banner.String(), "ws://"+a.http+"/ws")

	for name, cfg := range map[string]func(*config.Config){
		"websocket": func(c *config.Config) { c.Engine.URL = "ws://" + a.http + "/ws" },
		"jsonl": func(c *config.Config) {
			c.Engine.Transport = config.TransportJSONL
			c.Engine.URL = a.jsonl
		},
	} {
		t.Run(name, func(t *testing.T) {
			c := testConfig()
			cfg(c)
			s, err := cli.Open(ctx, c, &bytes.Buffer{},
				cli.WithSessionLogger(logging.NewNop()),
				cli.WithSessionNotifier(ports.NopNotifier{}))
			require.NoError(t, err)
			defer s.Close()

			types, err := s.Workspace.NodeTypes(ctx)
			require.NoError(t, err)
			assert.Contains(t, types, "trigger")
		})
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(shutdownWait):
		t.Fatal("dev engine did not stop")
	}
}

const shutdownWait = cli.ShutdownTimeout + 2*time.Second
