package cli_test

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/warp/internal/cli"
	"github.com/aretw0/warp/internal/config"
	"github.com/aretw0/warp/internal/logging"
	"github.com/aretw0/warp/pkg/agent"
	"github.com/aretw0/warp/pkg/enginetest"
	"github.com/aretw0/warp/pkg/graph"
	"github.com/aretw0/warp/pkg/ports"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Engine.Reconnect = false
	cfg.Engine.RequestTimeout = "2s"
	cfg.Drafts.Backend = config.DraftsMemory
	cfg.UI.Color = false
	return cfg
}

func open(t *testing.T, opts ...cli.SessionOption) (*cli.Session, *enginetest.Engine, context.Context) {
	t.Helper()
	color.NoColor = true
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)

	engine := enginetest.New(enginetest.WithLogger(logging.NewNop()))
	opts = append([]cli.SessionOption{
		cli.WithDialer(engine.Dialer(ctx)),
		cli.WithSessionLogger(logging.NewNop()),
		cli.WithSessionNotifier(ports.NopNotifier{}),
	}, opts...)
	s, err := cli.Open(ctx, testConfig(), &bytes.Buffer{}, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, engine, ctx
}

func TestOpen_InvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Engine.Transport = "carrier-pigeon"
	_, err := cli.Open(context.Background(), cfg, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestDraftStore_Backends(t *testing.T) {
	mr := miniredis.RunT(t)

	tests := []struct {
		name    string
		backend string
		setup   func(*config.Config)
	}{
		{name: "memory", backend: config.DraftsMemory},
		{name: "file", backend: config.DraftsFile, setup: func(c *config.Config) { c.Drafts.Dir = t.TempDir() }},
		{name: "redis", backend: config.DraftsRedis, setup: func(c *config.Config) {
			c.Drafts.RedisURL = "redis://" + mr.Addr()
			c.Drafts.TTL = "1h"
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.Drafts.Backend = tt.backend
			if tt.setup != nil {
				tt.setup(cfg)
			}
			store, closer, err := cli.DraftStore(cfg)
			require.NoError(t, err)
			if closer != nil {
				defer closer.Close()
			}
			ports.RunDraftStoreContract(t, store)
		})
	}

	cfg := testConfig()
	cfg.Drafts.Backend = "tape"
	_, _, err := cli.DraftStore(cfg)
	assert.Error(t, err)
}

func TestListWorkflows_CreatesDefault(t *testing.T) {
	s, _, ctx := open(t)
	var out bytes.Buffer
	require.NoError(t, cli.ListWorkflows(ctx, s, cli.Printer{W: &out}))
	assert.Contains(t, out.String(), "New Workflow")
}

func TestImportShowExport(t *testing.T) {
	s, _, ctx := open(t)

	g := graph.New()
	g.AddWindow(graph.Point{X: 0, Y: 0}, graph.Size{Width: 400, Height: 300}, "Inbox")
	g.AddNote(graph.Point{X: 500, Y: 0}, graph.Size{Width: 200, Height: 100}, "# Read me")
	data, err := g.Serialize().YAML()
	require.NoError(t, err)

	id, err := cli.ImportWorkflow(ctx, s, "", "Imported", data)
	require.NoError(t, err)
	require.NotEmpty(t, id)
	assert.Equal(t, "Imported", s.Workspace.Name())

	var summary bytes.Buffer
	p := cli.Printer{W: &summary, Markdown: func(s string) (string, error) { return "rendered:" + s, nil }}
	require.NoError(t, cli.ShowWorkflow(ctx, s, p, id, cli.FormatSummary))
	assert.Contains(t, summary.String(), "Imported")
	assert.Contains(t, summary.String(), "0 nodes, 0 links, 1 windows, 1 notes")
	assert.Contains(t, summary.String(), "rendered:# Read me")

	var mermaid bytes.Buffer
	require.NoError(t, cli.ShowWorkflow(ctx, s, cli.Printer{W: &mermaid}, id, cli.FormatMermaid))
	assert.True(t, strings.HasPrefix(mermaid.String(), "graph LR"))
	assert.Contains(t, mermaid.String(), `["Inbox"]`)

	var exported bytes.Buffer
	require.NoError(t, cli.ExportWorkflow(ctx, s, cli.Printer{W: &exported}, id))
	snap, err := graph.SnapshotFromYAML(exported.Bytes())
	require.NoError(t, err)
	back, err := graph.Deserialize(snap)
	require.NoError(t, err)
	assert.Equal(t, 2, back.Len())

	var asJSON bytes.Buffer
	require.NoError(t, cli.ShowWorkflow(ctx, s, cli.Printer{W: &asJSON}, id, cli.FormatJSON))
	assert.True(t, strings.HasPrefix(asJSON.String(), "{"))
}

func TestImportWorkflow_RejectsInvalidLayout(t *testing.T) {
	s, engine, ctx := open(t)
	_, err := cli.ImportWorkflow(ctx, s, "", "Broken", []byte("cells: 12\n"))
	assert.Error(t, err)
	assert.Empty(t, engine.Received("workflow_save_request"))
}

func TestDeleteWorkflow_Declined(t *testing.T) {
	s, _, ctx := open(t)
	id, err := s.Workspace.CreateWorkflow(ctx, "Keep")
	require.NoError(t, err)

	no := ports.ConfirmFunc(func(string) bool { return false })
	assert.ErrorIs(t, cli.DeleteWorkflow(ctx, s, no, id), cli.ErrCancelled)
	require.NoError(t, cli.DeleteWorkflow(ctx, s, cli.AlwaysConfirm, id))
}

func TestDrafts_ListAndRestore(t *testing.T) {
	s, engine, ctx := open(t)
	id, err := s.Workspace.CreateWorkflow(ctx, "Flaky")
	require.NoError(t, err)
	s.Workspace.Graph().AddNote(graph.Point{}, graph.Size{Width: 100, Height: 50}, "draft")

	engine.Fail("workflow_save_request", "disk full")
	require.Error(t, s.Workspace.SaveWorkflow(ctx))
	pending := s.Notifications.Pending()
	require.NotEmpty(t, pending)
	assert.Equal(t, ports.LevelError, pending[len(pending)-1].Level)
	s.Notifications.DismissAll()

	var out bytes.Buffer
	require.NoError(t, cli.ListDrafts(ctx, s, cli.Printer{W: &out}))
	assert.Contains(t, out.String(), id)

	engine.Recover("workflow_save_request")
	require.NoError(t, cli.RestoreDraft(ctx, s, id))
	assert.Len(t, s.Workspace.Graph().OfKind(graph.KindNote), 1)
	_, err = s.Workspace.Drafts().Load(ctx, id)
	assert.ErrorIs(t, err, ports.ErrDraftNotFound)
}

func TestAgents_Commands(t *testing.T) {
	s, engine, ctx := open(t, cli.WithConfirmer(cli.AlwaysConfirm))

	var created bytes.Buffer
	require.NoError(t, cli.CreateAgent(ctx, s, cli.Printer{W: &created}, "Greeter", "wf-1"))
	id := strings.TrimSpace(created.String())
	require.NotEmpty(t, id)

	require.NoError(t, cli.SetVar(ctx, s, id, "count", "3"))
	require.NoError(t, cli.SetVar(ctx, s, id, "mood", "happy"))
	require.NoError(t, cli.AddVar(ctx, s, id, "tags", "array"))
	assert.Error(t, cli.AddVar(ctx, s, id, "x", "blob"))

	a, ok := engine.Agent(id)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"count": 3.0, "mood": "happy", "tags": []any{}}, a.Vars)

	var q bytes.Buffer
	require.NoError(t, cli.ExportVars(ctx, s, cli.Printer{W: &q}, id, cli.FormatJSON, ".mood"))
	assert.Equal(t, "\"happy\"\n", q.String())

	require.NoError(t, cli.ImportVars(ctx, s, id, []byte("extra: yes\n")))
	require.NoError(t, cli.DeleteVar(ctx, s, id, "mood"))
	a, _ = engine.Agent(id)
	assert.NotContains(t, a.Vars, "mood")
	assert.Contains(t, a.Vars, "extra")

	require.NoError(t, cli.SetAgentStarted(ctx, s, id, true))
	var shown bytes.Buffer
	require.NoError(t, cli.ShowAgent(ctx, s, cli.Printer{W: &shown}, id, cli.FormatSummary))
	assert.Contains(t, shown.String(), "running")
	require.NoError(t, cli.SetAgentStarted(ctx, s, id, false))

	var list bytes.Buffer
	require.NoError(t, cli.ListAgents(ctx, s, cli.Printer{W: &list}))
	assert.Contains(t, list.String(), "Greeter")

	require.NoError(t, cli.DeleteAgent(ctx, s, id))
	_, ok = engine.Agent(id)
	assert.False(t, ok)
}

func TestDeleteVar_Declined(t *testing.T) {
	no := ports.ConfirmFunc(func(string) bool { return false })
	s, _, ctx := open(t, cli.WithConfirmer(no))
	var created bytes.Buffer
	require.NoError(t, cli.CreateAgent(ctx, s, cli.Printer{W: &created}, "Greeter", ""))
	id := strings.TrimSpace(created.String())
	require.NoError(t, cli.AddVar(ctx, s, id, "mood", "text"))
	assert.ErrorIs(t, cli.DeleteVar(ctx, s, id, "mood"), agent.ErrDeclined)
}

func TestQuery(t *testing.T) {
	data := map[string]any{"tags": []any{"a", "b"}, "name": "warp"}

	v, err := cli.Query(context.Background(), ".name", data)
	require.NoError(t, err)
	assert.Equal(t, "warp", v)

	v, err = cli.Query(context.Background(), ".tags[]", data)
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b"}, v)

	v, err = cli.Query(context.Background(), ".missing", data)
	require.NoError(t, err)
	assert.Nil(t, v)

	_, err = cli.Query(context.Background(), ".[", data)
	assert.Error(t, err)
}

func TestPromptConfirmer(t *testing.T) {
	var out bytes.Buffer
	c := cli.PromptConfirmer(strings.NewReader("y\nno\n"), &out)
	assert.True(t, c.Confirm("Delete?"))
	assert.False(t, c.Confirm("Delete?"))
	assert.False(t, c.Confirm("Delete?"))
	assert.Equal(t, "Delete? [y/N] Delete? [y/N] Delete? [y/N] ", out.String())
}
