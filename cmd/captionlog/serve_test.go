package main

import (
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"github.com/rpggio/captionlog/internal/mcp"
)

const subprocessEnv = "CAPTIONLOG_TEST_SERVE_STDIO"

// TestMain runs the test binary as "captionlog serve" when re-executed by
// the stdio tests.
func TestMain(m *testing.M) {
	if os.Getenv(subprocessEnv) == "1" {
		cmd := newRootCmd()
		cmd.SetArgs([]string{"serve", "--transport", "stdio"})
		if err := cmd.ExecuteContext(context.Background()); err != nil {
			os.Exit(1)
		}
		os.Exit(0)
	}
	os.Exit(m.Run())
}

// TestServeStdio drives the serve command over stdio with the SDK client.
func TestServeStdio(t *testing.T) {
	env := newCLIEnv(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, os.Args[0])
	cmd.Env = append(os.Environ(), subprocessEnv+"=1")

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, &sdkmcp.CommandTransport{Command: cmd}, nil)
	require.NoError(t, err, "failed to connect to server")
	defer session.Close()

	t.Run("ServerInfo", func(t *testing.T) {
		initResult := session.InitializeResult()
		require.NotNil(t, initResult)
		require.NotNil(t, initResult.ServerInfo)
		require.Equal(t, "captionlog", initResult.ServerInfo.Name)
		require.Equal(t, version, initResult.ServerInfo.Version)
	})

	t.Run("ListTools", func(t *testing.T) {
		tools, err := session.ListTools(ctx, nil)
		require.NoError(t, err)

		names := make(map[string]bool)
		for _, tool := range tools.Tools {
			names[tool.Name] = true
		}
		for _, name := range []string{"user_activity", "video_activity", "team_activity", "activity_feed"} {
			require.True(t, names[name], "missing tool %s", name)
		}
	})

	t.Run("TeamActivity", func(t *testing.T) {
		res, err := session.CallTool(ctx, &sdkmcp.CallToolParams{
			Name:      "team_activity",
			Arguments: map[string]any{"team_id": env.team.ID},
		})
		require.NoError(t, err)
		require.False(t, res.IsError, "team_activity returned error: %v", res.Content)

		raw, err := json.Marshal(res.StructuredContent)
		require.NoError(t, err)
		var resp mcp.StreamResponse
		require.NoError(t, json.Unmarshal(raw, &resp))
		require.Len(t, resp.Items, 1)
		require.Equal(t, "video-added", resp.Items[0].Type)
		require.Equal(t, "alice added Intro", resp.Items[0].Text)
	})
}
