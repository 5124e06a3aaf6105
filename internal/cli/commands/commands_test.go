package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linkypi/PostSharp-1.5-sub005/internal/server"
	"github.com/linkypi/PostSharp-1.5-sub005/internal/store"
)

// execute runs the root command with args and returns stdout and stderr
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append(args, "--no-color"))
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "multicast.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestNewRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	assert.Equal(t, "multicast", cmd.Use)
	assert.NotEmpty(t, cmd.Short)

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.Subset(t, names, []string{"version", "resolve", "serve", "token"})
}

func TestVersionCommand(t *testing.T) {
	Version = "1.0.0-test"
	GitCommit = "abc123"
	defer func() { Version, GitCommit = "dev", "unknown" }()

	out, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "multicast version: 1.0.0-test")
	assert.Contains(t, out, "Git commit: abc123")
	assert.Contains(t, out, "Go version: go")
}

func TestResolveText(t *testing.T) {
	out, _, err := execute(t, "resolve", "testdata/shop.yaml")
	require.NoError(t, err)

	assert.Contains(t, out, "Shop.dll")
	assert.Contains(t, out, "Bindings: 2")
	assert.Contains(t, out, "M:Shop.Orders.Save()")
	assert.Contains(t, out, "M:Shop.Orders.Load()")
	assert.Contains(t, out, "Shop.LogAttribute")
	assert.Contains(t, out, "T:Shop.Orders")
	assert.Contains(t, out, "✓ resolved 1 module(s)")
}

func TestResolveJSON(t *testing.T) {
	out, _, err := execute(t, "resolve", "testdata/shop.yaml", "--json")
	require.NoError(t, err)

	var snaps []store.Snapshot
	require.NoError(t, json.Unmarshal([]byte(out), &snaps), out)
	require.Len(t, snaps, 1)

	snap := snaps[0]
	assert.Equal(t, "Shop", snap.Run.Assembly)
	assert.Equal(t, "Shop.dll", snap.Run.Module)
	require.Len(t, snap.Bindings, 2)
	for _, b := range snap.Bindings {
		assert.Equal(t, "Shop.LogAttribute", b.Annotation)
		assert.Equal(t, "T:Shop.Orders", b.DeclaredOn)
		assert.Equal(t, "transient", b.Storage)
		assert.Equal(t, "method", b.Kind)
	}
	assert.Empty(t, snap.Diagnostics)
}

func TestResolveFromConfiguredGraph(t *testing.T) {
	graph, err := filepath.Abs("testdata/shop.yaml")
	require.NoError(t, err)
	cfg := writeConfig(t, "graph: "+graph+"\n")

	out, _, err := execute(t, "resolve", "--config", cfg, "--json")
	require.NoError(t, err)
	assert.Contains(t, out, "Shop.LogAttribute")
}

func TestResolveWithoutGraph(t *testing.T) {
	cfg := writeConfig(t, "log:\n  level: error\n")
	_, _, err := execute(t, "resolve", "--config", cfg)
	assert.ErrorContains(t, err, "no graph document")
}

func TestResolveReportsErrors(t *testing.T) {
	out, _, err := execute(t, "resolve", "testdata/broken.yaml")
	assert.ErrorIs(t, err, ErrResolutionFailed)
	assert.Contains(t, out, "PS0051")
	assert.Contains(t, out, "Shop.LogAttribute")
	assert.NotContains(t, out, "Shop.Web.dll", "resolution stops at the first failing module")
	assert.NotContains(t, out, "✓ resolved")
}

func TestResolveReportsErrorsAsJSON(t *testing.T) {
	out, _, err := execute(t, "resolve", "testdata/broken.yaml", "--json")
	assert.ErrorIs(t, err, ErrResolutionFailed)

	var snaps []store.Snapshot
	require.NoError(t, json.Unmarshal([]byte(out), &snaps), out)
	require.Len(t, snaps, 1)
	require.NotEmpty(t, snaps[0].Diagnostics)
	assert.Equal(t, "PS0051", string(snaps[0].Diagnostics[0].Code))
	assert.Positive(t, snaps[0].Run.Errors)
}

func TestResolveUnknownAssembly(t *testing.T) {
	_, errOut, err := execute(t, "resolve", "testdata/shop.yaml", "--assembly", "Shp")
	require.Error(t, err)
	assert.Contains(t, errOut, "ASSEMBLY NOT FOUND")
	assert.Contains(t, errOut, "Did you mean: Shop?")
}

func TestResolveSelectedAssembly(t *testing.T) {
	out, _, err := execute(t, "resolve", "testdata/broken.yaml", "--assembly", "Shop.Web", "--json")
	require.NoError(t, err)

	var snaps []store.Snapshot
	require.NoError(t, json.Unmarshal([]byte(out), &snaps), out)
	require.Len(t, snaps, 1)
	assert.Equal(t, "Shop.Web.dll", snaps[0].Run.Module)
}

func TestResolveMissingGraph(t *testing.T) {
	_, errOut, err := execute(t, "resolve", "testdata/missing.yaml")
	require.Error(t, err)
	assert.Contains(t, errOut, "GRAPH LOAD FAILED")
}

func TestResolveSave(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "runs.db")
	cfg := writeConfig(t, "store:\n  driver: sqlite3\n  dsn: "+dsn+"\n")

	_, _, err := execute(t, "resolve", "testdata/shop.yaml", "--config", cfg, "--save")
	require.NoError(t, err)

	st, err := store.OpenSQL(context.Background(), "sqlite3", dsn)
	require.NoError(t, err)
	defer st.Close()

	runs, err := st.ListRuns(context.Background())
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 2, runs[0].Bindings)

	bindings, err := st.FindBindings(context.Background(), runs[0].ID, "M:Shop.Orders.Save()")
	require.NoError(t, err)
	require.Len(t, bindings, 1)
	assert.Equal(t, "Shop.LogAttribute", bindings[0].Annotation)
}

func TestResolveSaveWithoutStore(t *testing.T) {
	cfg := writeConfig(t, "log:\n  level: error\n")
	_, errOut, err := execute(t, "resolve", "testdata/shop.yaml", "--config", cfg, "--save")
	require.Error(t, err)
	assert.Contains(t, errOut, "STORE ERROR")
}

func TestServeRequiresStore(t *testing.T) {
	cfg := writeConfig(t, "log:\n  level: error\n")
	_, errOut, err := execute(t, "serve", "--config", cfg)
	require.Error(t, err)
	assert.Contains(t, errOut, "serve needs a store")
}

func TestInvalidConfig(t *testing.T) {
	cfg := writeConfig(t, "store:\n  driver: mongo\n")
	_, errOut, err := execute(t, "version", "--config", cfg)
	require.Error(t, err)
	assert.Contains(t, errOut, "CONFIGURATION ERROR")
}

func TestTokenCommand(t *testing.T) {
	cfg := writeConfig(t, "server:\n  auth_secret: s3cret\n  token_ttl: 1h\n")
	out, _, err := execute(t, "token", "--config", cfg, "--subject", "ci")
	require.NoError(t, err)

	subject, err := server.NewAuthenticator("s3cret", time.Hour).Validate(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "ci", subject)
}

func TestTokenCommandRequiresSecret(t *testing.T) {
	cfg := writeConfig(t, "log:\n  level: error\n")
	_, errOut, err := execute(t, "token", "--config", cfg)
	require.Error(t, err)
	assert.Contains(t, errOut, "server.auth_secret is not set")
}
