package commands

import (
	"bytes"
	"context"
	"errors"
	"net"
	stdhttp "net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	http "github.com/bogdanfinn/fhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/diogo/projectbrain/internal/api"
	"github.com/diogo/projectbrain/internal/config"
	apierrors "github.com/diogo/projectbrain/internal/errors"
	"github.com/diogo/projectbrain/internal/mockbackend"
	"github.com/diogo/projectbrain/internal/models"
	"github.com/diogo/projectbrain/internal/render"
	"github.com/diogo/projectbrain/internal/session"
	"github.com/diogo/projectbrain/internal/tui"
)

// fakeTUI records the chat launch instead of taking over the terminal
type fakeTUI struct {
	calls   int
	baseURL string
	session *session.Session
	opts    render.Options
}

func (f *fakeTUI) RunChat(ctx context.Context, sess *session.Session, ingester tui.Ingester, baseURL string, opts render.Options) error {
	f.calls++
	f.baseURL = baseURL
	f.session = sess
	f.opts = opts
	return nil
}

func setupHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(config.EnvAPIURL, "")
	t.Setenv(config.EnvTimeout, "")
	t.Setenv(config.EnvVerbose, "")
	t.Setenv("GLAMOUR_STYLE", "")
	return home
}

// newTestDeps wires the commands to a mock backend served over HTTP
func newTestDeps(t *testing.T) (*Dependencies, *mockbackend.Server, *httptest.Server) {
	t.Helper()
	setupHome(t)

	backend := mockbackend.New()
	server := httptest.NewServer(backend)
	t.Cleanup(server.Close)

	deps := NewDependencies()
	deps.NewBackend = func(cfg config.Config, logger *zap.Logger) (api.BackendClientInterface, error) {
		return api.NewClient(cfg.APIURL, api.WithHTTPClient(&http.Client{}), api.WithLogger(logger))
	}
	deps.TUI = &fakeTUI{}
	deps.Stdin = strings.NewReader("")
	deps.StdinPiped = func() bool { return false }
	deps.IsTTY = func() bool { return false }
	deps.CopyToClipboard = func(string) error {
		t.Error("clipboard should not be used")
		return nil
	}
	return deps, backend, server
}

func execute(deps *Dependencies, args ...string) (string, string, error) {
	cmd := NewRootCmd(deps)
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestAsk_TextAnswer(t *testing.T) {
	deps, _, server := newTestDeps(t)

	out, _, err := execute(deps, "ask", "--api-url", server.URL, "What is the fire rating of wall A2?")
	require.NoError(t, err)
	assert.Contains(t, out, "2-hour rated")
	assert.Contains(t, out, "Sources: spec_09.pdf p.12")
}

func TestRoot_PositionalArgsAsk(t *testing.T) {
	deps, _, server := newTestDeps(t)

	out, _, err := execute(deps, "--api-url", server.URL, "Show", "me", "the", "door", "schedule")
	require.NoError(t, err)
	assert.Contains(t, out, "Door\tWidth\tRating")
	assert.Contains(t, out, "D1\t36in\t90 min")
	assert.Contains(t, out, "A-601 Door Schedule.pdf p.1")
}

func TestAsk_Raw(t *testing.T) {
	deps, _, server := newTestDeps(t)

	out, _, err := execute(deps, "ask", "--raw", "--api-url", server.URL, "list the windows")
	require.NoError(t, err)
	assert.Equal(t, "data", gjson.Get(out, "kind").String())
	assert.Equal(t, "extract", gjson.Get(out, "intent").String())
	assert.Equal(t, "W1", gjson.Get(out, "rows.0.Mark").String())
}

func TestAsk_OutputFile(t *testing.T) {
	deps, _, server := newTestDeps(t)
	path := filepath.Join(t.TempDir(), "reply.txt")

	out, stderr, err := execute(deps, "ask", "-o", path, "--api-url", server.URL, "fire rating?")
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Contains(t, stderr, "Reply saved to")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "2-hour rated")
}

func TestAsk_FromFile(t *testing.T) {
	deps, _, server := newTestDeps(t)
	path := filepath.Join(t.TempDir(), "question.md")
	require.NoError(t, os.WriteFile(path, []byte("What is the fire rating?\n"), 0o600))

	out, _, err := execute(deps, "--api-url", server.URL, "-f", path)
	require.NoError(t, err)
	assert.Contains(t, out, "2-hour rated")
}

func TestAsk_FromStdin(t *testing.T) {
	deps, _, server := newTestDeps(t)
	deps.Stdin = strings.NewReader("door schedule please\n")
	deps.StdinPiped = func() bool { return true }

	out, _, err := execute(deps, "--api-url", server.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "D2")
}

func TestAsk_EmptyQuestion(t *testing.T) {
	deps, _, server := newTestDeps(t)

	_, _, err := execute(deps, "ask", "--api-url", server.URL, "   ")
	assert.Error(t, err)
}

func TestAsk_BackendDown(t *testing.T) {
	deps, _, server := newTestDeps(t)
	url := server.URL
	server.Close()

	out, _, err := execute(deps, "ask", "--api-url", url, "fire rating?")
	require.Error(t, err)
	assert.True(t, apierrors.IsTransportError(err), "expected transport error, got %v", err)
	assert.Contains(t, out, models.UnreachableText)
}

func TestAsk_MalformedReply(t *testing.T) {
	deps, _, _ := newTestDeps(t)
	server := httptest.NewServer(stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		_, _ = w.Write([]byte(`{"unexpected":true}`))
	}))
	defer server.Close()

	out, _, err := execute(deps, "ask", "--api-url", server.URL, "fire rating?")
	require.Error(t, err)
	assert.True(t, apierrors.IsDecodeError(err))
	assert.Contains(t, out, models.MalformedText)
}

func TestAsk_Copy(t *testing.T) {
	deps, _, server := newTestDeps(t)
	var copied string
	deps.CopyToClipboard = func(text string) error {
		copied = text
		return nil
	}

	_, stderr, err := execute(deps, "ask", "--copy", "--api-url", server.URL, "fire rating?")
	require.NoError(t, err)
	assert.Equal(t, "2-hour rated", copied)
	assert.Contains(t, stderr, "Copied to clipboard")
}

func TestAsk_CopyFailureIsWarning(t *testing.T) {
	deps, _, server := newTestDeps(t)
	deps.CopyToClipboard = func(string) error { return errors.New("no clipboard") }

	_, stderr, err := execute(deps, "ask", "--copy", "--api-url", server.URL, "fire rating?")
	require.NoError(t, err)
	assert.Contains(t, stderr, "no clipboard")
}

func TestTimeoutFlag(t *testing.T) {
	deps, _, server := newTestDeps(t)

	_, _, err := execute(deps, "ask", "--timeout", "0", "--api-url", server.URL, "hello")
	assert.Error(t, err)

	_, _, err = execute(deps, "ask", "--timeout", "5", "--api-url", server.URL, "hello")
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, deps.Config.Timeout())
}

func TestEnvOverridesAPIURL(t *testing.T) {
	deps, _, server := newTestDeps(t)
	t.Setenv(config.EnvAPIURL, server.URL)

	out, _, err := execute(deps, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Online")
	assert.Equal(t, server.URL, deps.Config.APIURL)
}

func TestIngest(t *testing.T) {
	deps, backend, server := newTestDeps(t)

	out, _, err := execute(deps, "ingest", "--api-url", server.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "Re-ingestion triggered")
	assert.Equal(t, int64(1), backend.IngestCount())
}

func TestIngest_BackendDown(t *testing.T) {
	deps, _, server := newTestDeps(t)
	url := server.URL
	server.Close()

	_, _, err := execute(deps, "ingest", "--api-url", url)
	require.Error(t, err)
	assert.True(t, apierrors.IsNetworkError(err))
}

func TestStatus(t *testing.T) {
	deps, _, server := newTestDeps(t)

	out, _, err := execute(deps, "status", "--api-url", server.URL)
	require.NoError(t, err)
	assert.Contains(t, out, server.URL)
	assert.Contains(t, out, "Online")
}

func TestChat(t *testing.T) {
	deps, _, server := newTestDeps(t)

	_, _, err := execute(deps, "chat", "--api-url", server.URL+"/")
	require.NoError(t, err)

	fake := deps.TUI.(*fakeTUI)
	require.Equal(t, 1, fake.calls)
	assert.Equal(t, server.URL, fake.baseURL)
	require.NotNil(t, fake.session)
	msgs := fake.session.Snapshot()
	require.Len(t, msgs, 1)
	assert.Equal(t, models.SeedGreeting, msgs[0].Text)
	assert.Equal(t, "dark", fake.opts.Style)
}

func TestChat_InvalidURL(t *testing.T) {
	deps, _, _ := newTestDeps(t)

	_, _, err := execute(deps, "chat", "--api-url", "ftp://brain")
	assert.Error(t, err)
	assert.Equal(t, 0, deps.TUI.(*fakeTUI).calls)
}

func TestConfigCommands(t *testing.T) {
	deps, _, _ := newTestDeps(t)

	out, _, err := execute(deps, "config", "path")
	require.NoError(t, err)
	assert.Contains(t, out, filepath.Join(".projectbrain", "config.json"))

	_, _, err = execute(deps, "config", "set", "timeout_seconds", "15")
	require.NoError(t, err)

	out, _, err = execute(deps, "config", "show")
	require.NoError(t, err)
	assert.Equal(t, int64(15), gjson.Get(out, "timeout_seconds").Int())

	_, _, err = execute(deps, "config", "set", "no_such_key", "1")
	assert.Error(t, err)
}

func TestVersion(t *testing.T) {
	deps, _, _ := newTestDeps(t)

	out, _, err := execute(deps, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "projectbrain "+Version)
}

func TestNoInputShowsHelp(t *testing.T) {
	deps, _, _ := newTestDeps(t)

	out, _, err := execute(deps)
	require.NoError(t, err)
	assert.Contains(t, out, "Usage:")
}

func TestServe(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	ready := make(chan string, 1)
	done := make(chan error, 1)
	go func() {
		done <- serve(ctx, ln, mockbackend.New(), zap.NewNop(), func(addr string) { ready <- addr })
	}()

	addr := <-ready
	resp, err := stdhttp.Get("http://" + addr + "/")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, stdhttp.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after cancel")
	}
}

func TestMockServer_BadFixtures(t *testing.T) {
	deps, _, _ := newTestDeps(t)

	_, _, err := execute(deps, "mock-server", "--fixtures", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSpinnerLifecycle(t *testing.T) {
	var buf bytes.Buffer
	s := newSpinner(&buf, "Consulting /chat")
	s.start()
	time.Sleep(250 * time.Millisecond)
	s.stopWithSuccess("Done")
	s.stopWithError()

	assert.Contains(t, buf.String(), "Consulting /chat")
	assert.Contains(t, buf.String(), "Done")
}

func TestFormatErrorMessage(t *testing.T) {
	assert.Empty(t, formatErrorMessage(nil, "Error"))

	msg := formatErrorMessage(apierrors.NewAPIError(502, "/chat", "bad gateway"), "Error")
	assert.Contains(t, msg, "HTTP Status: 502")

	msg = formatErrorMessage(apierrors.NewNetworkError("post", "/chat", errors.New("refused")), "Error")
	assert.Contains(t, msg, "mock-server")
}

func TestPlainReply(t *testing.T) {
	msg := models.NewAssistantText("Use type X gypsum.", []models.Source{{Source: "spec.pdf", Page: "4"}, {}})
	assert.Equal(t, "Use type X gypsum.\n\nSources: spec.pdf p.4, File\n", plainReply(msg))

	empty := models.NewAssistantTable(nil, nil)
	assert.Equal(t, models.NoDataText+"\n", plainReply(empty))
}
