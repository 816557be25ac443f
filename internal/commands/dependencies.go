package commands

import (
	"context"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/diogo/projectbrain/internal/api"
	"github.com/diogo/projectbrain/internal/config"
	"github.com/diogo/projectbrain/internal/render"
	"github.com/diogo/projectbrain/internal/session"
	"github.com/diogo/projectbrain/internal/tui"
)

// TUIInterface defines the methods required from the TUI package.
type TUIInterface interface {
	RunChat(ctx context.Context, sess *session.Session, ingester tui.Ingester, baseURL string, opts render.Options) error
}

// BackendFactory builds the backend client for the loaded configuration.
type BackendFactory func(cfg config.Config, logger *zap.Logger) (api.BackendClientInterface, error)

// Dependencies holds the external dependencies for the commands.
// This allows for dependency injection and easier testing.
type Dependencies struct {
	// NewBackend creates the Project Brain client.
	NewBackend BackendFactory

	// TUI is the terminal user interface.
	TUI TUIInterface

	// Stdin is read when no prompt is given as an argument or file.
	Stdin io.Reader
	// StdinPiped reports whether Stdin carries piped input.
	StdinPiped func() bool
	// IsTTY reports whether stdout is a terminal.
	IsTTY func() bool
	// CopyToClipboard writes text to the system clipboard.
	CopyToClipboard func(text string) error

	// Config and Logger are filled in before any subcommand runs.
	Config config.Config
	Logger *zap.Logger
}

// DefaultTUI is the production implementation of TUIInterface.
type DefaultTUI struct{}

func (d *DefaultTUI) RunChat(ctx context.Context, sess *session.Session, ingester tui.Ingester, baseURL string, opts render.Options) error {
	return tui.RunChat(ctx, sess, ingester, baseURL, opts)
}

// NewDependencies creates a new Dependencies struct with default implementations.
func NewDependencies() *Dependencies {
	return &Dependencies{
		NewBackend:      newBackendClient,
		TUI:             &DefaultTUI{},
		Stdin:           os.Stdin,
		StdinPiped:      stdinPiped,
		IsTTY:           isStdoutTTY,
		CopyToClipboard: copyToClipboard,
		Config:          config.DefaultConfig(),
		Logger:          zap.NewNop(),
	}
}

func newBackendClient(cfg config.Config, logger *zap.Logger) (api.BackendClientInterface, error) {
	return api.NewClient(cfg.APIURL,
		api.WithTimeout(cfg.Timeout()),
		api.WithLogger(logger),
	)
}

// newSession builds a conversation session bound to the configured deadline
func (d *Dependencies) newSession(backend session.Backend) *session.Session {
	return session.New(backend,
		session.WithTimeout(d.Config.Timeout()),
		session.WithLogger(d.Logger),
	)
}
