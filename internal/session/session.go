// Package session runs conversation turns: it owns the conversation, the busy
// flag and the sequencing of classification, dispatch, the backend call and
// normalization.
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/diogo/projectbrain/internal/api"
	"github.com/diogo/projectbrain/internal/conversation"
	apierrors "github.com/diogo/projectbrain/internal/errors"
	"github.com/diogo/projectbrain/internal/intent"
	"github.com/diogo/projectbrain/internal/models"
)

// DefaultTimeout bounds a single backend call
const DefaultTimeout = 60 * time.Second

// State is the lifecycle state of the current turn
type State int

const (
	StateIdle State = iota
	StateSubmitting
	StateSuccess
	StateFailure
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubmitting:
		return "submitting"
	case StateSuccess:
		return "success"
	case StateFailure:
		return "failure"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Backend sends a dispatched request and returns the raw response body
type Backend interface {
	Send(ctx context.Context, req api.Request) ([]byte, error)
}

// Wording picks the assistant text shown for a failed turn
type Wording func(kind apierrors.Kind, err error) string

// DefaultWording keeps transport failures on the fixed unreachable text
func DefaultWording(kind apierrors.Kind, _ error) string {
	if kind == apierrors.KindDecode {
		return models.MalformedText
	}
	return models.UnreachableText
}

// Session is one conversation with the backend
type Session struct {
	mu      sync.Mutex
	backend Backend
	store   *conversation.Store
	state   State
	timeout time.Duration
	wording Wording
	logger  *zap.Logger
}

// Option configures a Session
type Option func(*Session)

// WithTimeout sets the per-turn deadline; zero or negative disables it
func WithTimeout(d time.Duration) Option {
	return func(s *Session) {
		s.timeout = d
	}
}

// WithWording overrides the failure texts
func WithWording(w Wording) Option {
	return func(s *Session) {
		if w != nil {
			s.wording = w
		}
	}
}

// WithLogger sets the logger for turn events
func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStore uses an existing conversation instead of a freshly seeded one
func WithStore(store *conversation.Store) Option {
	return func(s *Session) {
		if store != nil {
			s.store = store
		}
	}
}

// New creates a session whose conversation starts with the greeting
func New(backend Backend, opts ...Option) *Session {
	s := &Session{
		backend: backend,
		timeout: DefaultTimeout,
		wording: DefaultWording,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.store == nil {
		s.store = conversation.NewStore(models.NewAssistantText(models.SeedGreeting, nil))
	}
	return s
}

// Turn is a submitted message waiting for its reply
type Turn struct {
	session *Session
	Intent  models.Intent
	Request api.Request
	User    models.Message

	started  time.Time
	once     sync.Once
	reply    models.Message
	replyErr error
}

// Start records the user message and prepares the backend request. Blank
// text returns ErrEmptyInput and a pending turn returns ErrBusy; neither
// changes the conversation.
func (s *Session) Start(text string) (*Turn, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apierrors.NewOrchestrationError(apierrors.KindEmptyInput, "submit", apierrors.ErrEmptyInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateIdle {
		return nil, apierrors.ErrBusy
	}

	user := models.NewUserMessage(text)
	s.store.Append(user)
	s.state = StateSubmitting

	in := intent.Classify(text)
	turn := &Turn{
		session: s,
		Intent:  in,
		Request: api.Dispatch(in, text),
		User:    user,
		started: time.Now(),
	}

	s.logger.Info("turn started",
		zap.String("intent", in.String()),
		zap.String("endpoint", turn.Request.EndpointPath))

	return turn, nil
}

// Resolve calls the backend and appends exactly one assistant message. On
// failure the appended message is the fallback text and the error is an
// *errors.OrchestrationError. Later calls return the first result.
func (t *Turn) Resolve(ctx context.Context) (models.Message, error) {
	t.once.Do(func() {
		t.reply, t.replyErr = t.session.resolve(ctx, t)
	})
	return t.reply, t.replyErr
}

func (s *Session) resolve(ctx context.Context, t *Turn) (models.Message, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	var failure *apierrors.OrchestrationError

	body, err := s.send(ctx, t.Request)
	if err != nil {
		failure = apierrors.NewOrchestrationError(apierrors.KindTransport, "send", err)
	}

	var reply models.Message
	if failure == nil {
		reply, err = api.Normalize(t.Intent, body)
		if err != nil {
			failure = apierrors.NewOrchestrationError(apierrors.KindDecode, "normalize", err)
		}
	}

	if failure != nil {
		reply = models.NewAssistantText(s.wording(failure.Kind, failure.Err), nil)
		reply.Intent = t.Intent
		s.finish(reply, StateFailure)

		s.logger.Warn("turn failed",
			zap.String("intent", t.Intent.String()),
			zap.String("kind", failure.Kind.String()),
			zap.Duration("elapsed", time.Since(t.started)),
			zap.Error(failure.Err))
		return reply, failure
	}

	s.finish(reply, StateSuccess)
	s.logger.Info("turn finished",
		zap.String("intent", t.Intent.String()),
		zap.String("kind", string(reply.Kind)),
		zap.Int("sources", len(reply.Sources)),
		zap.Duration("elapsed", time.Since(t.started)))
	return reply, nil
}

// send calls the backend, converting a panic into a transport error so a
// turn always resolves.
func (s *Session) send(ctx context.Context, req api.Request) (body []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			body = nil
			err = fmt.Errorf("backend call panicked: %v", r)
		}
	}()
	return s.backend.Send(ctx, req)
}

// finish appends the assistant reply and returns to idle
func (s *Session) finish(reply models.Message, outcome State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = outcome
	s.store.Append(reply)
	s.state = StateIdle
}

// Submit runs a whole turn. The returned message is the appended assistant
// message, also when err is non-nil; for blank input or a busy session no
// message is appended and the zero Message is returned.
func (s *Session) Submit(ctx context.Context, text string) (models.Message, error) {
	turn, err := s.Start(text)
	if err != nil {
		return models.Message{}, err
	}
	return turn.Resolve(ctx)
}

// Snapshot returns the conversation in order
func (s *Session) Snapshot() []models.Message {
	return s.store.All()
}

// Len returns the number of messages in the conversation
func (s *Session) Len() int {
	return s.store.Len()
}

// Busy reports whether a turn is in flight
func (s *Session) Busy() bool {
	return s.State() != StateIdle
}

// State returns the current lifecycle state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}
