package llm

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"
)

// ProviderState tracks the lifecycle of a Provider.
type ProviderState string

// Provider lifecycle states. Initialize moves uninitialized (or
// disconnected) to ready; Disconnect moves ready to disconnected, after
// which Initialize may run again with fresh state.
const (
	StateUninitialized ProviderState = "uninitialized"
	StateReady         ProviderState = "ready"
	StateDisconnected  ProviderState = "disconnected"
)

// apiKeyEnv is the environment variable consulted when no API key is
// configured explicitly.
const apiKeyEnv = "ANTHROPIC_API_KEY"

const (
	defaultTimeout     = 30 * time.Second
	maxOutputTokens    = 4096
	defaultTemperature = 0.7

	// The transport is always constructed with this retry count; the
	// Retries field of Config is not forwarded.
	transportRetries = 3
)

// Config holds provider configuration for Initialize.
type Config struct {
	// APIKey authenticates against the model API. When empty, the
	// ANTHROPIC_API_KEY environment variable is used instead.
	APIKey string

	// BaseURL overrides the API endpoint. Empty means the default.
	BaseURL string

	// Model selects the model queried. Empty means DefaultModel.
	Model string

	// Timeout bounds each transport request. Zero means 30 seconds.
	Timeout time.Duration

	// Retries is accepted but not honored: the transport always retries
	// internally up to three times.
	Retries int
}

// Provider normalizes interaction with the model API behind a uniform
// surface: initialize once, issue queries that yield a lazy sequence of
// events, manage conversational state, execute model-requested tools, and
// track cumulative usage.
type Provider struct {
	mu        sync.Mutex
	state     ProviderState
	transport Transport
	model     string

	sessions *sessionStore
	usage    *usageTracker

	factory TransportFactory
	getenv  func(string) string
	logger  *slog.Logger
}

// Option customizes a Provider at construction.
type Option func(*Provider)

// WithTransportFactory overrides how the transport collaborator is built.
func WithTransportFactory(factory TransportFactory) Option {
	return func(p *Provider) { p.factory = factory }
}

// WithEnv overrides environment lookup for the API key fallback.
func WithEnv(getenv func(string) string) Option {
	return func(p *Provider) { p.getenv = getenv }
}

// WithLogger sets the logger used for query lifecycle events.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Provider) { p.logger = logger }
}

// New creates an uninitialized Provider.
func New(options ...Option) *Provider {
	p := &Provider{
		state:    StateUninitialized,
		sessions: newSessionStore(),
		usage:    &usageTracker{},
		getenv:   os.Getenv,
		logger:   slog.Default(),
	}
	for _, option := range options {
		option(p)
	}
	return p
}

// State returns the provider's current lifecycle state.
func (p *Provider) State() ProviderState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Model returns the model identifier queries are issued against.
func (p *Provider) Model() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.model == "" {
		return DefaultModel
	}
	return p.model
}

// Initialize resolves credentials, constructs the transport, and moves the
// provider to the ready state. Usage totals reset on every initialize, so a
// disconnect/initialize cycle starts from zero.
func (p *Provider) Initialize(cfg Config) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == StateReady {
		return ErrAlreadyInitialized
	}

	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = p.getenv(apiKeyEnv)
	}
	if apiKey == "" {
		return ErrNoAPIKey
	}

	if p.factory == nil {
		return &ConfigurationError{Message: "no transport factory configured"}
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	transport, err := p.factory(TransportConfig{
		APIKey:     apiKey,
		BaseURL:    cfg.BaseURL,
		Timeout:    timeout,
		MaxRetries: transportRetries,
	})
	if err != nil {
		return fmt.Errorf("construct transport: %w", err)
	}

	p.transport = transport
	p.model = cfg.Model
	if p.model == "" {
		p.model = DefaultModel
	}
	p.state = StateReady
	p.usage.reset()

	p.logger.Debug("provider initialized", "model", p.model, "timeout", timeout)
	return nil
}

// QueryOption customizes a single query.
type QueryOption func(*queryOptions)

type queryOptions struct {
	stream  bool
	session *Session
	tools   []ToolDefinition
}

// WithStream requests incremental delivery of the response.
func WithStream() QueryOption {
	return func(o *queryOptions) { o.stream = true }
}

// WithSession seeds the query with the session's history and directs the
// assistant reply to it. The prompt itself is not persisted; only the
// assistant's reply is appended, after the stream has been drained.
func WithSession(session *Session) QueryOption {
	return func(o *queryOptions) { o.session = session }
}

// WithTools exposes tool definitions to the model for this query.
func WithTools(tools []ToolDefinition) QueryOption {
	return func(o *queryOptions) { o.tools = tools }
}

// Query sends one prompt and returns the stream of normalized output
// events. The stream is single-pass and non-restartable; the caller paces
// delivery by how quickly it consumes events. Fails immediately with
// ErrNotInitialized unless the provider is ready.
func (p *Provider) Query(ctx context.Context, prompt string, options ...QueryOption) (*EventStream, error) {
	p.mu.Lock()
	if p.state != StateReady {
		p.mu.Unlock()
		return nil, ErrNotInitialized
	}
	transport := p.transport
	model := p.model
	p.mu.Unlock()

	var opts queryOptions
	for _, option := range options {
		option(&opts)
	}

	var messages []Message
	if opts.session != nil {
		messages = opts.session.Messages()
	}
	messages = append(messages, Message{Role: RoleUser, Content: prompt})

	req := &Request{
		Model:       model,
		MaxTokens:   maxOutputTokens,
		Temperature: defaultTemperature,
		Messages:    messages,
		Tools:       toolParams(opts.tools),
		Stream:      opts.stream,
	}

	ctx, cancel := context.WithCancel(ctx)
	stream := &EventStream{ch: make(chan Event), cancel: cancel}

	p.logger.Debug("query started",
		"model", model,
		"stream", opts.stream,
		"messages", len(messages),
		"tools", len(opts.tools),
	)
	go p.run(ctx, transport, req, opts.session, stream)

	return stream, nil
}

// CreateSession registers a new empty session and returns it. Sessions may
// be created in any lifecycle state.
func (p *Provider) CreateSession() *Session {
	sess := newSession()
	p.sessions.add(sess)
	p.logger.Debug("session created", "session_id", sess.ID())
	return sess
}

// Session returns a registered session by id. Unknown ids, including
// destroyed ones, fail with NotFoundError.
func (p *Provider) Session(id string) (*Session, error) {
	sess, ok := p.sessions.get(id)
	if !ok {
		return nil, &NotFoundError{SessionID: id}
	}
	return sess, nil
}

// Sessions returns all live sessions.
func (p *Provider) Sessions() []*Session {
	return p.sessions.list()
}

// DestroySession removes a session. Destroying an unknown id, including one
// destroyed before, fails with NotFoundError.
func (p *Provider) DestroySession(id string) error {
	if !p.sessions.remove(id) {
		return &NotFoundError{SessionID: id}
	}
	p.logger.Debug("session destroyed", "session_id", id)
	return nil
}

// Usage returns a point-in-time copy of cumulative usage totals.
func (p *Provider) Usage() UsageStats {
	return p.usage.snapshot()
}

// Disconnect tears down the transport, drops all sessions, and zeroes usage
// totals. Idempotent, and safe to call on a provider that was never
// initialized.
func (p *Provider) Disconnect() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.transport != nil {
		if err := p.transport.Close(); err != nil {
			p.logger.Debug("transport close", "error", err)
		}
		p.transport = nil
	}
	p.sessions.clear()
	p.usage.reset()
	if p.state == StateReady {
		p.state = StateDisconnected
	}

	return nil
}
