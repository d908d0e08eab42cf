package commands

import (
	"context"
	"errors"
	"strings"
	"time"

	command "github.com/goliatone/go-command"

	"github.com/goliatone/go-cms-inline/internal/logging"
	"github.com/goliatone/go-cms-inline/pkg/interfaces"
)

// DefaultTimeout bounds a single execution unless WithTimeout overrides it.
const DefaultTimeout = 30 * time.Second

const loggerRoot = "cms.commands"

// Addressable messages name the page and the element or section they touch.
// The address is attached to log entries and outcomes.
type Addressable interface {
	Address() (pageKey, key string)
}

// Option configures a Handler.
type Option[T command.Message] func(*Handler[T])

// Handler adapts a command function to go-command's Commander. It validates
// the message, bounds the call with a timeout, categorises errors with
// go-errors, logs the result and reports an Outcome.
type Handler[T command.Message] struct {
	exec      command.CommandFunc[T]
	logger    interfaces.Logger
	timeout   time.Duration
	operation string
	observer  Observer
}

// NewHandler wraps fn. It panics when fn is nil.
func NewHandler[T command.Message](fn command.CommandFunc[T], opts ...Option[T]) *Handler[T] {
	if fn == nil {
		panic("commands: handler function cannot be nil")
	}
	h := &Handler[T]{
		exec:    fn,
		logger:  logging.NoOp(),
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Logger returns the logger command handlers of module should use.
func Logger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	module = strings.TrimSpace(module)
	if module == "" {
		return logging.ModuleLogger(provider, loggerRoot)
	}
	return logging.ModuleLogger(provider, loggerRoot+"."+module)
}

// WithTimeout overrides DefaultTimeout. Zero or negative disables the bound.
func WithTimeout[T command.Message](timeout time.Duration) Option[T] {
	return func(h *Handler[T]) {
		h.timeout = max(timeout, 0)
	}
}

// WithLogger sets the execution logger.
func WithLogger[T command.Message](logger interfaces.Logger) Option[T] {
	return func(h *Handler[T]) {
		h.logger = logging.Ensure(logger)
	}
}

// WithOperation names the operation in logs and outcomes.
func WithOperation[T command.Message](operation string) Option[T] {
	return func(h *Handler[T]) {
		h.operation = strings.TrimSpace(operation)
	}
}

// WithObserver registers an observer. Repeated calls chain observers.
func WithObserver[T command.Message](observer Observer) Option[T] {
	return func(h *Handler[T]) {
		h.observer = Observers(h.observer, observer)
	}
}

// Execute satisfies command.Commander[T].
func (h *Handler[T]) Execute(ctx context.Context, msg T) error {
	if ctx == nil {
		ctx = context.Background()
	}
	outcome := Outcome{
		Command:   command.GetMessageType(msg),
		Operation: h.operation,
	}
	if addressed, ok := any(msg).(Addressable); ok {
		outcome.PageKey, outcome.Key = addressed.Address()
	}

	started := time.Now()
	err := h.run(ctx, msg)
	outcome.Elapsed = time.Since(started)
	outcome.Err = err
	outcome.Result = Classify(err)

	h.report(ctx, outcome)
	return err
}

func (h *Handler[T]) run(ctx context.Context, msg T) error {
	if err := command.ValidateMessage(msg); err != nil {
		return rejected(err)
	}
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}
	if err := ctx.Err(); err != nil {
		return interrupted(err)
	}

	err := h.exec(ctx, msg)
	if ctxErr := ctx.Err(); ctxErr != nil && (err == nil || errors.Is(err, ctxErr)) {
		return interrupted(ctxErr)
	}
	return failed(err)
}

func (h *Handler[T]) report(ctx context.Context, outcome Outcome) {
	fields := map[string]any{
		"command":    outcome.Command,
		"result":     string(outcome.Result),
		"elapsed_ms": outcome.Elapsed.Milliseconds(),
	}
	if outcome.Operation != "" {
		fields["operation"] = outcome.Operation
	}
	if outcome.PageKey != "" {
		fields["page_key"] = outcome.PageKey
		fields["key"] = outcome.Key
	}
	for key, value := range logging.ContextFields(ctx) {
		if _, taken := fields[key]; !taken {
			fields[key] = value
		}
	}
	logger := logging.WithFields(h.logger, fields).WithContext(ctx)

	switch outcome.Result {
	case ResultOK:
		logger.Debug("command.completed")
	case ResultInvalid, ResultDenied, ResultNotFound, ResultConflict:
		logger.Warn("command.rejected", "error", outcome.Err)
	default:
		logger.Error("command.failed", "error", outcome.Err)
	}

	if h.observer != nil {
		h.observer(ctx, outcome)
	}
}
