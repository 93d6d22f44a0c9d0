package interpreter

import (
	"context"
	"fmt"
	"time"
)

// DefaultRemoteTimeout bounds the remote attempt so a hung transport cannot
// stall the command; the fallback path runs instead.
const DefaultRemoteTimeout = 30 * time.Second

// Interpreter runs an ordered chain of parsers, stopping at the first
// success. The intended chain is remote then local: one remote attempt, one
// local attempt, no retries. Parsing is a pure function of the request, so
// concurrent commands need no coordination.
type Interpreter struct {
	parsers []Parser
	timeout time.Duration
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithTimeout sets the per-attempt timeout.
func WithTimeout(d time.Duration) Option {
	return func(i *Interpreter) {
		if d > 0 {
			i.timeout = d
		}
	}
}

// New builds an interpreter over the given parsers, tried in order.
func New(parsers []Parser, opts ...Option) *Interpreter {
	i := &Interpreter{
		parsers: parsers,
		timeout: DefaultRemoteTimeout,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// NewDefault wires the standard chain: the Claude-backed parser when an API
// key is configured, then the deterministic local parser.
func NewDefault(remote RemoteConfig, opts ...Option) *Interpreter {
	var parsers []Parser
	if remote.APIKey != "" {
		parsers = append(parsers, NewRemoteParser(remote))
	}
	parsers = append(parsers, NewLocalParser())
	return New(parsers, opts...)
}

// Parse resolves one command. A parser failure is never surfaced to the
// caller: it falls through to the next parser, and the local parser at the
// end of the chain always yields a result.
func (i *Interpreter) Parse(ctx context.Context, req Request) (*CommandResult, error) {
	if req.Now.IsZero() {
		req.Now = time.Now()
	}

	var lastErr error
	for _, p := range i.parsers {
		attemptCtx, cancel := context.WithTimeout(ctx, i.timeout)
		result, err := p.Parse(attemptCtx, req)
		cancel()

		if err == nil {
			return result, nil
		}
		lastErr = err
		fmt.Printf("Interpreter[%s]: parse failed: %v, falling through\n", p.Name(), err)
	}

	if lastErr != nil {
		return nil, fmt.Errorf("all parsers failed: %w", lastErr)
	}
	return nil, fmt.Errorf("no parsers configured")
}
