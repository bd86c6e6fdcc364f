// Package bridge maps operation names onto typed handlers. Every transport
// dispatches through the same Table.
package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/atvirokodosprendimai/studio/internal/platform/apperr"
	"github.com/atvirokodosprendimai/studio/internal/platform/logger"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var ErrUnknownOperation = errors.New("unknown operation")

// Handler decodes a raw payload, runs the operation and returns a value ready
// for JSON encoding.
type Handler func(ctx context.Context, payload json.RawMessage) (any, error)

type Observer interface {
	Observe(operation string, err error, elapsed time.Duration)
}

type Table struct {
	mu       sync.Mutex
	handlers map[string]Handler
	log      *logger.Logger
	observer Observer
}

type Option func(*Table)

func WithLogger(l *logger.Logger) Option {
	return func(t *Table) {
		if l != nil {
			t.log = l
		}
	}
}

func WithObserver(o Observer) Option {
	return func(t *Table) { t.observer = o }
}

func newTable(handlers map[string]Handler, opts ...Option) *Table {
	t := &Table{handlers: handlers, log: logger.Nop()}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

type requestIDKey struct{}

// ContextWithRequestID lets a transport pass its own correlation id.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func requestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok && id != "" {
		return id
	}
	return uuid.NewString()
}

// Invoke runs one operation. Calls are serialized: no two handlers ever run
// at the same time.
func (t *Table) Invoke(ctx context.Context, name string, payload json.RawMessage) (any, error) {
	h, ok := t.handlers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownOperation, name)
	}

	ctx = t.log.WithRequestID(ctx, requestID(ctx))
	ctx = t.log.WithOperation(ctx, name)

	t.mu.Lock()
	defer t.mu.Unlock()

	started := time.Now()
	result, err := h(ctx, payload)
	elapsed := time.Since(started)
	if t.observer != nil {
		t.observer.Observe(name, err, elapsed)
	}

	logCtx := t.log.WithField(ctx, "elapsed_ms", elapsed.Milliseconds())
	switch {
	case err == nil:
		t.log.Info(logCtx, "operation completed")
	case apperr.CodeOf(err) == apperr.CodeInternal:
		t.log.Error(logCtx, "operation failed", err)
	default:
		t.log.Warn(t.log.WithField(logCtx, "error", err.Error()), "operation rejected")
	}
	return result, err
}

func (t *Table) Names() []string {
	names := make([]string, 0, len(t.handlers))
	for name := range t.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (t *Table) Has(name string) bool {
	_, ok := t.handlers[name]
	return ok
}

// handle binds a typed function to the table. An empty or null payload
// decodes as the zero request.
func handle[Req, Resp any](v *validator.Validate, fn func(context.Context, Req) (Resp, error)) Handler {
	return func(ctx context.Context, payload json.RawMessage) (any, error) {
		var req Req
		trimmed := bytes.TrimSpace(payload)
		if len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null")) {
			if err := json.Unmarshal(trimmed, &req); err != nil {
				return nil, apperr.Wrap(apperr.CodeValidation, err, "malformed payload")
			}
		}
		if err := v.StructCtx(ctx, req); err != nil {
			return nil, validationError(err)
		}
		return fn(ctx, req)
	}
}

func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperr.Wrap(apperr.CodeValidation, err, "invalid payload")
	}
	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param()))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s must satisfy %s", fe.Field(), fe.Tag()))
	}
	return apperr.New(apperr.CodeValidation, strings.Join(parts, "; "))
}
