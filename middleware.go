package xtend

import (
	"context"
	"log/slog"
	"time"

	"github.com/reglet-dev/reglet-xtend/extension/entities"
	"github.com/reglet-dev/reglet-xtend/extension/services"
)

// Middleware wraps instance construction to add cross-cutting behavior.
// Middleware executes in FIFO order (first registered wraps first, onion model).
//
// Example usage:
//
//	timing := func(next services.ConstructFunc) services.ConstructFunc {
//	    return func(ctx context.Context, c *entities.Candidate, ctor entities.Constructor, args []any) (any, error) {
//	        start := time.Now()
//	        defer func() { log.Printf("%s built in %s", c.Name(), time.Since(start)) }()
//	        return next(ctx, c, ctor, args)
//	    }
//	}
type Middleware = services.Middleware

// ConstructEvent describes one finished construction.
type ConstructEvent struct {
	Err            error
	Implementation string
	Constructor    string
	Duration       time.Duration
}

// LoggingMiddleware returns a middleware that logs constructions. Failures
// are logged at warn level.
func LoggingMiddleware(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next services.ConstructFunc) services.ConstructFunc {
		return func(ctx context.Context, c *entities.Candidate, ctor entities.Constructor, args []any) (any, error) {
			name := c.Name().String()
			logger.DebugContext(ctx, "constructing implementation", "implementation", name, "constructor", ctor.String())
			instance, err := next(ctx, c, ctor, args)
			if err != nil {
				logger.WarnContext(ctx, "construction failed", "implementation", name, "error", err)
			} else {
				logger.DebugContext(ctx, "implementation constructed", "implementation", name)
			}
			return instance, err
		}
	}
}

// ObserverMiddleware returns a middleware that reports every construction
// to observe once it returns.
func ObserverMiddleware(observe func(ConstructEvent)) Middleware {
	return func(next services.ConstructFunc) services.ConstructFunc {
		return func(ctx context.Context, c *entities.Candidate, ctor entities.Constructor, args []any) (any, error) {
			start := time.Now()
			instance, err := next(ctx, c, ctor, args)
			observe(ConstructEvent{
				Implementation: c.Name().String(),
				Constructor:    ctor.String(),
				Duration:       time.Since(start),
				Err:            err,
			})
			return instance, err
		}
	}
}
