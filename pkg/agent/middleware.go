package agent

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/germanamz/skillbridge/pkg/agentctx"
	"github.com/germanamz/skillbridge/pkg/chats/message"
)

// Runner executes one agent run and returns the final message.
type Runner interface {
	Run(ctx context.Context) (message.Message, error)
}

// RunnerFunc adapts a plain function to the Runner interface.
type RunnerFunc func(ctx context.Context) (message.Message, error)

// Run calls the underlying function.
func (f RunnerFunc) Run(ctx context.Context) (message.Message, error) {
	return f(ctx)
}

// Middleware wraps a Runner, returning a new Runner with added behaviour.
type Middleware func(next Runner) Runner

// Timeout bounds a run with a deadline.
func Timeout(d time.Duration) Middleware {
	return func(next Runner) Runner {
		return RunnerFunc(func(ctx context.Context) (message.Message, error) {
			ctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()

			return next.Run(ctx)
		})
	}
}

// Recovery converts a panic inside the run into an error.
func Recovery() Middleware {
	return func(next Runner) Runner {
		return RunnerFunc(func(ctx context.Context) (msg message.Message, err error) {
			defer func() {
				if r := recover(); r != nil {
					msg = message.Message{}
					err = fmt.Errorf("agent panicked: %v", r)
				}
			}()

			return next.Run(ctx)
		})
	}
}

// Logger logs the start, duration and outcome of every run.
func Logger(log *zap.Logger, name string) Middleware {
	return func(next Runner) Runner {
		return RunnerFunc(func(ctx context.Context) (message.Message, error) {
			fields := []zap.Field{zap.String("agent", name)}
			if id, ok := agentctx.RunID(ctx); ok {
				fields = append(fields, zap.String("run_id", id))
			}

			log.Info("agent started", fields...)

			start := time.Now()
			msg, err := next.Run(ctx)
			fields = append(fields, zap.Duration("duration", time.Since(start)))

			if err != nil {
				log.Error("agent finished with error", append(fields, zap.Error(err))...)
			} else {
				log.Info("agent finished", fields...)
			}

			return msg, err
		})
	}
}
