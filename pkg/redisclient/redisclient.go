// Package redisclient wraps go-redis with an execution-log hook: every
// command issued during a test is recorded as an attachment, with timing
// and outcome, in whatever execution the command context carries.
package redisclient

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ormasoftchile/qago/pkg/record"
)

// Client is a redis.Client with attachment logging installed.
type Client struct {
	*redis.Client
}

// New creates a Client for the given options and installs the logging hook.
func New(opt *redis.Options, opts ...Option) *Client {
	cfg := config{logger: zap.NewNop()}
	for _, o := range opts {
		o(&cfg)
	}
	rc := redis.NewClient(opt)
	rc.AddHook(&logHook{logger: cfg.logger})
	return &Client{Client: rc}
}

type config struct {
	logger *zap.Logger
}

// Option configures a Client.
type Option func(*config)

// WithLogger sets the operational logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) { c.logger = l }
}

// logHook records each command (and pipeline) as an attachment.
type logHook struct {
	logger *zap.Logger
}

func (h *logHook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return next(ctx, network, addr)
	}
}

func (h *logHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmd)
		h.attach(ctx, cmd, time.Since(start))
		return err
	}
}

func (h *logHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmds)
		elapsed := time.Since(start)
		for _, cmd := range cmds {
			h.attach(ctx, cmd, elapsed)
		}
		return err
	}
}

func (h *logHook) attach(ctx context.Context, cmd redis.Cmder, elapsed time.Duration) {
	text := fmt.Sprintf("command: %s\ntime: %.3f s", cmd.String(), elapsed.Seconds())
	if err := cmd.Err(); err != nil && err != redis.Nil {
		text += fmt.Sprintf("\nerror: %v", err)
	}
	record.Attach(ctx, text, fmt.Sprintf("redis %s", cmd.Name()))
	h.logger.Debug("redis command", zap.String("cmd", cmd.Name()), zap.Duration("elapsed", elapsed))
}
