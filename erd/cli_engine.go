package erd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// DefaultCLIPath is the Mermaid command line renderer looked up on PATH.
const DefaultCLIPath = "mmdc"

// CLIEngineConfig configures a CLIEngine.
type CLIEngineConfig struct {
	Path        string        // Executable, DefaultCLIPath when empty
	Timeout     time.Duration // Per render, 30s when zero
	MaxFailures uint32        // Consecutive failures before failing fast, 3 when zero
	Cooldown    time.Duration // Time spent failing fast before a retry, 30s when zero
}

// CLIEngine renders through the Mermaid CLI. Repeated failures trip a
// circuit breaker so a missing or broken installation costs one timeout,
// not one per frame.
type CLIEngine struct {
	cfg     CLIEngineConfig
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// NewCLIEngine creates a CLI engine.
func NewCLIEngine(cfg CLIEngineConfig, logger *zap.Logger) *CLIEngine {
	if cfg.Path == "" {
		cfg.Path = DefaultCLIPath
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 3
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	e := &CLIEngine{cfg: cfg, logger: logger}
	e.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "mermaid-cli",
		MaxRequests: 1,
		Timeout:     cfg.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("diagram engine state changed",
				zap.String("engine", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	return e
}

// Render writes source and configuration to a scratch directory and runs the
// CLI on them.
func (e *CLIEngine) Render(ctx context.Context, source string, cfg Config) ([]byte, error) {
	if strings.TrimSpace(source) == "" {
		return nil, ErrEmptyDiagram
	}

	out, err := e.breaker.Execute(func() (interface{}, error) {
		return e.run(ctx, source, cfg)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
	}
	if err != nil {
		return nil, err
	}
	return out.([]byte), nil
}

func (e *CLIEngine) run(ctx context.Context, source string, cfg Config) ([]byte, error) {
	bin, err := exec.LookPath(e.cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
	}

	dir, err := os.MkdirTemp("", "schemaviz-erd-")
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch dir: %w", err)
	}
	defer os.RemoveAll(dir)

	format := cfg.Format
	if format == "" {
		format = OutputSVG
	}
	input := filepath.Join(dir, "diagram.mmd")
	output := filepath.Join(dir, "diagram."+string(format))
	configFile := filepath.Join(dir, "config.json")

	if err := os.WriteFile(input, []byte(source), 0o600); err != nil {
		return nil, fmt.Errorf("failed to write diagram source: %w", err)
	}
	conf, err := cfg.JSON()
	if err != nil {
		return nil, fmt.Errorf("failed to encode engine config: %w", err)
	}
	if err := os.WriteFile(configFile, conf, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write engine config: %w", err)
	}

	args := []string{"-i", input, "-o", output, "-c", configFile, "-q"}
	if cfg.Theme != "" {
		args = append(args, "-t", cfg.Theme)
	}
	if cfg.Background != "" {
		args = append(args, "-b", cfg.Background)
	}

	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		e.logger.Warn("diagram engine failed",
			zap.String("path", bin),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("stderr", strings.TrimSpace(stderr.String())),
			zap.Error(err))
		return nil, fmt.Errorf("diagram engine failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	e.logger.Debug("diagram rendered", zap.String("path", bin), zap.Duration("elapsed", time.Since(start)))

	data, err := os.ReadFile(output)
	if err != nil {
		return nil, fmt.Errorf("failed to read engine output: %w", err)
	}
	return data, nil
}

// State reports the breaker state, for diagnostics.
func (e *CLIEngine) State() string {
	return e.breaker.State().String()
}
