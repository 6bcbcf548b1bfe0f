// internal/runner/shutdown.go
package runner

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"
)

// CloseFunc allows using a function as an io.Closer
type CloseFunc func() error

func (f CloseFunc) Close() error {
	return f()
}

// ShutdownHandler closes registered services in reverse registration order.
// Later services may depend on earlier ones (the bus drains into the record
// store), so closing is sequential.
type ShutdownHandler struct {
	logger   *zap.Logger
	services []namedService
	mu       sync.Mutex
	timeout  time.Duration
	once     sync.Once
}

type namedService struct {
	name   string
	closer io.Closer
}

// NewShutdownHandler creates a new shutdown handler
func NewShutdownHandler(logger *zap.Logger, timeout time.Duration) *ShutdownHandler {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &ShutdownHandler{
		logger:  logger.Named("shutdown"),
		timeout: timeout,
	}
}

// Add registers a service for shutdown
func (sh *ShutdownHandler) Add(name string, closer io.Closer) {
	sh.mu.Lock()
	defer sh.mu.Unlock()

	sh.services = append(sh.services, namedService{name: name, closer: closer})
	sh.logger.Debug("Registered service for shutdown", zap.String("service", name))
}

// AddFunc registers a shutdown function
func (sh *ShutdownHandler) AddFunc(name string, fn func() error) {
	sh.Add(name, CloseFunc(fn))
}

// Shutdown closes all services once. Each close gets what is left of the
// overall timeout.
func (sh *ShutdownHandler) Shutdown() error {
	var errs []error
	sh.once.Do(func() {
		sh.mu.Lock()
		services := make([]namedService, len(sh.services))
		copy(services, sh.services)
		sh.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), sh.timeout)
		defer cancel()

		sh.logger.Info("Starting graceful shutdown", zap.Int("services", len(services)))
		for i := len(services) - 1; i >= 0; i-- {
			if err := sh.closeOne(ctx, services[i]); err != nil {
				errs = append(errs, err)
			}
		}

		if len(errs) > 0 {
			sh.logger.Error("Shutdown completed with errors", zap.Int("errorCount", len(errs)))
			return
		}
		sh.logger.Info("Graceful shutdown completed successfully")
	})

	if len(errs) > 0 {
		return fmt.Errorf("shutdown: %d services failed: %w", len(errs), errs[0])
	}
	return nil
}

func (sh *ShutdownHandler) closeOne(ctx context.Context, s namedService) error {
	done := make(chan error, 1)
	go func() {
		sh.logger.Debug("Shutting down service", zap.String("service", s.name))
		done <- s.closer.Close()
	}()

	select {
	case err := <-done:
		if err != nil {
			sh.logger.Error("Failed to shutdown service",
				zap.String("service", s.name),
				zap.Error(err))
			return fmt.Errorf("%s: %w", s.name, err)
		}
		return nil
	case <-ctx.Done():
		sh.logger.Error("Shutdown timeout for service", zap.String("service", s.name))
		return fmt.Errorf("%s: shutdown timeout", s.name)
	}
}
