package app

import (
	"context"
	"errors"
	"sync"

	"github.com/bft-labs/rtpsgroup/pkg/log"
)

// Service runs a Publisher in the background under a Lifecycle.
type Service struct {
	publisher *Publisher
	lifecycle *Lifecycle
	logger    log.Logger

	mu   sync.Mutex
	done chan struct{}
	err  error
}

// NewService wraps p.
func NewService(p *Publisher, logger log.Logger, emitter EventEmitter) *Service {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Service{
		publisher: p,
		lifecycle: NewLifecycle(logger, emitter),
		logger:    logger,
	}
}

// Start launches the publish loop and returns immediately.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.lifecycle.CanStart() {
		return ErrAlreadyRunning
	}
	if err := s.lifecycle.TransitionTo(StateStarting, "Start() called"); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.lifecycle.SetCancel(cancel)
	done := make(chan struct{})
	s.done, s.err = done, nil

	s.lifecycle.AddWorker()
	go func() {
		defer s.lifecycle.WorkerDone()
		defer close(done)

		if err := s.lifecycle.TransitionTo(StateRunning, "publisher starting"); err != nil {
			s.logger.Error("failed to transition to running", log.Err(err))
			return
		}

		err := s.publisher.Run(runCtx)
		switch {
		case err == nil:
			_ = s.lifecycle.TransitionTo(StateStopped, "publisher finished")
		case errors.Is(err, context.Canceled):
		default:
			s.logger.Error("publisher error", log.Err(err))
			s.setErr(err)
			_ = s.lifecycle.TransitionTo(StateCrashed, err.Error())
		}
	}()
	return nil
}

// Stop cancels the loop and waits for it to return.
func (s *Service) Stop() error {
	s.mu.Lock()
	if !s.lifecycle.CanStop() {
		s.mu.Unlock()
		return ErrNotRunning
	}
	if err := s.lifecycle.TransitionTo(StateStopping, "Stop() called"); err != nil {
		s.mu.Unlock()
		return err
	}
	s.lifecycle.Cancel()
	s.mu.Unlock()

	err := s.lifecycle.WaitWithTimeout(ShutdownTimeout)
	if err != nil {
		_ = s.lifecycle.TransitionTo(StateCrashed, "shutdown timeout")
	} else {
		_ = s.lifecycle.TransitionTo(StateStopped, "graceful shutdown")
	}
	return err
}

// Done is closed when the publish loop returns. It is nil before Start.
func (s *Service) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// Err returns the error that crashed the loop, if any.
func (s *Service) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Status returns the lifecycle state.
func (s *Service) Status() State {
	return s.lifecycle.State()
}

// Publisher returns the wrapped publisher.
func (s *Service) Publisher() *Publisher {
	return s.publisher
}

func (s *Service) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}
