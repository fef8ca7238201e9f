package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/angelmondragon/entrydesk-backend/pkg/logger"
)

type pinger interface {
	Ping(context.Context) error
}

type runner interface {
	Run(ctx context.Context) error
}

type ServiceParams struct {
	Logger *logger.Logger
	// Deps are pinged in order before any consumer starts.
	Deps      []namedDep
	Consumers map[string]runner
}

type namedDep struct {
	name string
	dep  pinger
}

// Service runs the event consumers side by side and stops all of them when
// one fails or the context ends.
type Service struct {
	logg      *logger.Logger
	deps      []namedDep
	consumers map[string]runner
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if len(params.Consumers) == 0 {
		return nil, errors.New("at least one consumer is required")
	}
	for name, c := range params.Consumers {
		if c == nil {
			return nil, fmt.Errorf("consumer %s is nil", name)
		}
	}
	return &Service{
		logg:      params.Logger,
		deps:      params.Deps,
		consumers: params.Consumers,
	}, nil
}

func (s *Service) ensureReadiness(ctx context.Context) error {
	for _, d := range s.deps {
		if err := d.dep.Ping(ctx); err != nil {
			s.logg.Error(ctx, fmt.Sprintf("%s ping failed", d.name), err)
			return fmt.Errorf("%s ping failed: %w", d.name, err)
		}
	}
	s.logg.Info(ctx, "all worker dependencies are ready")
	return nil
}

func (s *Service) Run(ctx context.Context) error {
	if err := s.ensureReadiness(ctx); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	type exit struct {
		name string
		err  error
	}
	exits := make(chan exit, len(s.consumers))
	for name, c := range s.consumers {
		go func(name string, c runner) {
			exits <- exit{name: name, err: c.Run(s.logg.WithField(runCtx, "consumer", name))}
		}(name, c)
	}

	first := <-exits
	cancel()
	for i := 1; i < len(s.consumers); i++ {
		<-exits
	}

	if err := ctx.Err(); err != nil {
		s.logg.Info(ctx, "worker context canceled")
		return err
	}
	err := first.err
	if err == nil {
		err = errors.New("consumer exited")
	}
	s.logg.Error(ctx, fmt.Sprintf("consumer %s stopped unexpectedly", first.name), err)
	return fmt.Errorf("consumer %s: %w", first.name, err)
}
