// Package gocommand runs issue commands through go-command runners owned by a Bus.
package gocommand

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/goliatone/go-command"
	"github.com/goliatone/go-command/runner"
)

// CheckMessage rejects messages without a Type and runs Validate when present.
func CheckMessage(msg any) error {
	typed, ok := msg.(command.Message)
	if !ok {
		return fmt.Errorf("gocommand: %T does not implement Type() string", msg)
	}
	if strings.TrimSpace(typed.Type()) == "" {
		return fmt.Errorf("gocommand: %T has an empty message type", msg)
	}
	return command.ValidateMessage(msg)
}

type route func(ctx context.Context, msg any) error

// Bus routes messages to the commands subscribed on it, one command per message
// type. Two buses never see each other's messages.
type Bus struct {
	mu     sync.RWMutex
	routes map[string]route
	closed bool
}

func NewBus() *Bus {
	return &Bus{routes: map[string]route{}}
}

// Subscribe binds cmd to the message type of T. The runner options shape how each
// execution is run; by default a failure is returned to the sender and not retried.
func Subscribe[T any](bus *Bus, cmd command.Commander[T], runnerOpts ...runner.Option) error {
	if bus == nil {
		return fmt.Errorf("gocommand: bus is not configured")
	}
	if cmd == nil {
		return fmt.Errorf("gocommand: command is required")
	}
	var zero T
	msgType := command.GetMessageType(zero)

	opts := append([]runner.Option{
		runner.WithErrorHandler(func(error) {}),
		runner.WithDoneHandler(func(*runner.Handler) {}),
	}, runnerOpts...)
	handler := runner.NewHandler(opts...)

	bus.mu.Lock()
	defer bus.mu.Unlock()
	if bus.closed {
		return fmt.Errorf("gocommand: bus is closed")
	}
	if _, exists := bus.routes[msgType]; exists {
		return fmt.Errorf("gocommand: %s already has a command", msgType)
	}
	bus.routes[msgType] = func(ctx context.Context, msg any) error {
		typed, ok := msg.(T)
		if !ok {
			return fmt.Errorf("gocommand: %s expects %T, got %T", msgType, zero, msg)
		}
		var last error
		attempt := command.CommandFunc[T](func(ctx context.Context, m T) error {
			last = cmd.Execute(ctx, m)
			return last
		})
		// the runner rewraps failures under its own text code; hand back the
		// command's error so callers keep its envelope.
		if err := runner.RunCommand(ctx, handler, attempt, typed); err != nil {
			if last != nil {
				return last
			}
			return err
		}
		return nil
	}
	return nil
}

// Send checks msg and runs the command subscribed for its type on bus.
func Send[T any](ctx context.Context, bus *Bus, msg T) error {
	if bus == nil {
		return fmt.Errorf("gocommand: bus is not configured")
	}
	if err := CheckMessage(msg); err != nil {
		return err
	}
	msgType := command.GetMessageType(msg)

	bus.mu.RLock()
	run, ok := bus.routes[msgType]
	closed := bus.closed
	bus.mu.RUnlock()
	if closed {
		return fmt.Errorf("gocommand: bus is closed")
	}
	if !ok {
		return fmt.Errorf("gocommand: no command subscribed for %s", msgType)
	}
	return run(ctx, msg)
}

// Close drops every route. Safe to call more than once.
func (b *Bus) Close() {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.routes = map[string]route{}
}
