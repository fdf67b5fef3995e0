package activity

import (
	"context"
	"errors"
	"strings"
)

// Hook receives settings events.
type Hook interface {
	Notify(ctx context.Context, event Event) error
}

// HookFunc adapts a function to Hook.
type HookFunc func(ctx context.Context, event Event) error

func (fn HookFunc) Notify(ctx context.Context, event Event) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, event)
}

// Publisher stamps events with a channel and hands them to every hook. A
// publisher without hooks does nothing.
type Publisher struct {
	hooks   []Hook
	channel string
}

// DefaultChannel is used when NewPublisher gets a blank channel.
const DefaultChannel = "settings"

func NewPublisher(channel string, hooks ...Hook) *Publisher {
	channel = strings.TrimSpace(channel)
	if channel == "" {
		channel = DefaultChannel
	}
	p := &Publisher{channel: channel}
	for _, hook := range hooks {
		if hook != nil {
			p.hooks = append(p.hooks, hook)
		}
	}
	return p
}

// Enabled reports whether any hook is registered, so callers can skip
// building events nobody receives.
func (p *Publisher) Enabled() bool {
	return p != nil && len(p.hooks) > 0
}

// Publish normalizes event and notifies every hook, joining their errors.
// Invalid events are dropped.
func (p *Publisher) Publish(ctx context.Context, event Event) error {
	if !p.Enabled() {
		return nil
	}
	event = event.Normalize()
	if !event.Valid() {
		return nil
	}
	if event.Channel == "" {
		event.Channel = p.channel
	}
	if ctx == nil {
		ctx = context.Background()
	}
	var errs []error
	for _, hook := range p.hooks {
		if err := hook.Notify(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
