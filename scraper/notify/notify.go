// Package notify composes scraper.Notifier implementations
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/MateoVillarinos/xrprich/scraper"
)

// Named pairs a notifier with the channel name used in errors
type Named struct {
	Name     string
	Notifier scraper.Notifier
}

// Multi fans every payload out to all channels. A failing channel does not
// stop delivery to the others; failures are joined.
type Multi struct {
	channels []Named
}

// NewMulti creates a fan-out notifier
func NewMulti(channels ...Named) *Multi {
	return &Multi{channels: channels}
}

func (m *Multi) SendText(ctx context.Context, message string) error {
	return m.each(func(n scraper.Notifier) error { return n.SendText(ctx, message) })
}

func (m *Multi) SendImage(ctx context.Context, path string) error {
	return m.each(func(n scraper.Notifier) error { return n.SendImage(ctx, path) })
}

func (m *Multi) SendFile(ctx context.Context, path string) error {
	return m.each(func(n scraper.Notifier) error { return n.SendFile(ctx, path) })
}

func (m *Multi) each(send func(scraper.Notifier) error) error {
	var errs []error
	for _, ch := range m.channels {
		if err := send(ch.Notifier); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", ch.Name, err))
		}
	}
	return errors.Join(errs...)
}

// Log writes payloads to a logger instead of delivering them
type Log struct {
	log *slog.Logger
}

// NewLog creates a notifier that only logs
func NewLog(log *slog.Logger) *Log {
	return &Log{log: log}
}

func (l *Log) SendText(ctx context.Context, message string) error {
	l.log.InfoContext(ctx, "Notification", slog.String("text", message))
	return nil
}

func (l *Log) SendImage(ctx context.Context, path string) error {
	l.log.InfoContext(ctx, "Notification image", slog.String("path", path))
	return nil
}

func (l *Log) SendFile(ctx context.Context, path string) error {
	l.log.InfoContext(ctx, "Notification file", slog.String("path", path))
	return nil
}
