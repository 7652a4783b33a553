// Package notify delivers user-facing notifications: to a terminal, to the
// log, and into a dismissible queue for front ends that poll.
package notify

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/aretw0/warp/pkg/ports"
	"github.com/fatih/color"
	"github.com/muesli/termenv"
)

// Terminal writes one line per notification, coloured by level.
type Terminal struct {
	mu     sync.Mutex
	w      io.Writer
	styles map[ports.Level]*color.Color
}

// TerminalOption configures a Terminal.
type TerminalOption func(*Terminal)

// WithColor forces colour on or off instead of detecting it from the
// environment.
func WithColor(on bool) TerminalOption {
	return func(t *Terminal) {
		for _, c := range t.styles {
			if on {
				c.EnableColor()
			} else {
				c.DisableColor()
			}
		}
	}
}

// NewTerminal creates a Terminal writing to w. Colour is enabled when the
// environment's colour profile supports it.
func NewTerminal(w io.Writer, opts ...TerminalOption) *Terminal {
	t := &Terminal{
		w: w,
		styles: map[ports.Level]*color.Color{
			ports.LevelInfo:    color.New(color.FgCyan),
			ports.LevelSuccess: color.New(color.FgGreen),
			ports.LevelWarning: color.New(color.FgYellow),
			ports.LevelError:   color.New(color.FgRed, color.Bold),
		},
	}
	colorful := termenv.NewOutput(w).EnvColorProfile() != termenv.Ascii
	WithColor(colorful)(t)
	for _, opt := range opts {
		opt(t)
	}
	return t
}

var icons = map[ports.Level]string{
	ports.LevelInfo:    "i",
	ports.LevelSuccess: "✓",
	ports.LevelWarning: "⚠",
	ports.LevelError:   "✗",
}

// Notify implements ports.Notifier.
func (t *Terminal) Notify(n ports.Notification) {
	style, ok := t.styles[n.Level]
	if !ok {
		style = t.styles[ports.LevelInfo]
	}
	icon := icons[n.Level]
	if icon == "" {
		icon = icons[ports.LevelInfo]
	}
	line := n.Message
	if n.Title != "" {
		line = n.Title + ": " + n.Message
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.w, "%s %s\n", style.Sprint(icon), line)
}

// Log returns a notifier that writes to l at a level matching the notification.
func Log(l *slog.Logger) ports.Notifier {
	return ports.NotifierFunc(func(n ports.Notification) {
		level := slog.LevelInfo
		switch n.Level {
		case ports.LevelWarning:
			level = slog.LevelWarn
		case ports.LevelError:
			level = slog.LevelError
		}
		l.Log(context.Background(), level, n.Message, "title", n.Title, "notification", string(n.Level))
	})
}

// Fanout delivers every notification to each of ns in order.
func Fanout(ns ...ports.Notifier) ports.Notifier {
	return ports.NotifierFunc(func(n ports.Notification) {
		for _, target := range ns {
			target.Notify(n)
		}
	})
}
