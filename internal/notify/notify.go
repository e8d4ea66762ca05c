// Package notify broadcasts daily report updates to configured
// destinations.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/scoradar/scoradar/pkg/report"
)

// Notification is the data sent to notification destinations.
type Notification struct {
	Title string        `json:"title"`
	Body  string        `json:"body"`
	Date  string        `json:"date"`
	Songs []report.Song `json:"songs"`
	Stats report.Stats  `json:"stats"`
}

// Notifier delivers notifications to a specific destination.
type Notifier interface {
	Name() string
	Send(ctx context.Context, n *Notification) error
}

// Manager broadcasts notifications to all registered notifiers.
type Manager struct {
	notifiers []Notifier
}

// NewManager creates a new notification manager.
func NewManager(notifiers []Notifier) *Manager {
	return &Manager{notifiers: notifiers}
}

// HasNotifiers returns true if at least one notifier is configured.
func (m *Manager) HasNotifiers() bool {
	return len(m.notifiers) > 0
}

// Broadcast sends a notification to all registered notifiers.
func (m *Manager) Broadcast(ctx context.Context, n *Notification) error {
	var errs []error
	for _, notifier := range m.notifiers {
		if err := notifier.Send(ctx, n); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", notifier.Name(), err))
		}
	}
	return errors.Join(errs...)
}
