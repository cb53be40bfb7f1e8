package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// StatusRotator cycles the bot presence through a fixed set of labels.
type StatusRotator struct {
	mu     sync.Mutex
	next   int
	setter StatusSetter
	labels func() []string
	logger *slog.Logger
}

// NewStatusRotator builds a rotator whose labels are recomputed on every tick.
func NewStatusRotator(setter StatusSetter, labels func() []string, logger *slog.Logger) *StatusRotator {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatusRotator{
		setter: setter,
		labels: labels,
		logger: logger.With("component", "status_rotator"),
	}
}

// StatusLabels returns the three presence labels for the given counts.
func StatusLabels(trackedProfiles, servers int) []string {
	return []string{
		fmt.Sprintf("👀 Tracking %d Steam profiles", trackedProfiles),
		fmt.Sprintf("🌍 Active in %d servers", servers),
		"🕹️ Type /stalk to track a profile!",
	}
}

// Rotate shows the next label.
func (r *StatusRotator) Rotate(ctx context.Context) {
	labels := r.labels()
	if len(labels) == 0 {
		return
	}

	r.mu.Lock()
	label := labels[r.next%len(labels)]
	r.next = (r.next + 1) % len(labels)
	r.mu.Unlock()

	if err := r.setter.SetStatus(ctx, label); err != nil {
		r.logger.Warn("failed to update presence", slog.String("label", label), slog.Any("error", err))
	}
}
