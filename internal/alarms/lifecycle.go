package alarms

import (
	"errors"

	"github.com/gridscope/gridscope-backend/internal/models"
)

// ErrNoChanges reports an idempotent transition that had nothing to do,
// e.g. acknowledging an already-acknowledged event. It is not a failure.
var ErrNoChanges = errors.New("no changes made")

// ErrCannotDelete deliberately reads the same as a missing event, so a
// caller cannot distinguish a protected event from a nonexistent one.
var ErrCannotDelete = errors.New("event not found or cannot be deleted")

// CanAcknowledge reports whether an acknowledge would change the event.
// Acknowledging twice is a no-op, never an error.
func CanAcknowledge(e *models.Event) bool {
	return e.AcknowledgedAt == nil && (e.Status == models.EventActive || e.Status == models.EventAcknowledged)
}

// CanResolve reports whether the event may transition to resolved.
// Acknowledgement is optional, not a precondition.
func CanResolve(status models.EventStatus) bool {
	return status == models.EventActive || status == models.EventAcknowledged
}

// CanDelete reports whether the event may transition to deleted. Deleted
// is terminal and only reachable from resolved.
func CanDelete(status models.EventStatus) bool {
	return status == models.EventResolved
}

// MirrorWorthy reports whether an active event of this severity belongs in
// the alarm-cache mirror.
func MirrorWorthy(severity models.EventSeverity) bool {
	return severity == models.SeverityHigh || severity == models.SeverityCritical
}
