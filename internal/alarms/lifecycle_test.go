package alarms

import (
	"testing"
	"time"

	"github.com/gridscope/gridscope-backend/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestCanAcknowledge(t *testing.T) {
	now := time.Now()

	assert.True(t, CanAcknowledge(&models.Event{Status: models.EventActive}))
	assert.False(t, CanAcknowledge(&models.Event{Status: models.EventActive, AcknowledgedAt: &now}))
	assert.False(t, CanAcknowledge(&models.Event{Status: models.EventResolved}))
	assert.False(t, CanAcknowledge(&models.Event{Status: models.EventDeleted}))
}

func TestCanResolve(t *testing.T) {
	assert.True(t, CanResolve(models.EventActive))
	assert.True(t, CanResolve(models.EventAcknowledged))
	assert.False(t, CanResolve(models.EventResolved))
	assert.False(t, CanResolve(models.EventDeleted))
}

func TestCanDeleteOnlyFromResolved(t *testing.T) {
	assert.True(t, CanDelete(models.EventResolved))
	assert.False(t, CanDelete(models.EventActive))
	assert.False(t, CanDelete(models.EventAcknowledged))
	assert.False(t, CanDelete(models.EventDeleted))
}

func TestMirrorWorthy(t *testing.T) {
	assert.True(t, MirrorWorthy(models.SeverityHigh))
	assert.True(t, MirrorWorthy(models.SeverityCritical))
	assert.False(t, MirrorWorthy(models.SeverityMedium))
	assert.False(t, MirrorWorthy(models.SeverityLow))
}
