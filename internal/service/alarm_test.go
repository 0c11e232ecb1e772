package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/gridscope/gridscope-backend/internal/alarms"
	"github.com/gridscope/gridscope-backend/internal/cache"
	"github.com/gridscope/gridscope-backend/internal/models"
	"github.com/gridscope/gridscope-backend/internal/repository"
	"github.com/gridscope/gridscope-backend/internal/timeseries"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newAlarmServiceForTest wires the service against a throwaway sqlite
// database with one seeded element. Cache and measurement store run in
// their disabled no-op modes.
func newAlarmServiceForTest(t *testing.T) *AlarmService {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.GridElement{},
		&models.Connection{},
		&models.LinePathPoint{},
		&models.Event{},
	))

	elementRepo := repository.NewElementRepository(db)
	require.NoError(t, elementRepo.Create(&models.GridElement{
		ID:           "load-1",
		Name:         "Feeder A",
		ElementType:  models.ElementLoad,
		Status:       models.StatusActive,
		VoltageLevel: 11,
	}))

	return NewAlarmService(
		repository.NewEventRepository(db),
		elementRepo,
		alarms.DefaultRuleSet(),
		cache.NewAlarmCache(nil, time.Minute),
		timeseries.NewMeasurementStore("", "", "", ""),
	)
}

func createActiveEvent(t *testing.T, svc *AlarmService, params models.JSONMap) *models.Event {
	t.Helper()

	event, err := svc.CreateEvent(&models.CreateEventRequest{
		ElementID:   "load-1",
		EventType:   "alarm",
		Severity:    "high",
		Description: "voltage violation",
		Parameters:  params,
	})
	require.NoError(t, err)
	return event
}

func TestSetStatusToDeletedReportsSuccess(t *testing.T) {
	svc := newAlarmServiceForTest(t)
	event := createActiveEvent(t, svc, nil)

	updated, err := svc.SetStatus(context.Background(), event.ID, models.EventDeleted)
	require.NoError(t, err)
	assert.Equal(t, models.EventDeleted, updated.Status)

	// The deleted event stays hidden from normal reads.
	_, err = svc.GetEvent(event.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestResolveMergesNotesIntoParameters(t *testing.T) {
	svc := newAlarmServiceForTest(t)
	event := createActiveEvent(t, svc, models.JSONMap{"metric": "voltage"})

	resolved, err := svc.Resolve(context.Background(), event.ID, "op-1", "replaced fuse")
	require.NoError(t, err)
	assert.Equal(t, models.EventResolved, resolved.Status)
	require.NotNil(t, resolved.ResolvedBy)
	assert.Equal(t, "op-1", *resolved.ResolvedBy)
	assert.Equal(t, "replaced fuse", resolved.Parameters["resolution_notes"])
	assert.Equal(t, "voltage", resolved.Parameters["metric"])

	// A second resolve has nothing left to do.
	_, err = svc.Resolve(context.Background(), event.ID, "op-2", "")
	assert.ErrorIs(t, err, alarms.ErrNoChanges)
}

func TestDeleteRequiresResolvedStatus(t *testing.T) {
	svc := newAlarmServiceForTest(t)
	event := createActiveEvent(t, svc, nil)

	err := svc.Delete(context.Background(), event.ID)
	assert.ErrorIs(t, err, alarms.ErrCannotDelete)

	_, err = svc.Resolve(context.Background(), event.ID, "op-1", "")
	require.NoError(t, err)
	require.NoError(t, svc.Delete(context.Background(), event.ID))

	// Deleting twice reads as not found.
	assert.ErrorIs(t, svc.Delete(context.Background(), event.ID), alarms.ErrCannotDelete)
}
