package repository

import (
	"path/filepath"
	"testing"

	"github.com/gridscope/gridscope-backend/internal/models"
	"github.com/gridscope/gridscope-backend/internal/topology"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a throwaway sqlite database with the same gorm config
// the server uses, TranslateError included.
func newTestDB(t *testing.T) *gorm.DB {
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
	return db
}

func TestUpsertConnectionKeepsOneRecordPerPair(t *testing.T) {
	repo := NewElementRepository(newTestDB(t))

	first := &models.Connection{
		FromElementID:  "bus-1",
		ToElementID:    "load-1",
		ConnectionType: "electrical",
		IsConnected:    true,
	}
	created, err := repo.UpsertConnection(first)
	require.NoError(t, err)
	assert.True(t, created)

	// Same pair with endpoints swapped must update, not insert.
	second := &models.Connection{
		FromElementID:  "load-1",
		ToElementID:    "bus-1",
		ConnectionType: "cable",
		IsConnected:    false,
	}
	created, err = repo.UpsertConnection(second)
	require.NoError(t, err)
	assert.False(t, created)

	stored, err := repo.ListConnections(true)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, first.ID, stored[0].ID)
	assert.Equal(t, "cable", stored[0].ConnectionType)
	assert.False(t, stored[0].IsConnected)
}

func TestDuplicatePairKeyInsertTranslatesToDuplicatedKey(t *testing.T) {
	db := newTestDB(t)

	first := models.Connection{
		ID:            "conn-1",
		FromElementID: "a",
		ToElementID:   "b",
		PairKey:       topology.PairKey("a", "b"),
	}
	require.NoError(t, db.Create(&first).Error)

	// The upsert retry matches gorm.ErrDuplicatedKey, which the driver
	// only produces with TranslateError enabled.
	dup := models.Connection{
		ID:            "conn-2",
		FromElementID: "b",
		ToElementID:   "a",
		PairKey:       topology.PairKey("a", "b"),
	}
	assert.ErrorIs(t, db.Create(&dup).Error, gorm.ErrDuplicatedKey)
}

func TestSoftDeletedElementIsHidden(t *testing.T) {
	repo := NewElementRepository(newTestDB(t))

	element := &models.GridElement{
		Name:         "Feeder A",
		ElementType:  models.ElementLoad,
		Status:       models.StatusActive,
		VoltageLevel: 11,
	}
	require.NoError(t, repo.Create(element))

	require.NoError(t, repo.SoftDelete(element.ID))

	_, err := repo.GetByID(element.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.SoftDelete(element.ID), ErrNotFound)
}
