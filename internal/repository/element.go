package repository

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gridscope/gridscope-backend/internal/models"
	"github.com/gridscope/gridscope-backend/internal/topology"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrNotFound reports an id that does not resolve against the store.
var ErrNotFound = errors.New("record not found")

type ElementRepository struct {
	db *gorm.DB

	// Per-pair advisory locks serialize concurrent upserts of the same
	// unordered endpoint pair; the unique index on pair_key is the hard
	// guarantee, the lock keeps races from surfacing as errors.
	pairLocks sync.Map
}

func NewElementRepository(db *gorm.DB) *ElementRepository {
	return &ElementRepository{db: db}
}

func (r *ElementRepository) Create(element *models.GridElement) error {
	if element.ID == "" {
		element.ID = uuid.New().String()
	}
	if element.DeleteState == "" {
		element.DeleteState = models.DeleteStateActive
	}
	now := time.Now()
	if element.CreatedAt.IsZero() {
		element.CreatedAt = now
	}
	element.UpdatedAt = now

	result := r.db.Create(element)
	if result.Error != nil {
		return fmt.Errorf("failed to create element: %w", result.Error)
	}
	return nil
}

func (r *ElementRepository) GetByID(id string) (*models.GridElement, error) {
	var element models.GridElement
	result := r.db.Where("id = ? AND delete_state = ?", id, models.DeleteStateActive).First(&element)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get element by id: %w", result.Error)
	}
	return &element, nil
}

func (r *ElementRepository) Update(element *models.GridElement) error {
	element.UpdatedAt = time.Now()

	result := r.db.Save(element)
	if result.Error != nil {
		return fmt.Errorf("failed to update element: %w", result.Error)
	}
	return nil
}

// SoftDelete marks the element deleted. Connections referencing it remain
// for audit; snapshot queries exclude the element, so views drop its edges.
func (r *ElementRepository) SoftDelete(id string) error {
	result := r.db.Model(&models.GridElement{}).
		Where("id = ? AND delete_state = ?", id, models.DeleteStateActive).
		Updates(map[string]interface{}{
			"delete_state": models.DeleteStateDeleted,
			"updated_at":   time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to soft delete element: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

type ElementFilter struct {
	ElementType  string
	Status       string
	VoltageLevel *float64
}

func (r *ElementRepository) List(filter ElementFilter) ([]models.GridElement, error) {
	query := r.db.Where("delete_state = ?", models.DeleteStateActive)

	if filter.ElementType != "" {
		query = query.Where("element_type = ?", filter.ElementType)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.VoltageLevel != nil {
		query = query.Where("voltage_level = ?", *filter.VoltageLevel)
	}

	var elements []models.GridElement
	result := query.Order("created_at ASC").Find(&elements)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list elements: %w", result.Error)
	}
	return elements, nil
}

// ================ CONNECTIONS ================

func (r *ElementRepository) lockPair(pairKey string) *sync.Mutex {
	mu, _ := r.pairLocks.LoadOrStore(pairKey, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// UpsertConnection creates the connection record for an unordered endpoint
// pair or updates the existing one. Returns whether a new record was
// created. Runs under a per-pair lock and a transaction; a concurrent
// insert that still slips through the lock hits the unique index and is
// retried as an update.
func (r *ElementRepository) UpsertConnection(conn *models.Connection) (bool, error) {
	conn.PairKey = topology.PairKey(conn.FromElementID, conn.ToElementID)

	mu := r.lockPair(conn.PairKey)
	mu.Lock()
	defer mu.Unlock()

	created, err := r.upsertConnectionOnce(conn)
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		created, err = r.upsertConnectionOnce(conn)
	}
	if err != nil {
		return false, fmt.Errorf("failed to upsert connection: %w", err)
	}
	return created, nil
}

func (r *ElementRepository) upsertConnectionOnce(conn *models.Connection) (bool, error) {
	created := false
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var existing models.Connection
		result := tx.Where("pair_key = ?", conn.PairKey).First(&existing)

		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			conn.ID = uuid.New().String()
			now := time.Now()
			conn.CreatedAt = now
			conn.UpdatedAt = now
			if err := tx.Create(conn).Error; err != nil {
				return err
			}
			created = true
			return nil
		}
		if result.Error != nil {
			return result.Error
		}

		existing.ConnectionType = conn.ConnectionType
		existing.IsConnected = conn.IsConnected
		existing.UpdatedAt = time.Now()
		if err := tx.Save(&existing).Error; err != nil {
			return err
		}
		*conn = existing
		return nil
	})
	return created, err
}

func (r *ElementRepository) GetConnectionByPair(a, b string) (*models.Connection, error) {
	var conn models.Connection
	result := r.db.Where("pair_key = ?", topology.PairKey(a, b)).First(&conn)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get connection by pair: %w", result.Error)
	}
	return &conn, nil
}

func (r *ElementRepository) ListConnections(includeDisconnected bool) ([]models.Connection, error) {
	query := r.db.Order("created_at ASC")
	if !includeDisconnected {
		query = query.Where("is_connected = ?", true)
	}

	var connections []models.Connection
	result := query.Find(&connections)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list connections: %w", result.Error)
	}
	return connections, nil
}

// ================ LINE PATHS ================

// ReplaceLinePath swaps the full point list of a line and stores the
// recomputed length in the same transaction, so a stale length is never
// observable next to new points.
func (r *ElementRepository) ReplaceLinePath(lineID string, points []models.LinePathPoint, lengthKm float64) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("line_id = ?", lineID).Delete(&models.LinePathPoint{}).Error; err != nil {
			return err
		}

		now := time.Now()
		for i := range points {
			points[i].ID = 0
			points[i].LineID = lineID
			points[i].CreatedAt = now
			points[i].UpdatedAt = now
		}
		if err := tx.Create(&points).Error; err != nil {
			return err
		}

		return tx.Model(&models.GridElement{}).
			Where("id = ?", lineID).
			Updates(map[string]interface{}{
				"length_km":  lengthKm,
				"updated_at": now,
			}).Error
	})
	if err != nil {
		return fmt.Errorf("failed to replace line path: %w", err)
	}
	return nil
}

func (r *ElementRepository) GetLinePath(lineID string) ([]models.LinePathPoint, error) {
	var points []models.LinePathPoint
	result := r.db.Where("line_id = ?", lineID).Order("sequence_order ASC").Find(&points)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get line path: %w", result.Error)
	}
	return points, nil
}
