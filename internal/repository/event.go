package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/gridscope/gridscope-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) Create(event *models.Event) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Status == "" {
		event.Status = models.EventActive
	}
	event.SeverityRank = models.SeverityRank(event.Severity)
	event.StatusRank = models.StatusRank(event.Status)

	now := time.Now()
	if event.CreatedAt.IsZero() {
		event.CreatedAt = now
	}
	event.UpdatedAt = now

	result := r.db.Create(event)
	if result.Error != nil {
		return fmt.Errorf("failed to create event: %w", result.Error)
	}
	return nil
}

func (r *EventRepository) GetByID(id string) (*models.Event, error) {
	var event models.Event
	result := r.db.Where("id = ?", id).First(&event)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get event by id: %w", result.Error)
	}
	return &event, nil
}

// UpdateFields applies unconditional field updates to one event.
func (r *EventRepository) UpdateFields(id string, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()

	result := r.db.Model(&models.Event{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update event: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// TransitionStatus is the compare-and-swap primitive for lifecycle moves:
// the write only lands when the current status is still one of the
// expected values, so two concurrent transitions cannot both succeed.
// Returns whether the swap won.
func (r *EventRepository) TransitionStatus(id string, from []models.EventStatus, to models.EventStatus, extra map[string]interface{}) (bool, error) {
	updates := map[string]interface{}{
		"status":      to,
		"status_rank": models.StatusRank(to),
		"updated_at":  time.Now(),
	}
	for k, v := range extra {
		updates[k] = v
	}

	result := r.db.Model(&models.Event{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return false, fmt.Errorf("failed to transition event status: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// ResolveEvent applies the resolve transition. Optional notes merge into
// the parameters payload inside the same transaction as the
// compare-and-swap, so the merge works from the row version the swap is
// checked against. Returns whether the swap won.
func (r *EventRepository) ResolveEvent(id, actorID, notes string) (bool, error) {
	swapped := false

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var event models.Event
		result := tx.Where("id = ?", id).First(&event)
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil
		}
		if result.Error != nil {
			return result.Error
		}

		now := time.Now()
		updates := map[string]interface{}{
			"status":      models.EventResolved,
			"status_rank": models.StatusRank(models.EventResolved),
			"resolved_at": now,
			"resolved_by": actorID,
			"updated_at":  now,
		}
		if notes != "" {
			params := event.Parameters
			if params == nil {
				params = models.JSONMap{}
			}
			params["resolution_notes"] = notes
			updates["parameters"] = params
		}

		result = tx.Model(&models.Event{}).
			Where("id = ? AND status IN ?", id, []models.EventStatus{models.EventActive, models.EventAcknowledged}).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		swapped = result.RowsAffected > 0
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to resolve event: %w", err)
	}
	return swapped, nil
}

// Acknowledge stamps the event if and only if it has not been acknowledged
// yet. Returns whether anything changed; an already-stamped event is a
// no-op, not an error.
func (r *EventRepository) Acknowledge(id, actorID string) (bool, error) {
	now := time.Now()
	changed := false

	err := r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Event{}).
			Where("id = ? AND acknowledged_at IS NULL AND status = ?", id, models.EventActive).
			Updates(map[string]interface{}{
				"acknowledged_at": now,
				"acknowledged_by": actorID,
				"status":          models.EventAcknowledged,
				"status_rank":     models.StatusRank(models.EventAcknowledged),
				"updated_at":      now,
			})
		if result.Error != nil {
			return result.Error
		}
		changed = result.RowsAffected > 0
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to acknowledge event: %w", err)
	}
	return changed, nil
}

type EventFilter struct {
	Status    string
	Severity  string
	EventType string
	ElementID string
	From      *time.Time
	To        *time.Time
	Page      int
	PageSize  int
}

// List returns a page of events in the fixed listing order: active before
// non-active, then by severity rank (critical first), then newest first.
// Deleted events only appear when explicitly filtered for.
func (r *EventRepository) List(filter EventFilter) ([]models.Event, int64, error) {
	query := r.db.Model(&models.Event{})

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	} else {
		query = query.Where("status <> ?", models.EventDeleted)
	}
	if filter.Severity != "" {
		query = query.Where("severity = ?", filter.Severity)
	}
	if filter.EventType != "" {
		query = query.Where("event_type = ?", filter.EventType)
	}
	if filter.ElementID != "" {
		query = query.Where("element_id = ?", filter.ElementID)
	}
	if filter.From != nil {
		query = query.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("created_at <= ?", *filter.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count events: %w", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}

	var events []models.Event
	result := query.
		Order("status_rank ASC").
		Order("severity_rank ASC").
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&events)
	if result.Error != nil {
		return nil, 0, fmt.Errorf("failed to list events: %w", result.Error)
	}
	return events, total, nil
}
