package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gridscope/gridscope-backend/internal/alarms"
	"github.com/gridscope/gridscope-backend/internal/cache"
	"github.com/gridscope/gridscope-backend/internal/models"
	"github.com/gridscope/gridscope-backend/internal/repository"
	"github.com/gridscope/gridscope-backend/internal/timeseries"
)

// errorSampleLimit caps the per-batch error list in the response; the
// full list still goes to the log.
const errorSampleLimit = 10

type AlarmService struct {
	eventRepo    *repository.EventRepository
	elementRepo  *repository.ElementRepository
	rules        *alarms.RuleSet
	alarmCache   *cache.AlarmCache
	measurements *timeseries.MeasurementStore
}

func NewAlarmService(
	eventRepo *repository.EventRepository,
	elementRepo *repository.ElementRepository,
	rules *alarms.RuleSet,
	alarmCache *cache.AlarmCache,
	measurements *timeseries.MeasurementStore,
) *AlarmService {
	return &AlarmService{
		eventRepo:    eventRepo,
		elementRepo:  elementRepo,
		rules:        rules,
		alarmCache:   alarmCache,
		measurements: measurements,
	}
}

// ================ MEASUREMENT PROCESSING ================

// ProcessMeasurements runs a measurement batch through the threshold
// rules. Per-item failures (unknown element, store errors) are collected
// and reported; the batch as a whole always completes.
func (s *AlarmService) ProcessMeasurements(ctx context.Context, req *models.MeasurementBatchRequest) *models.MeasurementBatchResponse {
	resp := &models.MeasurementBatchResponse{}
	var allErrors []string

	for _, item := range req.Measurements {
		if err := s.processItem(ctx, &item); err != nil {
			resp.Failed++
			allErrors = append(allErrors, fmt.Sprintf("element %s: %v", item.ElementID, err))
			continue
		}
		resp.Successful++
	}

	if len(allErrors) > 0 {
		log.Printf("⚠️ Measurement batch finished with %d failed items: %v", resp.Failed, allErrors)
	}
	if len(allErrors) > errorSampleLimit {
		allErrors = allErrors[:errorSampleLimit]
	}
	resp.Errors = allErrors
	return resp
}

func (s *AlarmService) processItem(ctx context.Context, item *models.MeasurementItem) error {
	element, err := s.elementRepo.GetByID(item.ElementID)
	if err != nil {
		return err
	}
	if len(item.Metrics) == 0 {
		return errors.New("no metrics in measurement")
	}

	ts := time.Now()
	if item.Timestamp != nil {
		ts = *item.Timestamp
	}

	// Raw history mirror is best-effort; the event rows below are the
	// system of record.
	if err := s.measurements.Write(ctx, element.ID, element.ElementType, item.Metrics, ts); err != nil {
		log.Printf("⚠️ Failed to mirror measurements for element %s: %v", element.ID, err)
	}

	for metric, value := range item.Metrics {
		violation := s.rules.Evaluate(element.ElementType, metric, value)
		if violation == nil {
			continue
		}
		if err := s.raiseAlarm(ctx, element, violation, ts); err != nil {
			return err
		}
	}
	return nil
}

func (s *AlarmService) raiseAlarm(ctx context.Context, element *models.GridElement, violation *alarms.Violation, ts time.Time) error {
	event := &models.Event{
		ElementID: element.ID,
		EventType: "alarm",
		Severity:  violation.Severity,
		Category:  "threshold_violation",
		Description: fmt.Sprintf("%s %s violation on %s: value %.3f exceeds %s bound %.3f",
			element.ElementType, violation.Metric, element.Name,
			violation.Value, violation.BoundKind, violation.Bound),
		Parameters: models.JSONMap{
			"metric":      violation.Metric,
			"value":       violation.Value,
			"bound":       violation.Bound,
			"bound_kind":  string(violation.BoundKind),
			"measured_at": ts.Format(time.RFC3339),
		},
		Status: models.EventActive,
	}

	if err := s.eventRepo.Create(event); err != nil {
		return err
	}

	if alarms.MirrorWorthy(violation.Severity) {
		entry := cache.AlarmEntry{
			EventID:   event.ID,
			ElementID: element.ID,
			Metric:    violation.Metric,
			Value:     violation.Value,
			Severity:  violation.Severity,
			CreatedAt: event.CreatedAt,
		}
		if err := s.alarmCache.Set(ctx, entry); err != nil {
			log.Printf("⚠️ Failed to mirror alarm for element %s metric %s: %v", element.ID, violation.Metric, err)
		}
	}
	return nil
}

// ================ EVENTS ================

func (s *AlarmService) CreateEvent(req *models.CreateEventRequest) (*models.Event, error) {
	if _, err := s.elementRepo.GetByID(req.ElementID); err != nil {
		return nil, err
	}

	category := req.Category
	if category == "" {
		category = "manual"
	}

	event := &models.Event{
		ElementID:   req.ElementID,
		EventType:   req.EventType,
		Severity:    models.EventSeverity(req.Severity),
		Category:    category,
		Description: req.Description,
		Parameters:  req.Parameters,
		Status:      models.EventActive,
	}

	if err := s.eventRepo.Create(event); err != nil {
		return nil, err
	}
	return event, nil
}

func (s *AlarmService) GetEvent(id string) (*models.Event, error) {
	event, err := s.eventRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if event.Status == models.EventDeleted {
		return nil, repository.ErrNotFound
	}
	return event, nil
}

func (s *AlarmService) ListEvents(filter repository.EventFilter) (*models.EventListResponse, error) {
	events, total, err := s.eventRepo.List(filter)
	if err != nil {
		return nil, err
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))

	if events == nil {
		events = []models.Event{}
	}

	return &models.EventListResponse{
		Events:     events,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// Acknowledge stamps the event with the acting operator. Acknowledging an
// already-acknowledged (or resolved) event changes nothing and reports
// alarms.ErrNoChanges.
func (s *AlarmService) Acknowledge(id, actorID string) (*models.Event, error) {
	event, err := s.GetEvent(id)
	if err != nil {
		return nil, err
	}

	if !alarms.CanAcknowledge(event) {
		return event, alarms.ErrNoChanges
	}

	changed, err := s.eventRepo.Acknowledge(id, actorID)
	if err != nil {
		return nil, err
	}
	if !changed {
		// Lost a race with another acknowledge; still a no-op.
		return event, alarms.ErrNoChanges
	}

	return s.GetEvent(id)
}

// Resolve transitions the event to resolved under compare-and-swap.
// Acknowledgement is optional, not a precondition.
func (s *AlarmService) Resolve(ctx context.Context, id, actorID, notes string) (*models.Event, error) {
	event, err := s.GetEvent(id)
	if err != nil {
		return nil, err
	}
	if !alarms.CanResolve(event.Status) {
		return event, alarms.ErrNoChanges
	}

	swapped, err := s.eventRepo.ResolveEvent(id, actorID, notes)
	if err != nil {
		return nil, err
	}
	if !swapped {
		return event, alarms.ErrNoChanges
	}

	s.dropMirror(ctx, event)
	return s.GetEvent(id)
}

// SetSeverity is a direct operator override. Raising an active event to a
// mirror-worthy severity refreshes the cache entry.
func (s *AlarmService) SetSeverity(ctx context.Context, id string, severity models.EventSeverity) (*models.Event, error) {
	if !severity.Valid() {
		return nil, fmt.Errorf("invalid severity: %s", severity)
	}

	event, err := s.GetEvent(id)
	if err != nil {
		return nil, err
	}

	err = s.eventRepo.UpdateFields(id, map[string]interface{}{
		"severity":      severity,
		"severity_rank": models.SeverityRank(severity),
	})
	if err != nil {
		return nil, err
	}

	if event.Status == models.EventActive && alarms.MirrorWorthy(severity) {
		s.refreshMirror(ctx, event, severity)
	}

	return s.GetEvent(id)
}

// SetStatus is a direct operator override restricted to the status enum.
func (s *AlarmService) SetStatus(ctx context.Context, id string, status models.EventStatus) (*models.Event, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("invalid status: %s", status)
	}

	event, err := s.GetEvent(id)
	if err != nil {
		return nil, err
	}

	err = s.eventRepo.UpdateFields(id, map[string]interface{}{
		"status":      status,
		"status_rank": models.StatusRank(status),
	})
	if err != nil {
		return nil, err
	}

	if status == models.EventResolved || status == models.EventDeleted {
		s.dropMirror(ctx, event)
	}

	// The public getter hides deleted events; an override that just moved
	// the event there still reports the row it wrote.
	return s.eventRepo.GetByID(id)
}

// Delete marks a resolved event deleted. Any other starting status fails
// with alarms.ErrCannotDelete, which deliberately reads the same as a
// missing event.
func (s *AlarmService) Delete(ctx context.Context, id string) error {
	event, err := s.eventRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return alarms.ErrCannotDelete
		}
		return err
	}

	if !alarms.CanDelete(event.Status) {
		return alarms.ErrCannotDelete
	}

	swapped, err := s.eventRepo.TransitionStatus(id,
		[]models.EventStatus{models.EventResolved},
		models.EventDeleted, nil)
	if err != nil {
		return err
	}
	if !swapped {
		return alarms.ErrCannotDelete
	}

	s.dropMirror(ctx, event)
	return nil
}

// ================ FAST-PATH READS ================

// ActiveAlarm reads the cache mirror; a nil entry means no active alarm
// is known, never an error condition.
func (s *AlarmService) ActiveAlarm(ctx context.Context, elementID, metric string) (*cache.AlarmEntry, error) {
	return s.alarmCache.Get(ctx, elementID, metric)
}

func (s *AlarmService) RecentMeasurements(ctx context.Context, elementID string, window time.Duration) ([]timeseries.Sample, error) {
	if _, err := s.elementRepo.GetByID(elementID); err != nil {
		return nil, err
	}
	return s.measurements.Recent(ctx, elementID, window)
}

// ================ MIRROR MAINTENANCE ================

func (s *AlarmService) eventMetric(event *models.Event) (string, bool) {
	if event.Parameters == nil {
		return "", false
	}
	metric, ok := event.Parameters["metric"].(string)
	return metric, ok && metric != ""
}

func (s *AlarmService) dropMirror(ctx context.Context, event *models.Event) {
	metric, ok := s.eventMetric(event)
	if !ok {
		return
	}
	if err := s.alarmCache.Delete(ctx, event.ElementID, metric); err != nil {
		log.Printf("⚠️ Failed to drop alarm mirror for element %s metric %s: %v", event.ElementID, metric, err)
	}
}

func (s *AlarmService) refreshMirror(ctx context.Context, event *models.Event, severity models.EventSeverity) {
	metric, ok := s.eventMetric(event)
	if !ok {
		return
	}
	value, _ := event.Parameters["value"].(float64)
	entry := cache.AlarmEntry{
		EventID:   event.ID,
		ElementID: event.ElementID,
		Metric:    metric,
		Value:     value,
		Severity:  severity,
		CreatedAt: event.CreatedAt,
	}
	if err := s.alarmCache.Set(ctx, entry); err != nil {
		log.Printf("⚠️ Failed to refresh alarm mirror for element %s metric %s: %v", event.ElementID, metric, err)
	}
}
