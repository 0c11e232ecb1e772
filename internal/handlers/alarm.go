package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gridscope/gridscope-backend/internal/alarms"
	"github.com/gridscope/gridscope-backend/internal/models"
	"github.com/gridscope/gridscope-backend/internal/repository"
	"github.com/gridscope/gridscope-backend/internal/service"

	"github.com/gin-gonic/gin"
)

type AlarmHandler struct {
	alarmService *service.AlarmService
}

func NewAlarmHandler(alarmService *service.AlarmService) *AlarmHandler {
	return &AlarmHandler{alarmService: alarmService}
}

// ================ EVENTS ================

func (h *AlarmHandler) ListEvents(c *gin.Context) {
	filter := repository.EventFilter{
		Status:    c.Query("status"),
		Severity:  c.Query("severity"),
		EventType: c.Query("event_type"),
		ElementID: c.Query("element_id"),
	}
	if fromStr := c.Query("from"); fromStr != "" {
		if from, err := time.Parse(time.RFC3339, fromStr); err == nil {
			filter.From = &from
		}
	}
	if toStr := c.Query("to"); toStr != "" {
		if to, err := time.Parse(time.RFC3339, toStr); err == nil {
			filter.To = &to
		}
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if pageSize, err := strconv.Atoi(c.DefaultQuery("page_size", "50")); err == nil {
		filter.PageSize = pageSize
	}

	resp, err := h.alarmService.ListEvents(filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to list events",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *AlarmHandler) GetEvent(c *gin.Context) {
	event, err := h.alarmService.GetEvent(c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "not_found",
				"message": "Event not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to get event",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, event)
}

func (h *AlarmHandler) CreateEvent(c *gin.Context) {
	var req models.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	event, err := h.alarmService.CreateEvent(&req)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "not_found",
				"message": "Element not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to create event",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, event)
}

func (h *AlarmHandler) AcknowledgeEvent(c *gin.Context) {
	actorID := c.GetString("user_id")

	event, err := h.alarmService.Acknowledge(c.Param("id"), actorID)
	if err != nil {
		switch {
		case errors.Is(err, alarms.ErrNoChanges):
			c.JSON(http.StatusOK, gin.H{
				"message": "No changes made",
				"event":   event,
			})
		case errors.Is(err, repository.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "not_found",
				"message": "Event not found",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "internal_error",
				"message": "Failed to acknowledge event",
				"details": err.Error(),
			})
		}
		return
	}

	c.JSON(http.StatusOK, event)
}

func (h *AlarmHandler) ResolveEvent(c *gin.Context) {
	// Notes are optional and an empty body is fine.
	var req models.ResolveEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		req = models.ResolveEventRequest{}
	}
	actorID := c.GetString("user_id")

	event, err := h.alarmService.Resolve(c.Request.Context(), c.Param("id"), actorID, req.Notes)
	if err != nil {
		switch {
		case errors.Is(err, alarms.ErrNoChanges):
			c.JSON(http.StatusOK, gin.H{
				"message": "No changes made",
				"event":   event,
			})
		case errors.Is(err, repository.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "not_found",
				"message": "Event not found",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "internal_error",
				"message": "Failed to resolve event",
				"details": err.Error(),
			})
		}
		return
	}

	c.JSON(http.StatusOK, event)
}

func (h *AlarmHandler) UpdateEventSeverity(c *gin.Context) {
	var req models.UpdateSeverityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	event, err := h.alarmService.SetSeverity(c.Request.Context(), c.Param("id"), models.EventSeverity(req.Severity))
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "not_found",
				"message": "Event not found",
			})
		default:
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "validation_error",
				"message": err.Error(),
			})
		}
		return
	}

	c.JSON(http.StatusOK, event)
}

func (h *AlarmHandler) UpdateEventStatus(c *gin.Context) {
	var req models.UpdateEventStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	event, err := h.alarmService.SetStatus(c.Request.Context(), c.Param("id"), models.EventStatus(req.Status))
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "not_found",
				"message": "Event not found",
			})
		default:
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "validation_error",
				"message": err.Error(),
			})
		}
		return
	}

	c.JSON(http.StatusOK, event)
}

// DeleteEvent hides a resolved event. The response does not distinguish
// a missing event from one in the wrong status.
func (h *AlarmHandler) DeleteEvent(c *gin.Context) {
	eventID := c.Param("id")

	if err := h.alarmService.Delete(c.Request.Context(), eventID); err != nil {
		if errors.Is(err, alarms.ErrCannotDelete) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "not_found",
				"message": err.Error(),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to delete event",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Event deleted successfully",
		"event_id": eventID,
	})
}

// ================ MEASUREMENTS ================

func (h *AlarmHandler) IngestMeasurements(c *gin.Context) {
	var req models.MeasurementBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": "Invalid request data",
			"details": err.Error(),
		})
		return
	}
	if len(req.Measurements) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": "Measurement batch is empty",
		})
		return
	}

	resp := h.alarmService.ProcessMeasurements(c.Request.Context(), &req)
	c.JSON(http.StatusOK, resp)
}

func (h *AlarmHandler) GetRecentMeasurements(c *gin.Context) {
	hours := 24
	if hoursStr := c.Query("hours"); hoursStr != "" {
		if parsed, err := strconv.Atoi(hoursStr); err == nil && parsed > 0 {
			hours = parsed
		}
	}

	samples, err := h.alarmService.RecentMeasurements(c.Request.Context(), c.Param("id"), time.Duration(hours)*time.Hour)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "not_found",
				"message": "Element not found",
			})
			return
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "measurements_unavailable",
			"message": "Failed to read measurement history",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"element_id":   c.Param("id"),
		"hours":        hours,
		"measurements": samples,
		"count":        len(samples),
	})
}

// GetActiveAlarm reads the cache mirror for one (element, metric) pair.
func (h *AlarmHandler) GetActiveAlarm(c *gin.Context) {
	entry, err := h.alarmService.ActiveAlarm(c.Request.Context(), c.Param("id"), c.Param("metric"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to read alarm cache",
			"details": err.Error(),
		})
		return
	}

	if entry == nil {
		c.JSON(http.StatusOK, gin.H{"active": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"active": true,
		"alarm":  entry,
	})
}
