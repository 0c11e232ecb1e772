package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gridscope/gridscope-backend/internal/models"
	"github.com/gridscope/gridscope-backend/internal/repository"
	"github.com/gridscope/gridscope-backend/internal/service"
	"github.com/gridscope/gridscope-backend/internal/topology"

	"github.com/gin-gonic/gin"
)

type TopologyHandler struct {
	topologyService *service.TopologyService
}

func NewTopologyHandler(topologyService *service.TopologyService) *TopologyHandler {
	return &TopologyHandler{topologyService: topologyService}
}

// ================ ELEMENTS ================

func (h *TopologyHandler) CreateElement(c *gin.Context) {
	var req models.CreateElementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	element, err := h.topologyService.CreateElement(&req)
	if err != nil {
		if errors.Is(err, service.ErrCapacityRange) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "validation_error",
				"message": err.Error(),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to create element",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, element)
}

func (h *TopologyHandler) GetElement(c *gin.Context) {
	element, err := h.topologyService.GetElement(c.Param("id"))
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
			"message": "Failed to get element",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, element)
}

func (h *TopologyHandler) ListElements(c *gin.Context) {
	filter := elementFilterFromQuery(c)

	elements, err := h.topologyService.ListElements(filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to list elements",
			"details": err.Error(),
		})
		return
	}

	if elements == nil {
		elements = []models.GridElement{}
	}
	c.JSON(http.StatusOK, gin.H{
		"elements": elements,
		"count":    len(elements),
	})
}

func (h *TopologyHandler) UpdateElement(c *gin.Context) {
	var req models.UpdateElementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	element, err := h.topologyService.UpdateElement(c.Param("id"), &req)
	if err != nil {
		status := http.StatusInternalServerError
		errorType := "update_error"
		if errors.Is(err, repository.ErrNotFound) {
			status = http.StatusNotFound
			errorType = "not_found"
		} else if errors.Is(err, service.ErrCapacityRange) {
			status = http.StatusBadRequest
			errorType = "validation_error"
		}
		c.JSON(status, gin.H{
			"error":   errorType,
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, element)
}

func (h *TopologyHandler) DeleteElement(c *gin.Context) {
	elementID := c.Param("id")

	if err := h.topologyService.DeleteElement(elementID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "not_found",
				"message": "Element not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "delete_error",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "Element deleted successfully",
		"element_id": elementID,
	})
}

// ================ CONNECTIONS ================

func (h *TopologyHandler) UpsertConnection(c *gin.Context) {
	var req models.UpsertConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	conn, created, err := h.topologyService.UpsertConnection(&req)
	if err != nil {
		var topoErr *topology.InvalidTopologyError
		switch {
		case errors.As(err, &topoErr):
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "invalid_topology",
				"message": topoErr.Error(),
			})
		case errors.Is(err, service.ErrSelfConnection):
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "validation_error",
				"message": err.Error(),
			})
		case errors.Is(err, repository.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "not_found",
				"message": err.Error(),
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "internal_error",
				"message": "Failed to upsert connection",
				"details": err.Error(),
			})
		}
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, conn)
}

func (h *TopologyHandler) ListConnections(c *gin.Context) {
	includeDisconnected := c.Query("include_disconnected") == "true"

	connections, err := h.topologyService.ListConnections(includeDisconnected)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to list connections",
			"details": err.Error(),
		})
		return
	}

	if connections == nil {
		connections = []models.Connection{}
	}
	c.JSON(http.StatusOK, gin.H{
		"connections": connections,
		"count":       len(connections),
	})
}

// Disconnect opens the edge between two elements; the record stays for
// history.
func (h *TopologyHandler) Disconnect(c *gin.Context) {
	from := c.Query("from")
	to := c.Query("to")
	if from == "" || to == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": "Query parameters 'from' and 'to' are required",
		})
		return
	}

	conn, err := h.topologyService.DisconnectPair(from, to)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "not_found",
				"message": "Connection not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to disconnect",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, conn)
}

// ================ LINE PATHS ================

func (h *TopologyHandler) ReplaceLinePath(c *gin.Context) {
	var req models.ReplaceLinePathRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	resp, err := h.topologyService.ReplaceLinePath(c.Param("id"), &req)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "not_found",
				"message": "Line not found",
			})
		case errors.Is(err, service.ErrNotALine), errors.Is(err, topology.ErrTooFewPoints):
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "validation_error",
				"message": err.Error(),
			})
		default:
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "validation_error",
				"message": "Invalid line path",
				"details": err.Error(),
			})
		}
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *TopologyHandler) GetLinePath(c *gin.Context) {
	resp, err := h.topologyService.GetLinePath(c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "not_found",
				"message": "Line not found",
			})
		case errors.Is(err, service.ErrNotALine):
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "validation_error",
				"message": err.Error(),
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "internal_error",
				"message": "Failed to get line path",
				"details": err.Error(),
			})
		}
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ================ TOPOLOGY VIEWS ================

func (h *TopologyHandler) GetTopologyView(c *gin.Context) {
	format := c.DefaultQuery("format", "graph")
	includeDisconnected := c.Query("include_disconnected") == "true"
	filter := elementFilterFromQuery(c)

	view, err := h.topologyService.BuildView(format, filter, includeDisconnected)
	if err != nil {
		if errors.Is(err, service.ErrUnknownViewFormat) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "validation_error",
				"message": "Unknown format, expected one of: graph, adjacency, matrix, hierarchical",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to build topology view",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"format": format,
		"view":   view,
	})
}

func elementFilterFromQuery(c *gin.Context) repository.ElementFilter {
	filter := repository.ElementFilter{
		ElementType: c.Query("type"),
		Status:      c.Query("status"),
	}
	if voltageStr := c.Query("voltage"); voltageStr != "" {
		if voltage, err := strconv.ParseFloat(voltageStr, 64); err == nil {
			filter.VoltageLevel = &voltage
		}
	}
	return filter
}
