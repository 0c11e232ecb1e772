package service

import (
	"errors"
	"fmt"

	"github.com/gridscope/gridscope-backend/internal/models"
	"github.com/gridscope/gridscope-backend/internal/repository"
	"github.com/gridscope/gridscope-backend/internal/topology"
)

var (
	ErrSelfConnection    = errors.New("cannot connect an element to itself")
	ErrNotALine          = errors.New("element is not a line")
	ErrUnknownViewFormat = errors.New("unknown topology view format")
	ErrCapacityRange     = errors.New("minCapacity cannot exceed maxCapacity")
)

type TopologyService struct {
	elementRepo *repository.ElementRepository
}

func NewTopologyService(elementRepo *repository.ElementRepository) *TopologyService {
	return &TopologyService{elementRepo: elementRepo}
}

// ================ ELEMENTS ================

func (s *TopologyService) CreateElement(req *models.CreateElementRequest) (*models.GridElement, error) {
	if req.MinCapacity != nil && req.MaxCapacity != nil && *req.MinCapacity > *req.MaxCapacity {
		return nil, ErrCapacityRange
	}

	status := models.ElementStatus(req.Status)
	if req.Status == "" {
		status = models.StatusActive
	}

	element := &models.GridElement{
		Name:         req.Name,
		ElementType:  models.ElementType(req.ElementType),
		Status:       status,
		DeleteState:  models.DeleteStateActive,
		VoltageLevel: req.VoltageLevel,
		Description:  req.Description,

		RatedCapacity:    req.RatedCapacity,
		MinCapacity:      req.MinCapacity,
		MaxCapacity:      req.MaxCapacity,
		RatedPower:       req.RatedPower,
		Priority:         req.Priority,
		PrimaryVoltage:   req.PrimaryVoltage,
		SecondaryVoltage: req.SecondaryVoltage,
		Latitude:         req.Latitude,
		Longitude:        req.Longitude,
	}
	if req.BusType != nil {
		busType := models.BusType(*req.BusType)
		element.BusType = &busType
	}

	if err := s.elementRepo.Create(element); err != nil {
		return nil, fmt.Errorf("failed to create element: %w", err)
	}
	return element, nil
}

func (s *TopologyService) GetElement(id string) (*models.GridElement, error) {
	return s.elementRepo.GetByID(id)
}

func (s *TopologyService) ListElements(filter repository.ElementFilter) ([]models.GridElement, error) {
	return s.elementRepo.List(filter)
}

func (s *TopologyService) UpdateElement(id string, req *models.UpdateElementRequest) (*models.GridElement, error) {
	if req.MinCapacity != nil && req.MaxCapacity != nil && *req.MinCapacity > *req.MaxCapacity {
		return nil, ErrCapacityRange
	}

	element, err := s.elementRepo.GetByID(id)
	if err != nil {
		return nil, err
	}

	element.Name = req.Name
	element.Status = models.ElementStatus(req.Status)
	element.Description = req.Description
	element.VoltageLevel = req.VoltageLevel
	element.RatedCapacity = req.RatedCapacity
	element.MinCapacity = req.MinCapacity
	element.MaxCapacity = req.MaxCapacity
	element.RatedPower = req.RatedPower
	element.Priority = req.Priority
	element.PrimaryVoltage = req.PrimaryVoltage
	element.SecondaryVoltage = req.SecondaryVoltage
	element.Latitude = req.Latitude
	element.Longitude = req.Longitude
	if req.BusType != nil {
		busType := models.BusType(*req.BusType)
		element.BusType = &busType
	}

	if err := s.elementRepo.Update(element); err != nil {
		return nil, fmt.Errorf("failed to update element: %w", err)
	}
	return element, nil
}

// DeleteElement soft-deletes the element. Its connections stay in the
// store for audit; views stop seeing them because the element drops out
// of every snapshot.
func (s *TopologyService) DeleteElement(id string) error {
	return s.elementRepo.SoftDelete(id)
}

// ================ CONNECTIONS ================

// UpsertConnection validates the bus-star invariant and creates or
// updates the single connection record for the unordered endpoint pair.
func (s *TopologyService) UpsertConnection(req *models.UpsertConnectionRequest) (*models.Connection, bool, error) {
	if req.FromElementID == req.ToElementID {
		return nil, false, ErrSelfConnection
	}

	from, err := s.elementRepo.GetByID(req.FromElementID)
	if err != nil {
		return nil, false, fmt.Errorf("from element %s: %w", req.FromElementID, err)
	}
	to, err := s.elementRepo.GetByID(req.ToElementID)
	if err != nil {
		return nil, false, fmt.Errorf("to element %s: %w", req.ToElementID, err)
	}

	if err := topology.ValidateConnection(from.ElementType, to.ElementType); err != nil {
		return nil, false, err
	}

	connectionType := req.ConnectionType
	if connectionType == "" {
		connectionType = "electrical"
	}
	isConnected := true
	if req.IsConnected != nil {
		isConnected = *req.IsConnected
	}

	conn := &models.Connection{
		FromElementID:  req.FromElementID,
		ToElementID:    req.ToElementID,
		ConnectionType: connectionType,
		IsConnected:    isConnected,
	}

	created, err := s.elementRepo.UpsertConnection(conn)
	if err != nil {
		return nil, false, err
	}
	return conn, created, nil
}

// DisconnectPair opens the connection between two elements without
// removing the record.
func (s *TopologyService) DisconnectPair(a, b string) (*models.Connection, error) {
	conn, err := s.elementRepo.GetConnectionByPair(a, b)
	if err != nil {
		return nil, err
	}

	conn.IsConnected = false
	if _, err := s.elementRepo.UpsertConnection(conn); err != nil {
		return nil, err
	}
	return conn, nil
}

func (s *TopologyService) ListConnections(includeDisconnected bool) ([]models.Connection, error) {
	return s.elementRepo.ListConnections(includeDisconnected)
}

// ================ LINE PATHS ================

// ReplaceLinePath swaps the line's full point list and recomputes its
// length as one atomic unit; the stored length is never editable on its
// own.
func (s *TopologyService) ReplaceLinePath(lineID string, req *models.ReplaceLinePathRequest) (*models.LinePathResponse, error) {
	element, err := s.elementRepo.GetByID(lineID)
	if err != nil {
		return nil, err
	}
	if element.ElementType != models.ElementLine {
		return nil, ErrNotALine
	}

	points := make([]models.LinePathPoint, len(req.Points))
	for i, p := range req.Points {
		pointType := models.PointType(p.PointType)
		if p.PointType == "" {
			pointType = models.PointIntermediate
		}
		points[i] = models.LinePathPoint{
			SequenceOrder: p.SequenceOrder,
			Latitude:      p.Latitude,
			Longitude:     p.Longitude,
			Elevation:     p.Elevation,
			PointType:     pointType,
		}
	}

	if err := topology.ValidatePath(points); err != nil {
		return nil, err
	}

	points = topology.NormalizePath(points)
	lengthKm := topology.PathLengthKm(points)

	if err := s.elementRepo.ReplaceLinePath(lineID, points, lengthKm); err != nil {
		return nil, err
	}

	return &models.LinePathResponse{
		LineID:   lineID,
		LengthKm: lengthKm,
		Points:   points,
	}, nil
}

func (s *TopologyService) GetLinePath(lineID string) (*models.LinePathResponse, error) {
	element, err := s.elementRepo.GetByID(lineID)
	if err != nil {
		return nil, err
	}
	if element.ElementType != models.ElementLine {
		return nil, ErrNotALine
	}

	points, err := s.elementRepo.GetLinePath(lineID)
	if err != nil {
		return nil, err
	}

	lengthKm := 0.0
	if element.LengthKm != nil {
		lengthKm = *element.LengthKm
	}

	return &models.LinePathResponse{
		LineID:   lineID,
		LengthKm: lengthKm,
		Points:   points,
	}, nil
}

// ================ VIEWS ================

// BuildView loads a filtered snapshot and derives the requested
// representation from it. The snapshot is per-request and discarded after
// formatting.
func (s *TopologyService) BuildView(format string, filter repository.ElementFilter, includeDisconnected bool) (interface{}, error) {
	elements, err := s.elementRepo.List(filter)
	if err != nil {
		return nil, err
	}
	connections, err := s.elementRepo.ListConnections(includeDisconnected)
	if err != nil {
		return nil, err
	}

	snapshot := &topology.Snapshot{
		Elements:    elements,
		Connections: connections,
	}

	switch format {
	case "graph", "":
		return topology.BuildGraphView(snapshot), nil
	case "adjacency":
		return topology.BuildAdjacencyView(snapshot), nil
	case "matrix":
		return topology.BuildMatrixView(snapshot), nil
	case "hierarchical":
		return topology.BuildHierarchicalView(snapshot), nil
	default:
		return nil, ErrUnknownViewFormat
	}
}
