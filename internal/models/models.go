package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// ================ USER MODELS ================

type UserRole string

const (
	RoleDispatcher UserRole = "dispatcher"
	RoleEngineer   UserRole = "engineer"
	RoleAdmin      UserRole = "admin"
)

type User struct {
	ID           string    `json:"id" gorm:"primaryKey"`
	Name         string    `json:"name"`
	Email        string    `json:"email" gorm:"uniqueIndex"`
	PasswordHash string    `json:"-" gorm:"column:password_hash"`
	Role         UserRole  `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// ================ AUTH MODELS ================

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type AuthResponse struct {
	User  UserResponse `json:"user"`
	Token string       `json:"token"`
}

type UserResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// ================ ADMIN MODELS ================

type AdminCreateRequest struct {
	Name     string `json:"name" binding:"required,min=2,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role" binding:"required,oneof=admin dispatcher engineer"`
}

type AdminUpdateRequest struct {
	Name  string `json:"name" binding:"required,min=2,max=100"`
	Email string `json:"email" binding:"required,email"`
	Role  string `json:"role" binding:"required,oneof=admin dispatcher engineer"`
}

type AdminChangePasswordRequest struct {
	NewPassword string `json:"newPassword" binding:"required,min=6"`
}

// ================ GRID ELEMENT MODELS ================

type ElementType string

const (
	ElementBus         ElementType = "bus"
	ElementGenerator   ElementType = "generator"
	ElementLoad        ElementType = "load"
	ElementTransformer ElementType = "transformer"
	ElementLine        ElementType = "line"
)

func (t ElementType) Valid() bool {
	switch t {
	case ElementBus, ElementGenerator, ElementLoad, ElementTransformer, ElementLine:
		return true
	default:
		return false
	}
}

type ElementStatus string

const (
	StatusActive      ElementStatus = "active"
	StatusInactive    ElementStatus = "inactive"
	StatusMaintenance ElementStatus = "maintenance"
	StatusFault       ElementStatus = "fault"
)

func (s ElementStatus) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusMaintenance, StatusFault:
		return true
	default:
		return false
	}
}

type BusType string

const (
	BusSlack BusType = "slack"
	BusPV    BusType = "pv"
	BusPQ    BusType = "pq"
)

// DeleteState marks an element as logically removed. Elements are never
// physically erased; every snapshot query filters on delete_state.
type DeleteState string

const (
	DeleteStateActive  DeleteState = "active"
	DeleteStateDeleted DeleteState = "deleted"
)

type GridElement struct {
	ID          string        `json:"id" gorm:"primaryKey"`
	Name        string        `json:"name"`
	ElementType ElementType   `json:"elementType" gorm:"column:element_type;index"`
	Status      ElementStatus `json:"status"`
	DeleteState DeleteState   `json:"-" gorm:"column:delete_state;index;default:active"`

	// Common electrical attributes (not every type uses every field).
	VoltageLevel float64  `json:"voltageLevel"`
	BusType      *BusType `json:"busType,omitempty"`

	RatedCapacity *float64 `json:"ratedCapacity,omitempty"`
	MinCapacity   *float64 `json:"minCapacity,omitempty"`
	MaxCapacity   *float64 `json:"maxCapacity,omitempty"`

	RatedPower *float64 `json:"ratedPower,omitempty"`
	Priority   *int     `json:"priority,omitempty"`

	PrimaryVoltage   *float64 `json:"primaryVoltage,omitempty"`
	SecondaryVoltage *float64 `json:"secondaryVoltage,omitempty"`

	// Lines only: derived from the path points, never edited directly.
	LengthKm *float64 `json:"lengthKm,omitempty" gorm:"column:length_km"`

	// Map position for the graph view.
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`

	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (GridElement) TableName() string {
	return "grid_elements"
}

type CreateElementRequest struct {
	Name         string  `json:"name" binding:"required,min=1,max=100"`
	ElementType  string  `json:"elementType" binding:"required,oneof=bus generator load transformer line"`
	Status       string  `json:"status" binding:"omitempty,oneof=active inactive maintenance fault"`
	Description  string  `json:"description" binding:"max=500"`
	VoltageLevel float64 `json:"voltageLevel"`

	BusType          *string  `json:"busType,omitempty" binding:"omitempty,oneof=slack pv pq"`
	RatedCapacity    *float64 `json:"ratedCapacity,omitempty"`
	MinCapacity      *float64 `json:"minCapacity,omitempty"`
	MaxCapacity      *float64 `json:"maxCapacity,omitempty"`
	RatedPower       *float64 `json:"ratedPower,omitempty"`
	Priority         *int     `json:"priority,omitempty"`
	PrimaryVoltage   *float64 `json:"primaryVoltage,omitempty"`
	SecondaryVoltage *float64 `json:"secondaryVoltage,omitempty"`
	Latitude         *float64 `json:"latitude,omitempty"`
	Longitude        *float64 `json:"longitude,omitempty"`
}

type UpdateElementRequest struct {
	Name         string  `json:"name" binding:"required,min=1,max=100"`
	Status       string  `json:"status" binding:"required,oneof=active inactive maintenance fault"`
	Description  string  `json:"description" binding:"max=500"`
	VoltageLevel float64 `json:"voltageLevel"`

	BusType          *string  `json:"busType,omitempty" binding:"omitempty,oneof=slack pv pq"`
	RatedCapacity    *float64 `json:"ratedCapacity,omitempty"`
	MinCapacity      *float64 `json:"minCapacity,omitempty"`
	MaxCapacity      *float64 `json:"maxCapacity,omitempty"`
	RatedPower       *float64 `json:"ratedPower,omitempty"`
	Priority         *int     `json:"priority,omitempty"`
	PrimaryVoltage   *float64 `json:"primaryVoltage,omitempty"`
	SecondaryVoltage *float64 `json:"secondaryVoltage,omitempty"`
	Latitude         *float64 `json:"latitude,omitempty"`
	Longitude        *float64 `json:"longitude,omitempty"`
}

// ================ CONNECTION MODELS ================

type Connection struct {
	ID            string `json:"id" gorm:"primaryKey"`
	FromElementID string `json:"fromElementId" gorm:"index"`
	ToElementID   string `json:"toElementId" gorm:"index"`
	// PairKey is the normalized unordered endpoint pair ("min|max"). The
	// unique index is what makes concurrent upserts of the same pair safe.
	PairKey        string    `json:"-" gorm:"uniqueIndex"`
	ConnectionType string    `json:"connectionType"`
	IsConnected    bool      `json:"isConnected"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (Connection) TableName() string {
	return "connections"
}

type UpsertConnectionRequest struct {
	FromElementID  string `json:"fromElementId" binding:"required"`
	ToElementID    string `json:"toElementId" binding:"required"`
	ConnectionType string `json:"connectionType"`
	IsConnected    *bool  `json:"isConnected,omitempty"`
}

// ================ LINE PATH MODELS ================

type PointType string

const (
	PointStart        PointType = "start"
	PointEnd          PointType = "end"
	PointIntermediate PointType = "intermediate"
	PointTower        PointType = "tower"
	PointJunction     PointType = "junction"
)

type LinePathPoint struct {
	ID            int       `json:"id" gorm:"primaryKey;autoIncrement"`
	LineID        string    `json:"lineId" gorm:"index"`
	SequenceOrder int       `json:"sequenceOrder"`
	Latitude      float64   `json:"latitude"`
	Longitude     float64   `json:"longitude"`
	Elevation     *float64  `json:"elevation,omitempty"`
	PointType     PointType `json:"pointType"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (LinePathPoint) TableName() string {
	return "line_path_points"
}

type PathPointRequest struct {
	SequenceOrder int      `json:"sequenceOrder"`
	Latitude      float64  `json:"latitude" binding:"min=-90,max=90"`
	Longitude     float64  `json:"longitude" binding:"min=-180,max=180"`
	Elevation     *float64 `json:"elevation,omitempty"`
	PointType     string   `json:"pointType" binding:"omitempty,oneof=start end intermediate tower junction"`
}

type ReplaceLinePathRequest struct {
	Points []PathPointRequest `json:"points" binding:"required,min=2,dive"`
}

type LinePathResponse struct {
	LineID   string          `json:"lineId"`
	LengthKm float64         `json:"lengthKm"`
	Points   []LinePathPoint `json:"points"`
}

// ================ EVENT MODELS ================

type EventSeverity string

const (
	SeverityLow      EventSeverity = "low"
	SeverityMedium   EventSeverity = "medium"
	SeverityHigh     EventSeverity = "high"
	SeverityCritical EventSeverity = "critical"
)

func (s EventSeverity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	default:
		return false
	}
}

type EventStatus string

const (
	EventActive       EventStatus = "active"
	EventAcknowledged EventStatus = "acknowledged"
	EventResolved     EventStatus = "resolved"
	EventDeleted      EventStatus = "deleted"
)

func (s EventStatus) Valid() bool {
	switch s {
	case EventActive, EventAcknowledged, EventResolved, EventDeleted:
		return true
	default:
		return false
	}
}

// severityRanks and statusRanks give the fixed listing order an explicit
// integer form so the DB sort stays a plain column sort. Lower sorts first.
var severityRanks = map[EventSeverity]int{
	SeverityCritical: 0,
	SeverityHigh:     1,
	SeverityMedium:   2,
	SeverityLow:      3,
}

var statusRanks = map[EventStatus]int{
	EventActive:       0,
	EventAcknowledged: 1,
	EventResolved:     2,
	EventDeleted:      3,
}

func SeverityRank(s EventSeverity) int {
	if rank, ok := severityRanks[s]; ok {
		return rank
	}
	return len(severityRanks)
}

func StatusRank(s EventStatus) int {
	if rank, ok := statusRanks[s]; ok {
		return rank
	}
	return len(statusRanks)
}

// JSONMap stores an open key/value payload as a jsonb column.
type JSONMap map[string]interface{}

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

func (m *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("unsupported source type for JSONMap")
	}
	return json.Unmarshal(data, m)
}

type Event struct {
	ID           string        `json:"id" gorm:"primaryKey"`
	ElementID    string        `json:"elementId" gorm:"index"`
	EventType    string        `json:"eventType" gorm:"index"`
	Severity     EventSeverity `json:"severity"`
	SeverityRank int           `json:"-" gorm:"column:severity_rank;index"`
	Category     string        `json:"category"`
	Description  string        `json:"description"`
	Parameters   JSONMap       `json:"parameters,omitempty" gorm:"type:jsonb"`
	Status       EventStatus   `json:"status" gorm:"index"`
	StatusRank   int           `json:"-" gorm:"column:status_rank;index"`

	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	AcknowledgedAt *time.Time `json:"acknowledged_at,omitempty"`
	AcknowledgedBy *string    `json:"acknowledged_by,omitempty"`
	ResolvedAt     *time.Time `json:"resolved_at,omitempty"`
	ResolvedBy     *string    `json:"resolved_by,omitempty"`
}

func (Event) TableName() string {
	return "events"
}

type CreateEventRequest struct {
	ElementID   string  `json:"elementId" binding:"required"`
	EventType   string  `json:"eventType" binding:"required"`
	Severity    string  `json:"severity" binding:"required,oneof=low medium high critical"`
	Category    string  `json:"category"`
	Description string  `json:"description" binding:"required,max=500"`
	Parameters  JSONMap `json:"parameters,omitempty"`
}

type ResolveEventRequest struct {
	Notes string `json:"notes" binding:"max=1000"`
}

type UpdateSeverityRequest struct {
	Severity string `json:"severity" binding:"required,oneof=low medium high critical"`
}

type UpdateEventStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=active acknowledged resolved deleted"`
}

type EventListResponse struct {
	Events     []Event `json:"events"`
	Total      int64   `json:"total"`
	Page       int     `json:"page"`
	PageSize   int     `json:"pageSize"`
	TotalPages int     `json:"totalPages"`
}

// ================ MEASUREMENT MODELS ================

type MeasurementItem struct {
	ElementID string             `json:"elementId" binding:"required"`
	Metrics   map[string]float64 `json:"metrics" binding:"required"`
	Timestamp *time.Time         `json:"timestamp,omitempty"`
}

type MeasurementBatchRequest struct {
	Measurements []MeasurementItem `json:"measurements" binding:"required,min=1,dive"`
}

type MeasurementBatchResponse struct {
	Successful int      `json:"successful"`
	Failed     int      `json:"failed"`
	Errors     []string `json:"errors,omitempty"`
}
