package game

import (
	"encoding/json"
	"time"

	"github.com/pedro-modular/vibecode-pilot-game/internal/game/vector"
)

// EventType enum for event classification
type EventType uint8

const (
	EventTypeUnknown EventType = iota
	EventTypeTick              // Tick boundary
	EventTypeShipJoin
	EventTypeShipLeave
	EventTypeHazardAdded
	EventTypeHazardExpired
	EventTypeHazardRemoved
	EventTypeCelestialAdded
	EventTypeBoundaryPush
	EventTypePause
	EventTypeScore
)

// EventVersion for backwards compatibility in replay
const EventVersion uint8 = 1

// Event is the core event structure for the event log
type Event struct {
	Version   uint8           `json:"version"`
	Type      EventType       `json:"type"`
	Name      string          `json:"name"`
	Timestamp int64           `json:"timestamp"` // Unix nano
	Sequence  uint64          `json:"sequence"`
	TickNum   uint64          `json:"tickNum"`
	SourceID  string          `json:"sourceId,omitempty"` // ship or body id, used for rate limiting
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// String returns human-readable event type
func (t EventType) String() string {
	switch t {
	case EventTypeTick:
		return "tick"
	case EventTypeShipJoin:
		return "ship_join"
	case EventTypeShipLeave:
		return "ship_leave"
	case EventTypeHazardAdded:
		return "hazard_added"
	case EventTypeHazardExpired:
		return "hazard_expired"
	case EventTypeHazardRemoved:
		return "hazard_removed"
	case EventTypeCelestialAdded:
		return "celestial_added"
	case EventTypeBoundaryPush:
		return "boundary_push"
	case EventTypePause:
		return "pause"
	case EventTypeScore:
		return "score"
	default:
		return "unknown"
	}
}

// TickPayload contains tick boundary information
type TickPayload struct {
	Ships       int   `json:"ships"`
	Hazards     int   `json:"hazards"`
	DeltaTimeNs int64 `json:"deltaTimeNs"`
}

// ShipPayload describes a ship joining or leaving.
type ShipPayload struct {
	ShipID   string          `json:"shipId"`
	Name     string          `json:"name"`
	Position vector.Vector3D `json:"position"`
}

// HazardPayload describes a hazard lifecycle change.
type HazardPayload struct {
	HazardID string          `json:"hazardId"`
	Type     string          `json:"type"`
	Position vector.Vector3D `json:"position"`
	Sector   string          `json:"sector,omitempty"`
}

// CelestialPayload describes a registered celestial object.
type CelestialPayload struct {
	CelestialID string          `json:"celestialId"`
	Type        string          `json:"type"`
	Position    vector.Vector3D `json:"position"`
}

// PushPayload describes one boundary correction.
type PushPayload struct {
	BodyID   string          `json:"bodyId"`
	Distance float64         `json:"distance"`
	Impulse  vector.Vector3D `json:"impulse"`
}

// PausePayload records a pause toggle.
type PausePayload struct {
	Paused bool `json:"paused"`
}

// ScorePayload records a score change.
type ScorePayload struct {
	Delta int64 `json:"delta"`
	Score int64 `json:"score"`
}

// EncodePayload marshals a payload to JSON bytes
func EncodePayload(payload interface{}) json.RawMessage {
	if payload == nil {
		return nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	return data
}

// NewEvent creates a new event with the current timestamp
func NewEvent(eventType EventType, tickNum uint64, sourceID string, payload interface{}) Event {
	return Event{
		Version:   EventVersion,
		Type:      eventType,
		Name:      eventType.String(),
		Timestamp: time.Now().UnixNano(),
		TickNum:   tickNum,
		SourceID:  sourceID,
		Payload:   EncodePayload(payload),
	}
}
