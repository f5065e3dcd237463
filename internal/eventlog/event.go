package eventlog

import (
	"encoding/json"
	"time"
)

// EventType enum for event classification
type EventType uint8

const (
	EventTypeUnknown EventType = iota
	EventTypeRunStart
	EventTypeRunEnd
	EventTypeLevelUp
	EventTypeEnemySpawn
	EventTypeCapacityTrim
	EventTypeLifeLost
	EventTypeAssetLoaded
	EventTypeAssetFailed
)

// EventVersion for backwards compatibility of the JSONL file
const EventVersion uint8 = 1

// Event is the core event structure for the diagnostic log
type Event struct {
	Version   uint8     `json:"version"`
	Type      EventType `json:"type"`
	Timestamp int64     `json:"timestamp"` // Unix nano
	Sequence  uint64    `json:"sequence"`  // Monotonic sequence
	Frame     uint64    `json:"frame"`     // Frame this occurred in (0 outside a run)
	Source    string    `json:"source"`    // Run ID or subsystem name (for rate limiting)
	Payload   []byte    `json:"payload"`   // JSON-encoded payload
}

// String returns human-readable event type
func (t EventType) String() string {
	switch t {
	case EventTypeRunStart:
		return "run_start"
	case EventTypeRunEnd:
		return "run_end"
	case EventTypeLevelUp:
		return "level_up"
	case EventTypeEnemySpawn:
		return "enemy_spawn"
	case EventTypeCapacityTrim:
		return "capacity_trim"
	case EventTypeLifeLost:
		return "life_lost"
	case EventTypeAssetLoaded:
		return "asset_loaded"
	case EventTypeAssetFailed:
		return "asset_failed"
	default:
		return "unknown"
	}
}

// MarshalJSON writes the type by name so the log stays readable.
func (t EventType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// Typed payloads for different event types

// RunStartPayload describes a freshly constructed run
type RunStartPayload struct {
	Difficulty      string  `json:"difficulty"`
	FellBack        bool    `json:"fellBack"`
	MaxSpeed        float64 `json:"maxSpeed"`
	SpawnIntervalMs float64 `json:"spawnIntervalMs"`
	Lives           int     `json:"lives"`
	TimeLimitMs     float64 `json:"timeLimitMs"`
}

// RunEndPayload describes how a run finished
type RunEndPayload struct {
	Outcome   string  `json:"outcome"`
	Score     int     `json:"score"`
	Level     int     `json:"level"`
	ElapsedMs float64 `json:"elapsedMs"`
}

// LevelUpPayload is emitted once per crossed level
type LevelUpPayload struct {
	Level   int    `json:"level"`
	Score   int    `json:"score"`
	Message string `json:"message"`
}

// SpawnPayload lists the enemy kinds created by one spawn decision
type SpawnPayload struct {
	Kinds []string `json:"kinds"`
	Speed float64  `json:"speed"`
}

// TrimPayload reports entities discarded by capacity enforcement
type TrimPayload struct {
	Pool     string `json:"pool"`
	Capacity int    `json:"capacity"`
	Dropped  int    `json:"dropped"`
}

// LifeLostPayload reports the remaining lives after a hit
type LifeLostPayload struct {
	Remaining int `json:"remaining"`
}

// AssetPayload reports the terminal status of one asset
type AssetPayload struct {
	AssetID string `json:"assetId"`
	Error   string `json:"error,omitempty"`
}

// EncodePayload marshals a payload to JSON bytes
func EncodePayload(payload interface{}) []byte {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	return data
}

// NewEvent creates a new event with the current timestamp
func NewEvent(eventType EventType, frame uint64, source string, payload interface{}) Event {
	return Event{
		Version:   EventVersion,
		Type:      eventType,
		Timestamp: time.Now().UnixNano(),
		Frame:     frame,
		Source:    source,
		Payload:   EncodePayload(payload),
	}
}
