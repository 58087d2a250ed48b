// Package protocol defines the WebSocket messages exchanged between a
// reading page (which hosts the gaze oracle and renders text) and focusd.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"
)

// MessageType identifies the type of WebSocket message
type MessageType string

const (
	// Page → server
	TypeGaze              MessageType = "gaze"               // Raw oracle sample
	TypeRegions           MessageType = "regions"            // Focus region scan result
	TypeLayout            MessageType = "layout"             // Scroll or resize
	TypeFragments         MessageType = "fragments"          // Positioned text fragments
	TypeDocument          MessageType = "document"           // Text for paced reading
	TypeCalibrate         MessageType = "calibrate"          // Start calibration
	TypeConfirm           MessageType = "confirm"            // Looked at the target
	TypeCancelCalibration MessageType = "cancel_calibration" // Abandon calibration
	TypeStart             MessageType = "start"              // Begin tracking
	TypeStop              MessageType = "stop"               // End tracking
	TypeJump              MessageType = "jump"               // Word clicked
	TypeKey               MessageType = "key"                // Navigation key
	TypeSettings          MessageType = "settings"           // Reader settings
	TypeOracle            MessageType = "oracle"             // Oracle start result

	// Server → page
	TypeFocus        MessageType = "focus"         // Region dimming batch
	TypeOpacity      MessageType = "opacity"       // Fragment opacity batch
	TypeOpacityReset MessageType = "opacity_reset" // All fragments back to full
	TypeCursor       MessageType = "cursor"        // Smoothed gaze point
	TypeReading      MessageType = "reading"       // Reading page and cursor
	TypeTarget       MessageType = "target"        // Calibration target
	TypeTrain        MessageType = "train"         // Training point for the oracle
	TypeCalibrated   MessageType = "calibrated"    // Calibration state changed
	TypeLooking      MessageType = "looking"       // Reader looked away or back
	TypeBegin        MessageType = "begin"         // Start the oracle
	TypePause        MessageType = "pause"         // Pause the oracle
	TypeError        MessageType = "error"         // Command failed
	TypeSession      MessageType = "session"       // Session id and settings, on connect
	TypeStatus       MessageType = "status"        // Tracker status, to status viewers

	// Bidirectional
	TypePing MessageType = "ping" // Health check
	TypePong MessageType = "pong" // Health check response
)

// Message is the base wrapper for all WebSocket messages
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp int64           `json:"ts,omitempty"` // Unix milliseconds
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(msgType MessageType, data interface{}) (*Message, error) {
	var rawData json.RawMessage
	if data != nil {
		var err error
		rawData, err = json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal message data: %w", err)
		}
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now().UnixMilli(),
		Data:      rawData,
	}, nil
}

// ParseData unmarshals the message data into the provided struct
func (m *Message) ParseData(v interface{}) error {
	if m.Data == nil {
		return nil
	}
	return json.Unmarshal(m.Data, v)
}

// Bytes returns the JSON-encoded message
func (m *Message) Bytes() ([]byte, error) {
	return json.Marshal(m)
}

// ParseMessage parses a JSON message from bytes
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	if msg.Type == "" {
		return nil, fmt.Errorf("failed to parse message: missing type")
	}
	return &msg, nil
}

// =============================================================================
// Page → Server Message Types
// =============================================================================

// GazeData is one raw oracle sample in viewport pixels. The oracle sends
// null coordinates when it has no face in view.
type GazeData struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
	T int64    `json:"t,omitempty"` // Oracle timestamp, Unix milliseconds
}

// Valid reports whether both coordinates are present.
func (g *GazeData) Valid() bool {
	return g.X != nil && g.Y != nil
}

// RegionData is a focus region candidate, in viewport pixels
type RegionData struct {
	ID         string  `json:"id"`
	Left       float64 `json:"left"`
	Top        float64 `json:"top"`
	Right      float64 `json:"right"`
	Bottom     float64 `json:"bottom"`
	TextLength int     `json:"textLength"`
	Detached   bool    `json:"detached,omitempty"`
}

// RegionsData is the result of a region scan
type RegionsData struct {
	Regions []RegionData `json:"regions"`
}

// LayoutData reports the viewport after a scroll or resize
type LayoutData struct {
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	ScrollY float64 `json:"scrollY"`
}

// FragmentData is a positioned piece of text, in viewport pixels
type FragmentData struct {
	ID     string  `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// FragmentsData replaces the fragments of the current page
type FragmentsData struct {
	Fragments []FragmentData `json:"fragments"`
}

// DocumentData is the text for paced reading. Lines wins over Text;
// Text is split on newlines.
type DocumentData struct {
	ID    string   `json:"id"`
	Lines []string `json:"lines,omitempty"`
	Text  string   `json:"text,omitempty"`
}

// JumpData selects a word on the reading page
type JumpData struct {
	Word int `json:"word"`
}

// KeyData is a navigation key, by command or browser key name
type KeyData struct {
	Key string `json:"key"`
}

// OracleData reports whether the oracle started after a begin request
type OracleData struct {
	Ready bool   `json:"ready"`
	Error string `json:"error,omitempty"`
}

// =============================================================================
// Server → Page Message Types
// =============================================================================

// VisualData is the dimming state of one region
type VisualData struct {
	ID     string `json:"id"`
	Dimmed bool   `json:"dimmed"`
}

// FocusData is a batch of region dimming updates
type FocusData struct {
	Regions    []VisualData `json:"regions"`
	BlurAmount float64      `json:"blurAmount"`
}

// WeightData is the opacity of one fragment
type WeightData struct {
	ID      string  `json:"id"`
	Opacity float64 `json:"o"`
}

// OpacityData is a batch of fragment opacities
type OpacityData struct {
	Weights []WeightData `json:"weights"`
}

// PointData is a screen position
type PointData struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// TargetData is a calibration target to display
type TargetData struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Index int     `json:"index"`
	Count int     `json:"count"` // Confirmations so far at this target
	Total int     `json:"total"` // Confirmations needed per target
}

// CalibratedData reports the calibration state
type CalibratedData struct {
	Calibrated bool `json:"calibrated"`
}

// LookingData reports whether gaze samples are arriving
type LookingData struct {
	Looking bool `json:"looking"`
}

// ErrorData describes a failed command
type ErrorData struct {
	Command MessageType `json:"command,omitempty"`
	Message string      `json:"message"`
}

// =============================================================================
// Bidirectional Message Types
// =============================================================================

// PingData contains ping information
type PingData struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"ts"`
}

// PongData contains pong response
type PongData struct {
	ID        string `json:"id"`
	PingTS    int64  `json:"ping_ts"`
	PongTS    int64  `json:"pong_ts"`
	LatencyMs int64  `json:"latency_ms"`
}
