package protocol

import "time"

// =============================================================================
// Helper functions for creating messages
// =============================================================================

// NewGazeMessage creates a gaze sample message
func NewGazeMessage(x, y float64, ts time.Time) (*Message, error) {
	return NewMessage(TypeGaze, GazeData{X: &x, Y: &y, T: ts.UnixMilli()})
}

// NewLayoutMessage creates a layout message
func NewLayoutMessage(width, height, scrollY float64) (*Message, error) {
	return NewMessage(TypeLayout, LayoutData{Width: width, Height: height, ScrollY: scrollY})
}

// NewDocumentMessage creates a document message
func NewDocumentMessage(id string, lines []string) (*Message, error) {
	return NewMessage(TypeDocument, DocumentData{ID: id, Lines: lines})
}

// NewOracleMessage creates an oracle start result message
func NewOracleMessage(ready bool, errMsg string) (*Message, error) {
	return NewMessage(TypeOracle, OracleData{Ready: ready, Error: errMsg})
}

// NewErrorMessage creates an error message for a failed command
func NewErrorMessage(command MessageType, err error) (*Message, error) {
	return NewMessage(TypeError, ErrorData{Command: command, Message: err.Error()})
}

// NewPingMessage creates a ping message
func NewPingMessage(id string) (*Message, error) {
	return NewMessage(TypePing, PingData{
		ID:        id,
		Timestamp: time.Now().UnixMilli(),
	})
}

// NewPongMessage creates a pong response message
func NewPongMessage(id string, pingTS, pongTS int64) (*Message, error) {
	return NewMessage(TypePong, PongData{
		ID:        id,
		PingTS:    pingTS,
		PongTS:    pongTS,
		LatencyMs: pongTS - pingTS,
	})
}

// =============================================================================
// Helper functions for parsing messages
// =============================================================================

// GetGazeData extracts a gaze sample from a message
func (m *Message) GetGazeData() (*GazeData, error) {
	var data GazeData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetRegionsData extracts a region scan from a message
func (m *Message) GetRegionsData() (*RegionsData, error) {
	var data RegionsData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetLayoutData extracts layout data from a message
func (m *Message) GetLayoutData() (*LayoutData, error) {
	var data LayoutData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetFragmentsData extracts fragments from a message
func (m *Message) GetFragmentsData() (*FragmentsData, error) {
	var data FragmentsData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetDocumentData extracts a document from a message
func (m *Message) GetDocumentData() (*DocumentData, error) {
	var data DocumentData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetJumpData extracts a word jump from a message
func (m *Message) GetJumpData() (*JumpData, error) {
	var data JumpData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetKeyData extracts a navigation key from a message
func (m *Message) GetKeyData() (*KeyData, error) {
	var data KeyData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetOracleData extracts an oracle start result from a message
func (m *Message) GetOracleData() (*OracleData, error) {
	var data OracleData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPingData extracts ping data from a message
func (m *Message) GetPingData() (*PingData, error) {
	var data PingData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPongData extracts pong data from a message
func (m *Message) GetPongData() (*PongData, error) {
	var data PongData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}
