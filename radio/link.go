package radio

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"loragw/models"
)

var ErrLinkClosed = errors.New("radio link closed")

// FrameHandler receives every decoded inbound frame. It is called from the
// link's own goroutine.
type FrameHandler func(models.Frame)

// Link is the outbound half of a radio transport.
type Link interface {
	Send(deviceID int, kind models.CommandKind, value int) error
	Close() error
}

// DecodeFrame parses one newline-delimited JSON frame.
func DecodeFrame(line []byte) (models.Frame, error) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return nil, fmt.Errorf("empty frame")
	}
	var frame models.Frame
	if err := json.Unmarshal(line, &frame); err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	if frame == nil {
		return nil, fmt.Errorf("decode frame: not an object")
	}
	return frame, nil
}

// EncodeCommand renders a command as one newline-terminated JSON line.
func EncodeCommand(deviceID int, kind models.CommandKind, value int) ([]byte, error) {
	data, err := json.Marshal(models.RadioCommand{DeviceID: deviceID, Cmd: kind, Value: value})
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
