package server

import (
	"encoding/json"
	"fmt"
)

// InputMessage is the arrow-key state a client sends to steer the human
// controlled vehicle.
type InputMessage struct {
	Up    bool `json:"up"`
	Down  bool `json:"down"`
	Left  bool `json:"left"`
	Right bool `json:"right"`
}

func (h *Hub) handleInput(p []byte) error {
	if h.keys == nil {
		return nil
	}
	var msg InputMessage
	if err := json.Unmarshal(p, &msg); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}
	h.keys.Set(msg.Up, msg.Down, msg.Left, msg.Right)
	return nil
}
