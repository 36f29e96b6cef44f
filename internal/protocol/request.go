// Package protocol implements the session wire format: one JSON object per
// line in each direction.
package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/mcoot/creditshop/internal/model"
)

// Action names accepted on the wire
const (
	ActionLogin     = "login"
	ActionLogout    = "logout"
	ActionBuy       = "buy"
	ActionSell      = "sell"
	ActionBalance   = "balance"
	ActionListItems = "list_items"
	ActionQuit      = "quit"
)

// Request is a decoded client frame
type Request struct {
	Action   string `json:"action"`
	Nickname string `json:"nickname,omitempty"`
	ItemKey  string `json:"item_key,omitempty"`
	// Item is an alias for ItemKey accepted from older clients
	Item string `json:"item,omitempty"`
}

// Target returns the item the request refers to, preferring item_key
func (r Request) Target() string {
	if r.ItemKey != "" {
		return r.ItemKey
	}
	return r.Item
}

// DecodeRequest parses one frame. Unknown fields are ignored; anything that
// is not a JSON object with a string action is malformed.
func DecodeRequest(frame []byte) (Request, error) {
	var req Request
	frame = bytes.TrimSpace(frame)
	if len(frame) == 0 || frame[0] != '{' {
		return req, fmt.Errorf("%w: expected a JSON object", model.ErrMalformedRequest)
	}
	if err := json.Unmarshal(frame, &req); err != nil {
		return Request{}, fmt.Errorf("%w: %w", model.ErrMalformedRequest, err)
	}
	if req.Action == "" {
		return Request{}, fmt.Errorf("%w: missing action", model.ErrMalformedRequest)
	}
	return req, nil
}
