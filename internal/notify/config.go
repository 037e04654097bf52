// Package notify relays ingested messages to a Telegram chat.
//
// It contains the provider client (credential liveness check and message
// send), the notification config codec stored on topics, and the Dispatcher
// that performs sends in the background so ingestion never waits on the
// provider.
package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Config is a topic's notification target: a bot credential and the chat to
// post into. It is stored on the topic as an opaque JSON document and only
// decoded when a message needs to be relayed.
type Config struct {
	Credential  string `json:"credential" example:"123456:ABC-DEF"`
	Destination string `json:"destination" example:"-1001234567890"`
}

// Validate reports ErrInvalidConfig when either field is blank.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Credential) == "" {
		return fmt.Errorf("%w: credential is required", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.Destination) == "" {
		return fmt.Errorf("%w: destination is required", ErrInvalidConfig)
	}
	return nil
}

// Encode serializes the config for storage.
func (c Config) Encode() ([]byte, error) {
	return json.Marshal(c)
}

// DecodeConfig parses a stored config. Unknown fields are rejected so a
// document written in some other shape is not mistaken for a usable target.
func DecodeConfig(raw []byte) (Config, error) {
	var c Config
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return c, fmt.Errorf("%w: empty document", ErrInvalidConfig)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&c); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}
