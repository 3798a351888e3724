// Package events defines the wire protocol of the realtime channel.
// Frames are JSON envelopes; the broadcaster relays payloads verbatim and
// payload decoding happens at the point of application.
package events

import (
	"encoding/json"
	"errors"

	"github.com/example/taskboard/domain/task"
)

// Event names carried by the realtime channel.
const (
	TaskCreated      = "task-created"
	TaskUpdated      = "task-updated"
	TaskDeleted      = "task-deleted"
	PresenceAnnounce = "presence-announce"
	PresenceSnapshot = "presence-snapshot"
	Error            = "error"
)

// Decode errors.
var (
	ErrMissingEvent  = errors.New("missing event name")
	ErrEmptyPayload  = errors.New("empty payload")
	ErrInvalidTaskID = errors.New("invalid task id payload")
)

// Envelope is the frame exchanged over the realtime channel.
type Envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Snapshot is the payload of a presence-snapshot frame.
type Snapshot struct {
	Users []string `json:"users"`
}

// Encode builds a wire frame for the given event and payload.
func Encode(event string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Payload: data})
}

// Decode parses a wire frame. Only the envelope is validated; the payload
// stays opaque until a typed accessor is called.
func Decode(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, err
	}
	if env.Event == "" {
		return Envelope{}, ErrMissingEvent
	}
	return env, nil
}

// Task decodes a task snapshot payload (task-created, task-updated).
func (e Envelope) Task() (task.Task, error) {
	if len(e.Payload) == 0 {
		return task.Task{}, ErrEmptyPayload
	}
	var t task.Task
	if err := json.Unmarshal(e.Payload, &t); err != nil {
		return task.Task{}, err
	}
	if t.ID == "" {
		return task.Task{}, ErrInvalidTaskID
	}
	return t, nil
}

// ID decodes a bare id payload (task-deleted, presence-announce).
func (e Envelope) ID() (string, error) {
	if len(e.Payload) == 0 {
		return "", ErrEmptyPayload
	}
	var id string
	if err := json.Unmarshal(e.Payload, &id); err != nil {
		return "", err
	}
	if id == "" {
		return "", ErrInvalidTaskID
	}
	return id, nil
}

// Users decodes a presence-snapshot payload.
func (e Envelope) Users() ([]string, error) {
	if len(e.Payload) == 0 {
		return nil, ErrEmptyPayload
	}
	var snap Snapshot
	if err := json.Unmarshal(e.Payload, &snap); err != nil {
		return nil, err
	}
	return snap.Users, nil
}
