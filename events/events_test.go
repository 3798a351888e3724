package events

import (
	"testing"

	"github.com/example/taskboard/domain/task"
)

func TestEncodeDecode_TaskSnapshot(t *testing.T) {
	in := task.Task{
		ID:     "task-1",
		Title:  "T1",
		Status: task.StatusPending,
	}

	data, err := Encode(TaskCreated, in)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	env, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if env.Event != TaskCreated {
		t.Errorf("env.Event = %q, want %q", env.Event, TaskCreated)
	}

	out, err := env.Task()
	if err != nil {
		t.Fatalf("Task() error = %v", err)
	}
	if out.ID != in.ID || out.Title != in.Title || out.Status != in.Status {
		t.Errorf("round-trip mismatch: got %+v, want %+v", out, in)
	}
}

func TestEncodeDecode_DeletedID(t *testing.T) {
	data, err := Encode(TaskDeleted, "task-9")
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	env, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	id, err := env.ID()
	if err != nil {
		t.Fatalf("ID() error = %v", err)
	}
	if id != "task-9" {
		t.Errorf("id = %q, want %q", id, "task-9")
	}
}

func TestDecode_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "not json", data: "not-json"},
		{name: "missing event name", data: `{"payload":{}}`},
		{name: "empty object", data: `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode([]byte(tt.data)); err == nil {
				t.Errorf("Decode(%q) expected error, got nil", tt.data)
			}
		})
	}
}

func TestEnvelope_MalformedPayloads(t *testing.T) {
	env := Envelope{Event: TaskCreated, Payload: []byte(`"just-a-string"`)}
	if _, err := env.Task(); err == nil {
		t.Error("Task() on string payload expected error, got nil")
	}

	env = Envelope{Event: TaskCreated, Payload: []byte(`{"title":"no id"}`)}
	if _, err := env.Task(); err != ErrInvalidTaskID {
		t.Errorf("Task() without id: err = %v, want ErrInvalidTaskID", err)
	}

	env = Envelope{Event: TaskDeleted}
	if _, err := env.ID(); err != ErrEmptyPayload {
		t.Errorf("ID() without payload: err = %v, want ErrEmptyPayload", err)
	}

	env = Envelope{Event: TaskDeleted, Payload: []byte(`""`)}
	if _, err := env.ID(); err != ErrInvalidTaskID {
		t.Errorf("ID() with empty id: err = %v, want ErrInvalidTaskID", err)
	}
}
