package event

import "time"

// Context identifies the kernel component and operation an event was
// emitted from.
type Context struct {
	KernelID  string `json:"kernelID"`
	Pid       int    `json:"pid,omitempty"`
	EventType string `json:"eventType"`
	Component string `json:"component"` // scheduler, bcache, …
	Tick      int64  `json:"tick,omitempty"`
}

type Event[T any] struct {
	Context   *Context               `json:"context"`
	CreatedAt time.Time              `json:"createdAt"`
	Metadata  map[string]interface{} `json:"metadata"`
	Data      T                      `json:"data"`
}

func NewEvent[T any](context *Context, data T) *Event[T] {
	return &Event[T]{
		Context:   context,
		CreatedAt: time.Now(),
		Metadata:  make(map[string]interface{}),
		Data:      data,
	}
}

// ProcessTransition is published by the scheduler whenever a process
// changes lifecycle state.
type ProcessTransition struct {
	Pid   int    `json:"pid"`
	From  string `json:"from"`
	To    string `json:"to"`
	Level int    `json:"level"`
}

// BufferEvicted is published by the buffer cache when a slot is
// repurposed for a new block.
type BufferEvicted struct {
	Device  int `json:"device"`
	Blockno int `json:"blockno"`
}

// SyncTriggered is published by the buffer cache when dirty occupancy
// reaches the high-water mark and the flush-everything collaborator runs.
type SyncTriggered struct {
	Dirty int `json:"dirty"`
}
