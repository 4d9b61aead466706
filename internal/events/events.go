// Package events provides an event system for session, worker and probe notifications.
package events

import "time"

// EventType represents the type of event
type EventType string

const (
	// EventStateChange is emitted when a session moves between connection states
	EventStateChange EventType = "state_change"
	// EventConnectFailed is emitted when a connection attempt fails
	EventConnectFailed EventType = "connect_failed"
	// EventIOFailed is emitted when a send or receive fails on a live connection
	EventIOFailed EventType = "io_failed"
	// EventWorkerCompleted is emitted when a worker finishes all iterations
	EventWorkerCompleted EventType = "worker_completed"
	// EventProbeCompleted is emitted when a fragmentation probe finishes
	EventProbeCompleted EventType = "probe_completed"
)

// Event represents a lifecycle event of a worker or probe
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	WorkerID  int       `json:"worker_id"`
	Data      EventData `json:"data,omitempty"`
}

// EventData contains event-specific data
type EventData struct {
	State    string `json:"state,omitempty"`
	Attempt  int    `json:"attempt,omitempty"`
	Error    string `json:"error,omitempty"`
	GetCount uint64 `json:"get_count,omitempty"`
	SetCount uint64 `json:"set_count,omitempty"`
	Probe    string `json:"probe,omitempty"`
	Response string `json:"response,omitempty"`
}

// NewStateChangeEvent creates a new state change event
func NewStateChangeEvent(workerID int, state string) Event {
	return Event{
		Type:      EventStateChange,
		Timestamp: time.Now(),
		WorkerID:  workerID,
		Data: EventData{
			State: state,
		},
	}
}

// NewConnectFailedEvent creates a connect failure event
func NewConnectFailedEvent(workerID int, attempt int, err error) Event {
	return Event{
		Type:      EventConnectFailed,
		Timestamp: time.Now(),
		WorkerID:  workerID,
		Data: EventData{
			Attempt: attempt,
			Error:   errString(err),
		},
	}
}

// NewIOFailedEvent creates an I/O failure event
func NewIOFailedEvent(workerID int, err error) Event {
	return Event{
		Type:      EventIOFailed,
		Timestamp: time.Now(),
		WorkerID:  workerID,
		Data: EventData{
			Error: errString(err),
		},
	}
}

// NewWorkerCompletedEvent creates a worker completion event
func NewWorkerCompletedEvent(workerID int, gets, sets uint64) Event {
	return Event{
		Type:      EventWorkerCompleted,
		Timestamp: time.Now(),
		WorkerID:  workerID,
		Data: EventData{
			GetCount: gets,
			SetCount: sets,
		},
	}
}

// NewProbeCompletedEvent creates a probe completion event
func NewProbeCompletedEvent(probeID int, name, response string, err error) Event {
	return Event{
		Type:      EventProbeCompleted,
		Timestamp: time.Now(),
		WorkerID:  probeID,
		Data: EventData{
			Probe:    name,
			Response: response,
			Error:    errString(err),
		},
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
