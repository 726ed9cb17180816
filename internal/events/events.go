package events

import (
	"encoding/json"
	"time"
)

// Event types pushed to dashboard subscribers.
const (
	TypeRunStarted  = "run_started"
	TypeRunFinished = "run_finished"
	TypeHello       = "hello"
)

type Event struct {
	Type      string          `json:"type"`
	Version   int             `json:"v"`
	At        time.Time       `json:"at"`
	RequestID string          `json:"request_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// RunStarted is the payload of a run_started event.
type RunStarted struct {
	RunID   string `json:"run_id"`
	Trigger string `json:"trigger"`
}

// RunFinished is the payload of a run_finished event.
type RunFinished struct {
	RunID       string `json:"run_id"`
	Unique      int    `json:"unique"`
	Fetched     int    `json:"fetched"`
	NotifyError string `json:"notify_error,omitempty"`
	Canceled    bool   `json:"canceled,omitempty"`
}

// Publisher is the sending half of a Hub.
type Publisher interface {
	Publish(evt string)
}

func MakeEvent(reqID, typ string, v int, data any) string {
	var raw json.RawMessage
	if data != nil {
		b, _ := json.Marshal(data)
		raw = b
	}
	e := Event{
		Type:      typ,
		Version:   v,
		At:        time.Now().UTC(),
		RequestID: reqID,
		Data:      raw,
	}
	b, _ := json.Marshal(e)
	return string(b)
}
