package attendance

import (
	"encoding/json"
	"fmt"
	"time"
)

// Status is the terminal state of one capture event.
type Status string

const (
	StatusUnmatched     Status = "unmatched"
	StatusAlreadyMarked Status = "already_marked"
	StatusMarked        Status = "marked"
	// StatusNoUsableFace is only produced by the image pipeline when no
	// detected face yielded an embedding.
	StatusNoUsableFace Status = "no_usable_face"
)

// Outcome is what a capture event resolved to. ID, Name and Confidence are
// set for already_marked and marked; Timestamp only for marked.
type Outcome struct {
	Status     Status    `json:"status"`
	ID         string    `json:"id,omitempty"`
	Name       string    `json:"name,omitempty"`
	Confidence float64   `json:"confidence,omitempty"`
	Timestamp  time.Time `json:"timestamp,omitzero"`
}

// Matched reports whether the capture was attributed to an identity.
func (o Outcome) Matched() bool {
	return o.Status == StatusMarked || o.Status == StatusAlreadyMarked
}

// MarshalJSON always includes the confidence of a matched outcome, even
// when it is zero, and omits it otherwise.
func (o Outcome) MarshalJSON() ([]byte, error) {
	type plain Outcome
	out := struct {
		plain
		Confidence *float64 `json:"confidence,omitempty"`
	}{plain: plain(o)}
	if o.Matched() {
		c := o.Confidence
		out.Confidence = &c
	}
	return json.Marshal(out)
}

func (o Outcome) String() string {
	switch o.Status {
	case StatusMarked:
		return fmt.Sprintf("marked %s (%s) at %s, confidence %.3f", o.Name, o.ID, o.Timestamp.Format(time.DateTime), o.Confidence)
	case StatusAlreadyMarked:
		return fmt.Sprintf("%s (%s) already marked today, confidence %.3f", o.Name, o.ID, o.Confidence)
	case StatusNoUsableFace:
		return "no usable face"
	default:
		return "unmatched"
	}
}
