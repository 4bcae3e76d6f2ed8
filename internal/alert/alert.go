// Package alert holds the alert model, the cooldown based deduplicator,
// and the channel fan-out dispatcher.
package alert

import (
	"time"

	"github.com/google/uuid"
)

// Severity is the class of an alert.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityWarning  Severity = "WARNING"
)

// Candidate is a potential alert derived from one snapshot violating one
// threshold. Zero or more candidates come out of a single snapshot.
type Candidate struct {
	Type      Severity               `json:"type"`
	Message   string                 `json:"message"`
	Metric    string                 `json:"metric,omitempty"`
	Value     interface{}            `json:"value,omitempty"`
	Threshold interface{}            `json:"threshold,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// Key is the deduplication key of the candidate.
// Candidates without a metric share the "general" bucket.
func (c Candidate) Key() string {
	metric := c.Metric
	if metric == "" {
		metric = "general"
	}
	return string(c.Type) + ":" + metric
}

// Dispatched is a candidate that passed deduplication and was sent.
// It is append-only history; never updated after creation.
type Dispatched struct {
	Candidate

	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	Environment string    `json:"environment"`
}

// NewDispatched stamps a candidate for delivery.
func NewDispatched(c Candidate, environment string, now time.Time) Dispatched {
	return Dispatched{
		Candidate:   c,
		ID:          uuid.NewString(),
		Timestamp:   now,
		Environment: environment,
	}
}
