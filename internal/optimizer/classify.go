package optimizer

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// CompletionStatus is the status value the server sends once the job is done.
const CompletionStatus = "Complete."

// ResponseKind discriminates PollResponse.
type ResponseKind int

const (
	// KindPending means the job is running and reported nothing new.
	KindPending ResponseKind = iota
	// KindProgress carries the cumulative fitness series.
	KindProgress
	// KindComplete carries the final result.
	KindComplete
)

func (k ResponseKind) String() string {
	switch k {
	case KindPending:
		return "pending"
	case KindProgress:
		return "progress"
	case KindComplete:
		return "complete"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// PollResponse is the decoded form of one /get_status body. Series is set only
// for KindProgress, Result only for KindComplete.
type PollResponse struct {
	Kind   ResponseKind
	Series []DataPoint
	Result *Result
}

// Reason identifies why a body could not be classified.
type Reason int

const (
	// MalformedBody means the body is not a JSON object.
	MalformedBody Reason = iota + 1
	// MissingField means a completion body lacks the result payload.
	MissingField
	// InvalidSeries means fitness_tracker holds something other than pairs.
	InvalidSeries
)

func (r Reason) String() string {
	switch r {
	case MalformedBody:
		return "malformed body"
	case MissingField:
		return "missing field"
	case InvalidSeries:
		return "invalid series"
	default:
		return fmt.Sprintf("reason(%d)", int(r))
	}
}

// ClassificationError reports a status body with an unexpected shape.
type ClassificationError struct {
	Reason Reason
	Field  string
	Err    error
}

func (e *ClassificationError) Error() string {
	msg := "classify status: " + e.Reason.String()
	if e.Field != "" {
		msg += " " + e.Field
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ClassificationError) Unwrap() error { return e.Err }

// Top-level and Airfoil keys. Lookups are exact; encoding/json struct tags
// would also accept "STATUS" or "aoa".
const (
	keyStatus         = "status"
	keyAirfoil        = "Airfoil"
	keyFitnessTracker = "fitness_tracker"
	keyAOA            = "AOA"
)

// Classify decodes a /get_status body. Completion takes precedence over
// progress when a body carries both, and fields the completion branch does
// not read are never decoded.
func Classify(raw string) (PollResponse, error) {
	trimmed := bytes.TrimSpace([]byte(raw))
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return PollResponse{}, &ClassificationError{Reason: MalformedBody, Err: fmt.Errorf("expected JSON object")}
	}

	var body map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &body); err != nil {
		return PollResponse{}, &ClassificationError{Reason: MalformedBody, Err: err}
	}

	if isComplete(body[keyStatus]) {
		result, err := decodeResult(body[keyAirfoil])
		if err != nil {
			return PollResponse{}, err
		}
		return PollResponse{Kind: KindComplete, Result: &result}, nil
	}

	var entries []json.RawMessage
	if tracker, ok := body[keyFitnessTracker]; ok {
		if err := json.Unmarshal(tracker, &entries); err != nil {
			return PollResponse{}, &ClassificationError{Reason: InvalidSeries, Field: keyFitnessTracker, Err: err}
		}
	}
	series, err := decodeSeries(entries)
	if err != nil {
		return PollResponse{}, err
	}
	if len(series) > 0 {
		return PollResponse{Kind: KindProgress, Series: series}, nil
	}
	return PollResponse{Kind: KindPending}, nil
}

// isComplete reports whether status is the completion string. Any other
// value, including a non-string, leaves the job running.
func isComplete(status json.RawMessage) bool {
	if status == nil {
		return false
	}
	var s string
	if err := json.Unmarshal(status, &s); err != nil {
		return false
	}
	return s == CompletionStatus
}

// decodeResult reads the Airfoil object of a completion body. AOA is
// required; an optional parameter that is absent or not a number stays nil.
func decodeResult(raw json.RawMessage) (Result, error) {
	var airfoil map[string]json.RawMessage
	if raw == nil {
		return Result{}, &ClassificationError{Reason: MissingField, Field: keyAirfoil}
	}
	if err := json.Unmarshal(raw, &airfoil); err != nil || airfoil == nil {
		return Result{}, &ClassificationError{Reason: MissingField, Field: keyAirfoil, Err: err}
	}

	aoa, ok := airfoil[keyAOA]
	if !ok {
		return Result{}, &ClassificationError{Reason: MissingField, Field: "Airfoil.AOA"}
	}
	var angle *float64
	if err := json.Unmarshal(aoa, &angle); err != nil || angle == nil {
		return Result{}, &ClassificationError{Reason: MissingField, Field: "Airfoil.AOA", Err: err}
	}

	return Result{
		AngleOfAttack: *angle,
		Velocity:      optionalNumber(airfoil, "Velocity"),
		D2Yl:          optionalNumber(airfoil, "d2Yl"),
		YTE:           optionalNumber(airfoil, "y_TE"),
		ATE:           optionalNumber(airfoil, "a_TE"),
	}, nil
}

func optionalNumber(fields map[string]json.RawMessage, key string) *float64 {
	raw, ok := fields[key]
	if !ok {
		return nil
	}
	var v *float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return v
}

// decodeSeries turns [[index, value], ...] into points. The server seeds the
// tracker with an empty entry before the first generation; those are dropped.
func decodeSeries(entries []json.RawMessage) ([]DataPoint, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	points := make([]DataPoint, 0, len(entries))
	for i, entry := range entries {
		var pair []float64
		if err := json.Unmarshal(entry, &pair); err != nil {
			return nil, &ClassificationError{
				Reason: InvalidSeries,
				Field:  fmt.Sprintf("fitness_tracker[%d]", i),
				Err:    err,
			}
		}
		switch len(pair) {
		case 0:
			continue
		case 2:
			points = append(points, DataPoint{Index: pair[0], Value: pair[1]})
		default:
			return nil, &ClassificationError{
				Reason: InvalidSeries,
				Field:  fmt.Sprintf("fitness_tracker[%d]", i),
				Err:    fmt.Errorf("expected [index, value], got %d elements", len(pair)),
			}
		}
	}
	if len(points) == 0 {
		return nil, nil
	}
	return points, nil
}
