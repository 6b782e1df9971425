package optimizer

import (
	"fmt"
	"strconv"
	"strings"
)

// SolutionType selects the optimisation goal the server runs.
type SolutionType int

const (
	// Cruise holds lift at the cruise coefficient and minimises drag.
	Cruise SolutionType = 1
	// OptimalClimb maximises the lift-to-drag ratio.
	OptimalClimb SolutionType = 2
	// MaxClimb maximises lift below a ceiling.
	MaxClimb SolutionType = 3
)

var solutionNames = map[SolutionType]string{
	Cruise:       "cruise",
	OptimalClimb: "optimal-climb",
	MaxClimb:     "max-climb",
}

// SolutionTypes lists every type the server accepts, in menu order.
func SolutionTypes() []SolutionType {
	return []SolutionType{Cruise, OptimalClimb, MaxClimb}
}

func (t SolutionType) String() string {
	if name, ok := solutionNames[t]; ok {
		return name
	}
	return "solution-" + strconv.Itoa(int(t))
}

// Valid reports whether the server knows this solution type.
func (t SolutionType) Valid() bool {
	_, ok := solutionNames[t]
	return ok
}

// ParseSolutionType accepts either the numeric code or the name.
func ParseSolutionType(s string) (SolutionType, error) {
	trimmed := strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.Atoi(trimmed); err == nil {
		t := SolutionType(n)
		if !t.Valid() {
			return 0, fmt.Errorf("unknown solution type %d", n)
		}
		return t, nil
	}
	trimmed = strings.ReplaceAll(trimmed, "_", "-")
	for t, name := range solutionNames {
		if name == trimmed {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown solution type %q", s)
}

// JobRequest is the payload posted to /run.
type JobRequest struct {
	SolutionType SolutionType `json:"solution_type"`
	Velocity     int          `json:"velocity"`
}

// Validate rejects requests the server would refuse.
func (r JobRequest) Validate() error {
	if !r.SolutionType.Valid() {
		return fmt.Errorf("unknown solution type %d", int(r.SolutionType))
	}
	if r.Velocity <= 0 {
		return fmt.Errorf("velocity must be positive, got %d", r.Velocity)
	}
	return nil
}

// DataPoint is one generation's best fitness.
type DataPoint struct {
	Index float64
	Value float64
}

// Result is the best airfoil reported when the job completes.
type Result struct {
	AngleOfAttack float64
	Velocity      *float64
	D2Yl          *float64
	YTE           *float64
	ATE           *float64
}

// Clone returns a deep copy so callers can hand results across goroutines.
func (r Result) Clone() Result {
	dup := r
	dup.Velocity = cloneFloat(r.Velocity)
	dup.D2Yl = cloneFloat(r.D2Yl)
	dup.YTE = cloneFloat(r.YTE)
	dup.ATE = cloneFloat(r.ATE)
	return dup
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	f := *v
	return &f
}
