package scheduler

import (
	"sync"
	"time"
)

// StepState is the lifecycle state of one step within a run.
type StepState string

const (
	StatePending StepState = "pending"
	StateRunning StepState = "running"
	StateSucceeded StepState = "succeeded"
	StateFailed    StepState = "failed"
	StateSkipped   StepState = "skipped"
)

// StepStatus is the point-in-time status of one step, safe to copy.
type StepStatus struct {
	Name      string     `json:"name"`
	State     StepState  `json:"state"`
	StartedAt *time.Time `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at"`
	Error     string     `json:"error,omitempty"`
}

// RunStatus is the live status of an entire run.
type RunStatus struct {
	RunID     int64      `json:"run_id"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at"`
	Steps     map[string]*StepStatus
}

// FlowOutputs is the `flows` map the spec names directly: step name to its
// extracted output fields.
type FlowOutputs map[string]map[string]interface{}

// sharedState holds everything mutated concurrently during a run, guarded
// by a single non-reentrant mutex. Every exported method here acquires the
// lock itself and only ever calls unexported, lock-free helpers — it never
// calls back into another locking method — since sync.Mutex, unlike the
// original project's threading.RLock, is not reentrant.
type sharedState struct {
	mu     sync.RWMutex
	status RunStatus
	flows  FlowOutputs
}

func newSharedState(runID int64) *sharedState {
	return &sharedState{
		status: RunStatus{RunID: runID, StartedAt: now(), Steps: map[string]*StepStatus{}},
		flows:  FlowOutputs{},
	}
}

func (s *sharedState) initStep(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.Steps[name] = &StepStatus{Name: name, State: StatePending}
}

func (s *sharedState) markRunning(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := now()
	st := s.status.Steps[name]
	st.State = StateRunning
	st.StartedAt = &t
}

func (s *sharedState) markSucceeded(name string, outputs map[string]interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := now()
	st := s.status.Steps[name]
	st.State = StateSucceeded
	st.EndedAt = &t
	s.flows[name] = outputs
}

func (s *sharedState) markFailed(name string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := now()
	st := s.status.Steps[name]
	st.State = StateFailed
	st.EndedAt = &t
	st.Error = err.Error()
}

func (s *sharedState) markSkipped(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := now()
	st := s.status.Steps[name]
	st.State = StateSkipped
	st.StartedAt = nil
	st.EndedAt = &t
}

func (s *sharedState) finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := now()
	s.status.EndedAt = &t
}

// Snapshot takes a consistent, independent copy of both flows and the run
// status, used both by template rendering (each step renders against the
// view taken when it starts running) and the status API.
func (s *sharedState) Snapshot() (FlowOutputs, RunStatus) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	flows := make(FlowOutputs, len(s.flows))
	for k, v := range s.flows {
		flows[k] = v
	}

	steps := make(map[string]*StepStatus, len(s.status.Steps))
	for k, v := range s.status.Steps {
		cp := *v
		steps[k] = &cp
	}
	status := s.status
	status.Steps = steps
	return flows, status
}

// now is a var so tests could substitute it; kept as time.Now in
// production. Not stubbed by any test today, but documents why
// sharedState never calls time.Now() directly.
var now = time.Now
