package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/flowtoy/flowtoy/internal/scheduler"
)

type stepInfo struct {
	State     scheduler.StepState `json:"state"`
	StartedAt *time.Time          `json:"started_at"`
	EndedAt   *time.Time          `json:"ended_at"`
	Notes     []string            `json:"notes"`
	Outputs   []string            `json:"outputs"`
}

type statusResponse struct {
	Status         string              `json:"status,omitempty"`
	RunID          int64               `json:"run_id,omitempty"`
	StartedAt      *time.Time          `json:"started_at,omitempty"`
	EndedAt        *time.Time          `json:"ended_at,omitempty"`
	TotalSteps     int                 `json:"total_steps"`
	CompletedSteps int                 `json:"completed_steps"`
	CurrentStep    *string             `json:"current_step"`
	Steps          map[string]stepInfo `json:"steps"`
}

// handleStatus mirrors create_app_for_runner's GET /status handler
// exactly: {"status": "no-runner"} when no scheduler is attached, otherwise the
// full per-step breakdown with the first running step named as current.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	sched := s.scheduler()
	if sched == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "no-runner"})
		return
	}

	flows, run := sched.Snapshot()

	steps := make(map[string]stepInfo, len(run.Steps))
	var current *string
	completed := 0
	for name, st := range run.Steps {
		notes := []string{}
		if st.Error != "" {
			notes = []string{st.Error}
		}
		var outputs []string
		if out, ok := flows[name]; ok {
			outputs = make([]string, 0, len(out))
			for k := range out {
				outputs = append(outputs, k)
			}
		} else {
			outputs = []string{}
		}
		steps[name] = stepInfo{
			State:     st.State,
			StartedAt: st.StartedAt,
			EndedAt:   st.EndedAt,
			Notes:     notes,
			Outputs:   outputs,
		}
		if st.State == scheduler.StateRunning && current == nil {
			n := name
			current = &n
		}
		if st.State == scheduler.StateSucceeded || st.State == scheduler.StateFailed {
			completed++
		}
	}

	resp := statusResponse{
		RunID:          run.RunID,
		StartedAt:      &run.StartedAt,
		EndedAt:        run.EndedAt,
		TotalSteps:     len(steps),
		CompletedSteps: completed,
		CurrentStep:    current,
		Steps:          steps,
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleOutputs mirrors GET /outputs: a shallow copy of the run's `flows`
// map, or {} when no scheduler is attached.
func (s *Server) handleOutputs(w http.ResponseWriter, r *http.Request) {
	sched := s.scheduler()
	if sched == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{})
		return
	}
	flows, _ := sched.Snapshot()
	writeJSON(w, http.StatusOK, flows)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Encoding failures here mean the response is already partially
		// written; nothing left to do but log the impossible-to-surface error.
		_ = err
	}
}
