package server

import (
	"net/http"
	"time"

	"github.com/flowtoy/flowtoy/internal/scheduler"
)

type stepEvent struct {
	Event string              `json:"event"`
	Step  string              `json:"step"`
	State scheduler.StepState `json:"state"`
}

// handleStream upgrades to a websocket connection and pushes one stepEvent
// per step-state transition observed since the last poll, until the run
// finishes or the client disconnects. Grounded on the teacher's
// streamWorkflow handler, adapted from its progress-channel replay to a
// poll loop since this scheduler exposes state via Snapshot rather than an
// event channel.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error().Err(err).Msg("status stream: websocket upgrade failed")
		return
	}
	defer conn.Close()

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	last := map[string]scheduler.StepState{}
	for range ticker.C {
		sched := s.scheduler()
		if sched == nil {
			continue
		}
		_, run := sched.Snapshot()

		done := true
		for name, st := range run.Steps {
			if prev, ok := last[name]; !ok || prev != st.State {
				last[name] = st.State
				if err := conn.WriteJSON(stepEvent{Event: "step_state", Step: name, State: st.State}); err != nil {
					return
				}
			}
			if st.State == scheduler.StatePending || st.State == scheduler.StateRunning {
				done = false
			}
		}
		if done && len(run.Steps) > 0 {
			_ = conn.WriteJSON(stepEvent{Event: "run_complete"})
			return
		}
	}
}
