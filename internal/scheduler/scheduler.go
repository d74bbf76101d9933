// Package scheduler is the concurrent DAG engine that runs a flow's steps:
// dependency inference (graph.go), the shared run-lock-guarded status
// (status.go), per-step payload/provider dispatch (dispatch.go), and the
// worker-pool execution loop below — a direct, idiomatic-Go translation of
// the original project's LocalRunner.run.
package scheduler

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/semaphore"

	"github.com/rs/zerolog"

	"github.com/flowtoy/flowtoy/internal/ast"
	"github.com/flowtoy/flowtoy/internal/provider"
	"github.com/flowtoy/flowtoy/internal/template"
)

// ErrAborted is returned by Run when the run's context was cancelled
// before every step completed, or a failed step had a direct dependent
// whose on_error policy was "fail".
var ErrAborted = fmt.Errorf("run aborted")

// Scheduler executes one flow's steps to completion (or abort) and
// exposes a live, thread-safe status snapshot while it runs.
type Scheduler struct {
	cfg      *ast.FlowConfig
	registry *provider.Registry
	engine   *template.Engine
	graph    *graph
	state    *sharedState
	log      zerolog.Logger
}

// New validates the flow's dependency graph and prepares a Scheduler. The
// graph is built (and validated) eagerly so a caller can report
// ConfigError/ErrCycleDetected before ever starting a run.
func New(cfg *ast.FlowConfig, registry *provider.Registry, runID int64, log zerolog.Logger) (*Scheduler, error) {
	g, err := buildGraph(cfg.Flow)
	if err != nil {
		return nil, err
	}

	state := newSharedState(runID)
	for name := range g.steps {
		state.initStep(name)
	}

	return &Scheduler{
		cfg:      cfg,
		registry: registry,
		engine:   template.NewEngine(),
		graph:    g,
		state:    state,
		log:      log,
	}, nil
}

// Snapshot returns a consistent, independent copy of the run's live
// outputs (`flows`) and status, safe to call concurrently with Run —
// this is what internal/server's /status and /outputs handlers poll.
func (s *Scheduler) Snapshot() (FlowOutputs, RunStatus) {
	return s.state.Snapshot()
}

type completion struct {
	name string
	err  error
}

// Run executes every step to completion, respecting dependencies, the
// bounded worker pool, and each step's on_error policy. It returns
// ErrAborted if a failed step has a direct dependent whose on_error
// policy is "fail" (the default), or if ctx was cancelled before the run
// finished; a failed step with no dependents does not abort the run.
// Pending, not-yet-started
// steps are simply left in state "pending" in that case — no partial
// output is synthesized for them, matching the original's abort
// behaviour of dropping the ready queue rather than unwinding anything.
func (s *Scheduler) Run(ctx context.Context) error {
	defer s.state.finish()

	maxWorkers := s.cfg.Runner.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = runtime.GOMAXPROCS(0) + 3
		if maxWorkers > 4 {
			maxWorkers = 4
		}
	}
	defaultOnError := s.cfg.Runner.OnError.Normalize(ast.OnErrorFail)

	sem := semaphore.NewWeighted(int64(maxWorkers))
	inDegree := make(map[string]int, len(s.graph.inDegree))
	for k, v := range s.graph.inDegree {
		inDegree[k] = v
	}

	completions := make(chan completion, len(s.graph.steps))
	active := 0

	submit := func(name string) {
		active++
		go func() {
			if err := sem.Acquire(ctx, 1); err != nil {
				completions <- completion{name: name, err: err}
				return
			}
			defer sem.Release(1)

			s.state.markRunning(name)
			flows, _ := s.state.Snapshot()

			outputs, err := dispatchStep(ctx, s.engine, s.registry, s.graph.steps[name], s.cfg.Sources, flows)
			if err != nil {
				s.log.Error().Str("step", name).Err(err).Msg("step failed")
				s.state.markFailed(name, err)
			} else {
				s.state.markSucceeded(name, outputs)
			}
			completions <- completion{name: name, err: err}
		}()
	}

	for _, name := range s.graph.order {
		if inDegree[name] == 0 {
			submit(name)
		}
	}

	aborted := false
	for active > 0 {
		c := <-completions
		active--

		if c.err != nil {
			for _, dep := range s.graph.dependents[c.name] {
				depPolicy := s.graph.steps[dep].OnError.Normalize(defaultOnError)
				switch depPolicy {
				case ast.OnErrorSkip:
					s.skipDescendants(dep, inDegree)
				case ast.OnErrorContinue:
					// fall through to the normal in-degree decrement below;
					// dep will run once its remaining deps finish, and will
					// fail its own template render if it references this
					// step's (now-missing) outputs — that is the intended
					// "continue" behaviour, not a synthesized placeholder.
				default:
					aborted = true
				}
			}
		}
		if ctx.Err() != nil {
			aborted = true
		}

		for _, dep := range s.graph.dependents[c.name] {
			if inDegree[dep] > 0 {
				inDegree[dep]--
				if inDegree[dep] == 0 && !aborted {
					submit(dep)
				}
			}
		}

		if aborted {
			break
		}
	}

	if aborted {
		return ErrAborted
	}
	return nil
}

// skipDescendants marks name and every transitive dependent of name as
// skipped, and sets their in-degree to -1 so the main loop's generic
// decrement step leaves them alone.
func (s *Scheduler) skipDescendants(name string, inDegree map[string]int) {
	if inDegree[name] == -1 {
		return
	}
	inDegree[name] = -1
	s.state.markSkipped(name)
	for _, dep := range s.graph.dependents[name] {
		s.skipDescendants(dep, inDegree)
	}
}
