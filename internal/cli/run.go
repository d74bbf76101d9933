package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/flowtoy/flowtoy/internal/configio"
	"github.com/flowtoy/flowtoy/internal/provider"
	_ "github.com/flowtoy/flowtoy/internal/provider/awsident"
	_ "github.com/flowtoy/flowtoy/internal/provider/directory"
	_ "github.com/flowtoy/flowtoy/internal/provider/envsnap"
	_ "github.com/flowtoy/flowtoy/internal/provider/httpsource"
	_ "github.com/flowtoy/flowtoy/internal/provider/process"
	"github.com/flowtoy/flowtoy/internal/scheduler"
	"github.com/flowtoy/flowtoy/internal/server"
	"github.com/flowtoy/flowtoy/internal/style"
)

var (
	runJSON       bool
	runOutputFile string
	runStatusPort int
	runMaxWorkers int
)

var runCmd = &cobra.Command{
	Use:   "run [config files...]",
	Short: "Run a flow once and print its outputs",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runRun,
}

func init() {
	runCmd.Flags().BoolVarP(&runJSON, "json", "j", false, "print outputs as JSON")
	runCmd.Flags().StringVarP(&runOutputFile, "output-file", "o", "", "write outputs to this file instead of stdout")
	runCmd.Flags().IntVar(&runStatusPort, "status-port", 0, "serve the status API on this port while the run executes (0 disables it)")
	runCmd.Flags().IntVar(&runMaxWorkers, "max-workers", 0, "override runner.max_workers from the config")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := configio.Load(args)
	if err != nil {
		return fail("loading config: %w", err)
	}
	if runMaxWorkers > 0 {
		cfg.Runner.MaxWorkers = runMaxWorkers
	}

	registry := provider.NewRegistry()
	runID := time.Now().UnixMilli()
	sched, err := scheduler.New(cfg, registry, runID, log.Logger)
	if err != nil {
		return fail("invalid flow: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	trapInterrupt(cancel)

	var srv *server.Server
	var srvDone chan error
	if runStatusPort > 0 {
		srv = server.New(server.Config{Host: "127.0.0.1", Port: runStatusPort, ShutdownTimeout: 5 * time.Second}, log.Logger)
		srv.Attach(sched)
		srvDone = make(chan error, 1)
		go func() { srvDone <- srv.ListenAndServe(ctx) }()
		if !cfgFlagQuiet {
			style.Info(cmd.OutOrStdout(), "status API listening on http://127.0.0.1:%d/status", runStatusPort)
		}
	}

	runErr := sched.Run(ctx)
	flows, _ := sched.Snapshot()

	if err := writeOutputs(cmd, flows); err != nil {
		return err
	}

	if runErr != nil && runErr != scheduler.ErrAborted {
		return runErr
	}
	if runErr == scheduler.ErrAborted {
		style.Failure(cmd.ErrOrStderr(), "run aborted: a step failed with on_error=fail")
	} else if !cfgFlagQuiet {
		style.Success(cmd.OutOrStdout(), "run complete")
	}

	if srv != nil {
		// The run is done; stop serving status for it too instead of
		// blocking forever waiting for a signal that may never come.
		cancel()
		<-srvDone
	}
	if runErr == scheduler.ErrAborted {
		return fail("run aborted")
	}
	return nil
}

func writeOutputs(cmd *cobra.Command, flows scheduler.FlowOutputs) error {
	var out []byte
	var err error
	if runJSON {
		out, err = json.MarshalIndent(flows, "", "  ")
	} else {
		out = []byte(fmt.Sprintf("%v\n", map[string]map[string]interface{}(flows)))
	}
	if err != nil {
		return fail("encoding outputs: %w", err)
	}

	if runOutputFile != "" {
		return os.WriteFile(runOutputFile, out, 0o644)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

func trapInterrupt(cancel context.CancelFunc) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()
}
