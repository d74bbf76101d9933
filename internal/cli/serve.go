package cli

import (
	"context"
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
	serveHost string
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve [config files...]",
	Short: "Run a flow in the background and serve its status API in the foreground",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "127.0.0.1", "status API bind host")
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "status API bind port")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := configio.Load(args)
	if err != nil {
		return fail("loading config: %w", err)
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

	srv := server.New(server.Config{Host: serveHost, Port: servePort, ShutdownTimeout: 5 * time.Second}, log.Logger)
	srv.Attach(sched)

	go func() {
		if err := sched.Run(ctx); err != nil && err != scheduler.ErrAborted {
			log.Error().Err(err).Msg("run failed")
		}
	}()

	style.Info(cmd.OutOrStdout(), "serving status API on http://%s:%d/status", serveHost, servePort)
	return srv.ListenAndServe(ctx)
}
