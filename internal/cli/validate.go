package cli

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/flowtoy/flowtoy/internal/configio"
	"github.com/flowtoy/flowtoy/internal/provider"
	"github.com/flowtoy/flowtoy/internal/scheduler"
	"github.com/flowtoy/flowtoy/internal/style"
)

var validateCmd = &cobra.Command{
	Use:   "validate [config files...]",
	Short: "Parse a flow and check its dependency graph without running it",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := configio.Load(args)
	if err != nil {
		return fail("loading config: %w", err)
	}

	registry := provider.NewRegistry()
	if _, err := scheduler.New(cfg, registry, 0, log.Logger); err != nil {
		style.Failure(cmd.ErrOrStderr(), "%v", err)
		return fail("validation failed")
	}

	style.Success(cmd.OutOrStdout(), "%d step(s), dependency graph is valid", len(cfg.Flow))
	return nil
}
