package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/urbanbyte/ishare/internal/bootstrap"
	"github.com/urbanbyte/ishare/internal/config"
)

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := NewRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func NewRootCmd() *cobra.Command {
	var debug bool

	cmd := &cobra.Command{
		Use:          "ishare",
		Short:        "ishare: captura, prévia e upload de telas",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			log.Logger = log.Output(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), TimeFormat: time.RFC3339})
			if debug {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			} else {
				zerolog.SetGlobalLevel(zerolog.WarnLevel)
			}
		},
	}

	cmd.PersistentFlags().BoolVar(&debug, "debug", false, "log detalhado no stderr")

	cmd.AddCommand(
		uploadCmd(),
		captureCmd(),
		settingsCmd(),
		historyCmd(),
		hashpassCmd(),
		tokenCmd(),
	)
	return cmd
}

// openLocal carrega configuração e recursos no modo cliente.
func openLocal(ctx context.Context) (*config.Config, *bootstrap.Resources, error) {
	cfg, err := config.LoadClient()
	if err != nil {
		return nil, nil, err
	}
	res, err := bootstrap.Open(ctx, cfg, log.Logger)
	if err != nil {
		return nil, nil, err
	}
	return cfg, res, nil
}
