package commands

import (
	"io"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"sales-dashboard/internal/config"
	"sales-dashboard/internal/server"
)

// NewServeCommand runs the interactive dashboard.
func NewServeCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}
	var (
		host      string
		port      int
		chartsDir string
	)

	com := &cobra.Command{
		Use:   "serve",
		Short: "serve - run the interactive KPI dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.config()
			if err != nil {
				return err
			}
			cfg.Server.Host = host
			cfg.Server.Port = port
			cfg.Dashboard.ChartsDir = chartsDir
			if err := cfg.Validate(); err != nil {
				return errors.Wrap(err, "invalid configuration")
			}

			logger := newLogger(stderr, cfg)
			logger.Info("starting dashboard", "addr", cfg.Address())
			return errors.Wrap(server.Run(cmd.Context(), cfg, logger, opts.Input), "serving dashboard")
		},
	}
	flags := com.Flags()
	opts.addFlags(flags, true)
	defaults := config.Defaults()
	flags.StringVar(&host, "host", defaults.Server.Host, "Address to listen on")
	flags.IntVarP(&port, "port", "p", defaults.Server.Port, "Port to listen on")
	flags.StringVar(&chartsDir, "charts-dir", defaults.Dashboard.ChartsDir, "Directory for the static PNG charts, empty to skip them")
	return com
}

func init() {
	subcommandFns["serve"] = NewServeCommand
}
