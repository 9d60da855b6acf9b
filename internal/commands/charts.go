package commands

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"sales-dashboard/internal/charts"
	"sales-dashboard/internal/kpi"
)

// NewChartsCommand renders the static PNG chart set.
func NewChartsCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}
	var dir string

	com := &cobra.Command{
		Use:   "charts",
		Short: "charts - render the KPI charts as PNG files",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.config()
			if err != nil {
				return err
			}

			s, err := snapshot(cmd.Context(), cfg, opts, kpi.Filter{}, stderr)
			if err != nil {
				return err
			}

			paths, err := charts.NewRenderer(newLogger(stderr, cfg)).Render(cmd.Context(), s, dir)
			if err != nil {
				return errors.Wrap(err, "rendering charts")
			}
			for _, p := range paths {
				fmt.Fprintln(stdout, p)
			}
			return nil
		},
	}
	flags := com.Flags()
	opts.addFlags(flags, true)
	flags.StringVarP(&dir, "dir", "d", "charts", "Directory to write the PNG files to")
	return com
}

func init() {
	subcommandFns["charts"] = NewChartsCommand
}
