package commands

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"sales-dashboard/internal/dataset"
	"sales-dashboard/internal/generator"
)

// NewGenerateCommand writes a synthetic transaction table as CSV.
func NewGenerateCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}
	var output string

	com := &cobra.Command{
		Use:   "generate",
		Short: "generate - write synthetic sales transactions as CSV",
		Long: `Generate a synthetic sales table. With the same seed and parameters the
output is identical across runs. Use --output - to write to stdout.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.config()
			if err != nil {
				return err
			}
			logger := newLogger(stderr, cfg)

			rows, err := generator.Generate(cfg.GeneratorParams())
			if err != nil {
				return errors.Wrap(err, "generating dataset")
			}

			if output == "-" {
				return errors.Wrap(dataset.WriteCSV(stdout, rows), "writing csv")
			}
			if err := dataset.WriteFile(output, rows); err != nil {
				return errors.Wrapf(err, "writing %s", output)
			}
			logger.Info("dataset written", "path", output, "records", len(rows))
			fmt.Fprintf(stdout, "wrote %d transactions to %s\n", len(rows), output)
			return nil
		},
	}
	flags := com.Flags()
	opts.addFlags(flags, false)
	flags.StringVarP(&output, "output", "o", "sales_data.csv", "CSV file to write, or - for stdout")
	return com
}

func init() {
	subcommandFns["generate"] = NewGenerateCommand
}
