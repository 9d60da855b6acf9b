package commands

import (
	"context"
	"fmt"
	"io"
	"maps"
	"slices"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"sales-dashboard/internal/config"
	"sales-dashboard/internal/kpi"
	"sales-dashboard/internal/models"
	"sales-dashboard/internal/server"
	"sales-dashboard/internal/ui/templates"
)

type reportFilter struct {
	Regions  []string
	Channels []string
	From     string
	To       string
}

func (f reportFilter) filter() (kpi.Filter, error) {
	out := kpi.Filter{}
	if len(f.Regions) > 0 {
		out.Regions = f.Regions
	}
	if len(f.Channels) > 0 {
		out.Channels = f.Channels
	}
	var err error
	if f.From != "" {
		if out.From, err = time.Parse(time.DateOnly, f.From); err != nil {
			return kpi.Filter{}, errors.Wrap(err, "parsing --from")
		}
	}
	if f.To != "" {
		if out.To, err = time.Parse(time.DateOnly, f.To); err != nil {
			return kpi.Filter{}, errors.Wrap(err, "parsing --to")
		}
	}
	return out, nil
}

// NewReportCommand prints the KPI report for a generated or imported table.
func NewReportCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}
	rf := &reportFilter{}

	com := &cobra.Command{
		Use:   "report",
		Short: "report - print sales KPIs",
		Long: `Compute every sales KPI over a generated table, or over --input, and print
them as a text report. --region, --channel, --from and --to narrow the table
first.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.config()
			if err != nil {
				return err
			}
			filter, err := rf.filter()
			if err != nil {
				return err
			}

			s, err := snapshot(cmd.Context(), cfg, opts, filter, stderr)
			if err != nil {
				return err
			}
			return errors.Wrap(WriteReport(stdout, s), "writing report")
		},
	}
	flags := com.Flags()
	opts.addFlags(flags, true)
	flags.StringSliceVar(&rf.Regions, "region", nil, "Only include these regions")
	flags.StringSliceVar(&rf.Channels, "channel", nil, "Only include these channels")
	flags.StringVar(&rf.From, "from", "", "First day to include (YYYY-MM-DD)")
	flags.StringVar(&rf.To, "to", "", "Last day to include (YYYY-MM-DD)")
	return com
}

func snapshot(ctx context.Context, cfg *config.Config, opts *options, filter kpi.Filter, stderr io.Writer) (*models.Snapshot, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	analytics, err := server.Bootstrap(ctx, cfg, newLogger(stderr, cfg), opts.Input)
	if err != nil {
		return nil, errors.Wrap(err, "loading dataset")
	}
	s, err := analytics.Snapshot(ctx, "", filter)
	if err != nil {
		return nil, errors.Wrap(err, "computing KPIs")
	}
	return s, nil
}

// WriteReport prints s as aligned text sections.
func WriteReport(w io.Writer, s *models.Snapshot) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, "Key Performance Indicators")
	fmt.Fprintf(tw, "Transactions:\t%s\n", templates.Count(s.RecordCount))
	fmt.Fprintf(tw, "Total Revenue:\t%s\n", templates.Money(s.TotalRevenue))
	fmt.Fprintf(tw, "Total Profit:\t%s\n", templates.Money(s.TotalProfit))
	fmt.Fprintf(tw, "Profit Margin:\t%s\n", templates.Percent(s.ProfitMargin))
	fmt.Fprintf(tw, "Average Order Value:\t%s\n", templates.Money(s.AverageOrderValue))
	fmt.Fprintf(tw, "Unique Customers:\t%s\n", templates.Count(s.UniqueCustomers))
	fmt.Fprintf(tw, "Revenue per Customer:\t%s\n", templates.Money(s.AvgRevenuePerCustomer))

	section(tw, "Revenue by Region", s.RevenueByRegion, templates.Money)
	section(tw, "Revenue by Channel", s.RevenueByChannel, templates.Money)
	section(tw, "Profit Margin by Region", s.ProfitMarginByRegion, templates.Percent)
	section(tw, "Profit Margin by Channel", s.ProfitMarginByChannel, templates.Percent)

	fmt.Fprintln(tw, "\nMonthly Revenue")
	for _, m := range s.MonthlyRevenue {
		fmt.Fprintf(tw, "%s\t%s\n", m.Month, templates.Money(m.Value))
	}

	fmt.Fprintln(tw, "\nTop Products by Revenue")
	for i, p := range s.TopProductsByRevenue {
		fmt.Fprintf(tw, "%d. %s\t%s\n", i+1, p.Label, templates.Money(p.Value))
	}

	fmt.Fprintln(tw, "\nRevenue Distribution")
	d := s.Distribution
	fmt.Fprintf(tw, "Min / Median / Max:\t%s / %s / %s\n",
		templates.Money(d.Min), templates.Money(d.Median), templates.Money(d.Max))
	fmt.Fprintf(tw, "Mean (std dev):\t%s (%s)\n", templates.Money(d.Mean), templates.Money(d.StdDev))

	return tw.Flush()
}

func section(w io.Writer, title string, values map[string]float64, format func(float64) string) {
	fmt.Fprintf(w, "\n%s\n", title)
	for _, k := range slices.Sorted(maps.Keys(values)) {
		fmt.Fprintf(w, "%s\t%s\n", k, format(values[k]))
	}
}

func init() {
	subcommandFns["report"] = NewReportCommand
}
