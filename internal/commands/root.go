// Package commands implements the salesctl command line.
package commands

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"sales-dashboard/internal/config"
	"sales-dashboard/internal/observability"
)

// EnvPrefix prefixes the environment variables that back every flag, e.g.
// --sample-size reads SALES_SAMPLE_SIZE.
const EnvPrefix = "SALES"

var (
	// Version of this software, filled in by ldflags.
	Version string
	// BuildTime of this software, filled in by ldflags.
	BuildTime string
)

func setupVersionBuild() {
	if Version == "" {
		Version = "v0.0.0"
	}
	if BuildTime == "" {
		BuildTime = "not recorded"
	}
}

var subcommandFns = map[string]func(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command{}

// NewRootCommand creates the top level command with every registered
// subcommand attached.
func NewRootCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	setupVersionBuild()
	rc := &cobra.Command{
		Use:   "salesctl",
		Short: "salesctl - synthetic sales data and KPI reports",
		Long: `Generate synthetic sales transactions, compute sales KPIs over them,
render static charts and serve the interactive dashboard.

Every flag can also be set through a SALES_ prefixed environment variable
or a TOML file passed with --config.

Version: ` + Version + `
Build Time: ` + BuildTime + "\n",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v := viper.New()
			return setAllConfig(v, cmd.Flags(), EnvPrefix)
		},
	}
	rc.PersistentFlags().StringP("config", "c", "", "TOML configuration file")

	names := make([]string, 0, len(subcommandFns))
	for name := range subcommandFns {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		rc.AddCommand(subcommandFns[name](stdin, stdout, stderr))
	}

	rc.SetIn(stdin)
	rc.SetOut(stdout)
	rc.SetErr(stderr)
	return rc
}

// setAllConfig takes a FlagSet to be the definition of all configuration
// options, as well as their defaults. It then reads from the command line, the
// environment, and a config file (if specified), and applies the configuration
// in that priority order.
//
// Environment variables are capitalized flag names with dashes replaced by
// underscores, prefixed with envPrefix plus an underscore.
func setAllConfig(v *viper.Viper, flags *pflag.FlagSet, envPrefix string) error {
	if err := v.BindPFlags(flags); err != nil {
		return errors.Wrap(err, "binding flags")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if c := v.GetString("config"); c != "" {
		v.SetConfigFile(c)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return errors.Wrapf(err, "reading configuration file '%s'", c)
		}
	}

	var flagErr error
	flags.VisitAll(func(f *pflag.Flag) {
		if flagErr != nil || f.Changed {
			// flags set on the command line win, and re-setting a string
			// slice would append to it
			return
		}

		var value string
		if f.Value.Type() == "stringSlice" {
			// a TOML array comes back as a real slice, not a csv string
			value = strings.Join(v.GetStringSlice(f.Name), ",")
		} else {
			value = v.GetString(f.Name)
		}
		if err := f.Value.Set(value); err != nil {
			flagErr = errors.Wrapf(err, "invalid value %q for --%s", value, f.Name)
		}
	})
	return flagErr
}

// options holds the flags shared by every subcommand that builds a dataset.
type options struct {
	SampleSize int
	Seed       string
	Days       int
	EndDate    string
	Regions    []string
	Channels   []string
	Products   []string
	Customers  int
	Input      string
	TopN       int
	Bins       int
	LogLevel   string
	LogFormat  string
}

func (o *options) addFlags(flags *pflag.FlagSet, withInput bool) {
	defaults := config.Defaults()

	flags.IntVarP(&o.SampleSize, "sample-size", "n", defaults.Generator.SampleSize, "Number of transactions to generate")
	flags.StringVarP(&o.Seed, "seed", "s", fmt.Sprint(defaults.Generator.Seed), `Random seed, or "random" to seed from the clock`)
	flags.IntVar(&o.Days, "days", defaults.Generator.Days, "Length of the generated date range in days")
	flags.StringVar(&o.EndDate, "end-date", defaults.Generator.EndDate, "Last day of the generated range (YYYY-MM-DD, default today)")
	flags.StringSliceVar(&o.Regions, "regions", defaults.Generator.Regions, "Regions to draw from")
	flags.StringSliceVar(&o.Channels, "channels", defaults.Generator.Channels, "Sales channels to draw from")
	flags.StringSliceVar(&o.Products, "products", defaults.Generator.Products, "Products to draw from")
	flags.IntVar(&o.Customers, "customers", defaults.Generator.Customers, "Size of the customer pool")
	flags.IntVar(&o.TopN, "top-n", defaults.Dashboard.TopN, "Length of top product rankings")
	flags.IntVar(&o.Bins, "bins", defaults.Dashboard.HistogramBin, "Histogram bins for the revenue distribution")
	flags.StringVar(&o.LogLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	flags.StringVar(&o.LogFormat, "log-format", "text", "Log format (json, text)")
	if withInput {
		flags.StringVarP(&o.Input, "input", "i", "", "Read transactions from this CSV instead of generating them")
	}
}

// config overlays the flag values on the environment configuration.
func (o *options) config() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, errors.Wrap(err, "loading configuration")
	}

	seed, err := config.ParseSeed(o.Seed)
	if err != nil {
		return nil, errors.Wrap(err, "parsing --seed")
	}

	cfg.Generator.SampleSize = o.SampleSize
	cfg.Generator.Seed = seed
	cfg.Generator.Days = o.Days
	cfg.Generator.EndDate = o.EndDate
	cfg.Generator.Regions = o.Regions
	cfg.Generator.Channels = o.Channels
	cfg.Generator.Products = o.Products
	cfg.Generator.Customers = o.Customers
	cfg.Dashboard.TopN = o.TopN
	cfg.Dashboard.HistogramBin = o.Bins
	cfg.Logger.Level = o.LogLevel
	cfg.Logger.Format = o.LogFormat

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}

func newLogger(stderr io.Writer, cfg *config.Config) *slog.Logger {
	return observability.NewLoggerTo(stderr, cfg.Logger)
}
