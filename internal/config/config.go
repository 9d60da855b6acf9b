package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"sales-dashboard/internal/generator"
	"sales-dashboard/internal/kpi"
)

type Config struct {
	Server    ServerConfig
	Generator GeneratorConfig
	Dashboard DashboardConfig
	Logger    LoggerConfig
	Security  SecurityConfig
}

type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// GeneratorConfig describes the synthetic table generated at startup.
type GeneratorConfig struct {
	SampleSize int
	// Seed < 0 seeds from the clock.
	Seed      int64
	Days      int
	EndDate   string
	Regions   []string
	Channels  []string
	Products  []string
	Customers int
}

type DashboardConfig struct {
	TopN         int
	TableRows    int
	SessionTTL   time.Duration
	ChartsDir    string
	HistogramBin int
}

type LoggerConfig struct {
	Level  string
	Format string
}

type SecurityConfig struct {
	EnableCSRF      bool
	EnableRateLimit bool
	RateLimitRPS    int
	RateLimitBurst  int
	AllowedOrigins  []string
	TrustedProxies  []string
	SecureCookies   bool
}

// Defaults returns the configuration used when no environment variable is set.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8084,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Generator: GeneratorConfig{
			SampleSize: generator.DefaultSampleSize,
			Seed:       generator.DefaultSeed,
			Days:       365,
			Regions:    generator.DefaultRegions,
			Channels:   generator.DefaultChannels,
			Products:   generator.DefaultProducts,
			Customers:  generator.DefaultCustomers,
		},
		Dashboard: DashboardConfig{
			TopN:         kpi.DefaultTopN,
			TableRows:    50,
			SessionTTL:   30 * time.Minute,
			ChartsDir:    "charts",
			HistogramBin: kpi.DefaultBins,
		},
		Logger: LoggerConfig{
			Level:  "info",
			Format: "json",
		},
		Security: SecurityConfig{
			EnableCSRF:      true,
			EnableRateLimit: true,
			RateLimitRPS:    100,
			RateLimitBurst:  10,
			AllowedOrigins:  []string{"http://localhost:8084"},
			TrustedProxies:  []string{"127.0.0.1"},
		},
	}
}

// Load reads the configuration from the environment. Values from a .env file
// in the working directory are applied first and never override variables
// that are already set.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	d := Defaults()
	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnvString("SERVER_HOST", d.Server.Host),
			Port:            getEnvInt("SERVER_PORT", d.Server.Port),
			ReadTimeout:     getEnvDuration("SERVER_READ_TIMEOUT", d.Server.ReadTimeout),
			WriteTimeout:    getEnvDuration("SERVER_WRITE_TIMEOUT", d.Server.WriteTimeout),
			IdleTimeout:     getEnvDuration("SERVER_IDLE_TIMEOUT", d.Server.IdleTimeout),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", d.Server.ShutdownTimeout),
		},
		Generator: GeneratorConfig{
			SampleSize: getEnvInt("SALES_SAMPLE_SIZE", d.Generator.SampleSize),
			Seed:       getEnvSeed("SALES_SEED", d.Generator.Seed),
			Days:       getEnvInt("SALES_DAYS", d.Generator.Days),
			EndDate:    getEnvString("SALES_END_DATE", d.Generator.EndDate),
			Regions:    getEnvStringSlice("SALES_REGIONS", d.Generator.Regions),
			Channels:   getEnvStringSlice("SALES_CHANNELS", d.Generator.Channels),
			Products:   getEnvStringSlice("SALES_PRODUCTS", d.Generator.Products),
			Customers:  getEnvInt("SALES_CUSTOMERS", d.Generator.Customers),
		},
		Dashboard: DashboardConfig{
			TopN:         getEnvInt("DASHBOARD_TOP_N", d.Dashboard.TopN),
			TableRows:    getEnvInt("DASHBOARD_TABLE_ROWS", d.Dashboard.TableRows),
			SessionTTL:   getEnvDuration("DASHBOARD_SESSION_TTL", d.Dashboard.SessionTTL),
			ChartsDir:    getEnvString("DASHBOARD_CHARTS_DIR", d.Dashboard.ChartsDir),
			HistogramBin: getEnvInt("DASHBOARD_HISTOGRAM_BINS", d.Dashboard.HistogramBin),
		},
		Logger: LoggerConfig{
			Level:  getEnvString("LOG_LEVEL", d.Logger.Level),
			Format: getEnvString("LOG_FORMAT", d.Logger.Format),
		},
		Security: SecurityConfig{
			EnableCSRF:      getEnvBool("SECURITY_CSRF_ENABLED", d.Security.EnableCSRF),
			EnableRateLimit: getEnvBool("SECURITY_RATE_LIMIT_ENABLED", d.Security.EnableRateLimit),
			RateLimitRPS:    getEnvInt("SECURITY_RATE_LIMIT_RPS", d.Security.RateLimitRPS),
			RateLimitBurst:  getEnvInt("SECURITY_RATE_LIMIT_BURST", d.Security.RateLimitBurst),
			AllowedOrigins:  getEnvStringSlice("SECURITY_ALLOWED_ORIGINS", d.Security.AllowedOrigins),
			TrustedProxies:  getEnvStringSlice("SECURITY_TRUSTED_PROXIES", d.Security.TrustedProxies),
			SecureCookies:   getEnvBool("SECURITY_SECURE_COOKIES", d.Security.SecureCookies),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks every section, including that the generator section yields
// usable generation parameters.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if c.Generator.Days <= 0 {
		return fmt.Errorf("generator days must be positive, got %d", c.Generator.Days)
	}

	if c.Generator.EndDate != "" {
		if _, err := time.Parse(time.DateOnly, c.Generator.EndDate); err != nil {
			return fmt.Errorf("generator end date %q must be YYYY-MM-DD", c.Generator.EndDate)
		}
	}

	if err := c.GeneratorParams().Validate(); err != nil {
		return fmt.Errorf("generator: %w", err)
	}

	if c.Dashboard.TopN <= 0 {
		return fmt.Errorf("dashboard top N must be positive")
	}

	if c.Dashboard.TableRows <= 0 {
		return fmt.Errorf("dashboard table rows must be positive")
	}

	if c.Dashboard.HistogramBin <= 0 {
		return fmt.Errorf("dashboard histogram bins must be positive")
	}

	if c.Dashboard.SessionTTL <= 0 {
		return fmt.Errorf("dashboard session TTL must be positive")
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, c.Logger.Level) {
		return fmt.Errorf("invalid log level %q, must be one of: %s", c.Logger.Level, strings.Join(validLogLevels, ", "))
	}

	validLogFormats := []string{"json", "text"}
	if !contains(validLogFormats, c.Logger.Format) {
		return fmt.Errorf("invalid log format %q, must be one of: %s", c.Logger.Format, strings.Join(validLogFormats, ", "))
	}

	if c.Security.RateLimitRPS <= 0 {
		return fmt.Errorf("rate limit RPS must be positive")
	}

	if c.Security.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit burst must be positive")
	}

	return nil
}

// GeneratorParams converts the generator section into generation parameters.
func (c *Config) GeneratorParams() generator.Params {
	p := generator.DefaultParams()
	p.SampleSize = c.Generator.SampleSize
	p.Regions = c.Generator.Regions
	p.Channels = c.Generator.Channels
	p.Products = c.Generator.Products
	p.Customers = c.Generator.Customers

	if c.Generator.Seed < 0 {
		p.Seed = nil
	} else {
		p = p.WithSeed(c.Generator.Seed)
	}

	if end, err := time.Parse(time.DateOnly, c.Generator.EndDate); err == nil {
		p.End = end
	}
	p.Start = p.End.AddDate(0, 0, -c.Generator.Days)
	return p
}

// KPIOptions converts the dashboard section into snapshot options.
func (c *Config) KPIOptions() kpi.Options {
	opts := kpi.DefaultOptions()
	opts.TopN = c.Dashboard.TopN
	opts.Bins = c.Dashboard.HistogramBin
	return opts
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// ParseSeed accepts an integer or "random", which maps to -1.
func ParseSeed(value string) (int64, error) {
	if strings.EqualFold(value, "random") {
		return -1, nil
	}
	seed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("seed must be an integer or \"random\", got %q", value)
	}
	return seed, nil
}

func getEnvSeed(key string, defaultValue int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if seed, err := ParseSeed(value); err == nil {
		return seed
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return defaultValue
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
