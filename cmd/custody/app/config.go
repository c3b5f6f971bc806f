package app

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agentstation/custody/pkg/constants"
	"github.com/agentstation/custody/pkg/errors"
)

// Config holds the application configuration loaded from config files,
// environment variables and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Format  string

	// Config file
	ConfigFile string

	// Pipeline
	PipelineVersion string
	Transforms      []string
	Concurrency     int
	MergeStrategy   string
	StaffID         string

	// Export projection. PickSet distinguishes an empty allow-list from an
	// unset one.
	Omit    []string
	Pick    []string
	PickSet bool

	// Archive
	StorePath string

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

// LoadConfig loads configuration from all sources in order of precedence:
// 1. Command-line flags (handled by cobra)
// 2. Environment variables (CUSTODY_ prefix)
// 3. .env files
// 4. Config file (--config, or .custody.yaml in $HOME or the working directory)
// 5. Defaults
func LoadConfig(configFile string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("pipeline.version", "v2")
	v.SetDefault("pipeline.concurrency", constants.DefaultConcurrency)
	v.SetDefault("store.path", constants.DefaultArchivePath)
	v.SetDefault("log.format", "auto")
	v.SetDefault("log.output", "stderr")

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(constants.DefaultConfigName)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// an explicit file must exist; the search paths are optional
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, errors.NewConfigError("config", "failed to read config file", err)
		}
	}

	config := &Config{
		Verbose: v.GetBool("verbose"),
		Quiet:   v.GetBool("quiet"),
		NoColor: v.GetBool("no_color"),
		Format:  v.GetString("format"),

		ConfigFile: v.ConfigFileUsed(),

		PipelineVersion: v.GetString("pipeline.version"),
		Transforms:      stringList(v, "pipeline.transforms"),
		Concurrency:     v.GetInt("pipeline.concurrency"),
		MergeStrategy:   v.GetString("reconcile.strategy"),
		StaffID:         v.GetString("annotate.staff_id"),

		Omit:    stringList(v, "projection.omit"),
		Pick:    stringList(v, "projection.pick"),
		PickSet: v.IsSet("projection.pick"),

		StorePath: v.GetString("store.path"),

		LogLevel:  v.GetString("log.level"),
		LogFormat: v.GetString("log.format"),
		LogOutput: v.GetString("log.output"),
	}

	return config, nil
}

// stringList reads a list from a config file or a comma separated env value.
func stringList(v *viper.Viper, key string) []string {
	var out []string
	for _, item := range v.GetStringSlice(key) {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// UpdateFromFlags updates config values from parsed command flags.
// Flag values take precedence over config file and env vars.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, format, logLevel string) {
	c.Verbose = verbose
	c.Quiet = quiet
	c.NoColor = noColor
	if format != "" {
		c.Format = format
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

// loadEnvFiles loads environment variables from .env files.
// .env.local does not override .env; the first file to set a key wins.
func loadEnvFiles() {
	for _, envFile := range []string{".env", ".env.local"} {
		_ = godotenv.Load(envFile)
	}
}
