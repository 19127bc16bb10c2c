package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/cognicore/docprep/internal/logger"
	"github.com/cognicore/docprep/pkg/docprep/config"
)

// cli holds the state shared by all subcommands.
type cli struct {
	v       *viper.Viper
	cfgFile string
	noColor bool
}

func newRootCmd() *cobra.Command {
	c := &cli{v: viper.New()}

	root := &cobra.Command{
		Use:          "docprep",
		Short:        "Anonymizing preprocessor for scanned-document archives",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.readConfig()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&c.cfgFile, "config", "c", "", "config file (default: docprep.yaml in . or ./config)")
	flags.BoolVar(&c.noColor, "no-color", false, "disable colored output")
	flags.String("source", "", "directory holding the batch archives")
	flags.String("output", "", "output directory for extracted files and segments")
	flags.String("period", "", "period label, e.g. 2023-10 (default: current month)")
	flags.Bool("force", false, "re-extract archives that were already extracted")
	flags.Int("chunk-size", 0, "documents per chunk and segment")
	flags.Bool("parallel", false, "process chunks on a worker pool")
	flags.Int("workers", 0, "worker pool size (0 = number of CPUs)")
	flags.String("format", "", "segment format: parquet or sqlite")
	flags.String("vocabulary", "", "phrase vocabulary YAML")
	flags.String("blacklist", "", "blacklist YAML")
	flags.String("patterns", "", "PII pattern YAML (empty = built-in EMAIL and PHONE)")
	flags.String("recognizer", "", "entity recognizer: gazetteer, http or none")
	flags.String("gazetteer", "", "entity name YAML for the gazetteer recognizer")
	flags.String("recognizer-url", "", "NER service URL for the http recognizer")
	flags.String("log-env", "", "logger environment: local, dev or prod")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	flags.String("metrics", "", "write Prometheus metrics to this textfile")

	for key, flag := range map[string]string{
		"source_dir":                "source",
		"output_dir":                "output",
		"period":                    "period",
		"force":                     "force",
		"chunk_size":                "chunk-size",
		"parallel":                  "parallel",
		"workers":                   "workers",
		"segment_format":            "format",
		"vocabulary_path":           "vocabulary",
		"blacklist_path":            "blacklist",
		"patterns_path":             "patterns",
		"recognizer.kind":           "recognizer",
		"recognizer.gazetteer_path": "gazetteer",
		"recognizer.url":            "recognizer-url",
		"logging.env":               "log-env",
		"logging.level":             "log-level",
		"metrics_path":              "metrics",
	} {
		_ = c.v.BindPFlag(key, flags.Lookup(flag))
	}

	root.AddCommand(newRunCmd(c), newExtractCmd(c), newInspectCmd(c))
	return root
}

// readConfig reads the config file and DOCPREP_* environment variables.
// A missing default config file is not an error.
func (c *cli) readConfig() error {
	c.v.SetEnvPrefix("DOCPREP")
	c.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	c.v.AutomaticEnv()

	if c.cfgFile != "" {
		c.v.SetConfigFile(c.cfgFile)
	} else {
		c.v.SetConfigName("docprep")
		c.v.SetConfigType("yaml")
		c.v.AddConfigPath(".")
		c.v.AddConfigPath("config")
	}

	if err := c.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to load config: %w", err)
	}
	return nil
}

// settings returns the merged settings with defaults applied.
func (c *cli) settings() (config.Settings, error) {
	var s config.Settings
	if err := c.v.Unmarshal(&s); err != nil {
		return s, fmt.Errorf("unmarshal config: %w", err)
	}
	s.ApplyDefaults()
	return s, nil
}

func (c *cli) logger(s config.Settings) (*zap.Logger, error) {
	log, err := logger.NewLogger(s.Logging.Env, s.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return log, nil
}
