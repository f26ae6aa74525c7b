// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the noesis CLI. Each stage of the
// discovery pipeline is a subcommand: analyze, predict, hypothesize, and
// explore. The runs command reads the archive of past results and snapshot
// exports the graph to a file.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/noesis/internal/logger"
	"github.com/pdiddy/noesis/internal/metrics"
	"github.com/pdiddy/noesis/internal/secrets"
	"github.com/pdiddy/noesis/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// Process-wide state built by rootCmd before any subcommand runs.
var (
	cfg types.Config
	log *logger.Logger
	reg *metrics.Metrics
)

var rootCmd = &cobra.Command{
	Use:   "noesis",
	Short: "Hypothesis discovery over a concept graph",
	Long: `noesis reads a concept graph from Neo4j or a snapshot file, scores the
concept pairs that are not yet linked, and asks a language model to turn the
most promising pairs into research hypotheses.

The explore command grows a tree of hypothesis layers from those results,
branching by type diversity or by score tiers.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading .env: %w", err)
		}

		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}

		cfg, err = loadConfig(s)
		if err != nil {
			return err
		}
		log, err = logger.New(cfg.Log)
		if err != nil {
			return err
		}
		reg = metrics.New()
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		defer log.Sync()
		if path := cfg.Metrics.TextfilePath; path != "" {
			return reg.WriteTextfile(path)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./noesis.yaml or ~/.config/noesis/noesis.yaml)")
	pf.String("graph-file", "", "read the graph from a .json or .yaml snapshot (path or URL) instead of Neo4j")
	pf.String("log-level", "", "log level: debug, info, warn, or error")
	pf.String("metrics-file", "", "write Prometheus metrics to this textfile after the command")

	viper.BindPFlag("graph_file.path", pf.Lookup("graph-file"))
	viper.BindPFlag("log.level", pf.Lookup("log-level"))
	viper.BindPFlag("metrics.textfile_path", pf.Lookup("metrics-file"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("noesis")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "noesis"))
		}
	}

	viper.SetEnvPrefix("NOESIS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	setDefaults(viper.GetViper())

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
