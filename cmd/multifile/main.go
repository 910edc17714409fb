// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
	"gitlab.com/accumulatenetwork/multifile/internal/logging"
	. "gitlab.com/accumulatenetwork/multifile/internal/util/cmd"
	"gitlab.com/accumulatenetwork/multifile/pkg/multifile"
)

func main() {
	_ = cmdMain.Execute()
}

var cmdMain = &cobra.Command{
	Use:               "multifile",
	Short:             "Inspect and edit multifile containers",
	PersistentPreRun:  setup,
	PersistentPostRun: printMetrics,
}

var flagMain struct {
	Config              string
	LogFormat           string
	LogLevel            string
	MemoryMap           bool
	AppendContinuations bool
	Metrics             bool
}

// cfg is the loaded configuration with flags applied.
var cfg *Config

func init() {
	flags := cmdMain.PersistentFlags()
	flags.StringVar(&flagMain.Config, "config", os.Getenv("MULTIFILE_CONFIG"), "Configuration file (TOML, YAML, or JSON)")
	flags.StringVar(&flagMain.LogFormat, "log-format", "plain", "Log format (plain, json)")
	flags.StringVar(&flagMain.LogLevel, "log-level", "error", "Log levels, such as 'info;multifile=debug'")
	flags.BoolVar(&flagMain.MemoryMap, "mmap", false, "Memory-map the container")
	flags.BoolVar(&flagMain.AppendContinuations, "append-continuations", false, "Always extend the file when a stream grows")
	flags.BoolVar(&flagMain.Metrics, "metrics", false, "Print container metrics to stderr when the command completes")
}

func setup(cmd *cobra.Command, _ []string) {
	cfg = DefaultConfig()
	if flagMain.Config != "" {
		var err error
		cfg, err = LoadConfig(flagMain.Config)
		Check(err)
	}

	// Flags override the file
	flags := cmd.Flags()
	if flags.Changed("log-format") {
		cfg.Log.Format = flagMain.LogFormat
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = flagMain.LogLevel
	}
	if flags.Changed("mmap") {
		cfg.Container.MemoryMap = flagMain.MemoryMap
	}
	if flags.Changed("append-continuations") && flagMain.AppendContinuations {
		cfg.Container.Allocation = multifile.AppendContinuations.String()
	}
	Check(cfg.Validate())

	rules, err := logging.ParseRules(cfg.Log.Level)
	Check(err)
	handler, err := logging.NewHandler(cfg.Log.Format, cmd.ErrOrStderr(), rules)
	Check(err)
	slog.SetDefault(slog.New(handler))
}

func printMetrics(cmd *cobra.Command, _ []string) {
	if !flagMain.Metrics {
		return
	}

	families, err := prometheus.DefaultGatherer.Gather()
	Check(err)
	for _, mf := range families {
		if strings.HasPrefix(mf.GetName(), "multifile_") {
			_, err = expfmt.MetricFamilyToText(cmd.ErrOrStderr(), mf)
			Check(err)
		}
	}
}

func openContainer(path string) *multifile.Container {
	c, err := multifile.Open(path, cfg.Options()...)
	Checkf(err, "open %s", path)
	return c
}
