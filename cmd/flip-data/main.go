// Copyright 2025 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"

	"github.com/gorse-io/flip/base/log"
	"github.com/gorse-io/flip/cmd/version"
	"github.com/gorse-io/flip/config"
	"github.com/gorse-io/flip/pipeline"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCommand = &cobra.Command{
	Use:   "flip-data",
	Short: "Prepare recommendation training data with flippable labels.",
	Run: func(cmd *cobra.Command, args []string) {
		// Show version
		if showVersion, _ := cmd.PersistentFlags().GetBool("version"); showVersion {
			fmt.Println(version.BuildInfo())
			return
		}
		// setup logger
		debug, _ := cmd.PersistentFlags().GetBool("debug")
		log.SetLogger(cmd.PersistentFlags(), debug)
		defer func() { _ = log.Logger().Sync() }()

		configPath, _ := cmd.PersistentFlags().GetString("config")
		log.Logger().Info("load config", zap.String("config", configPath))
		conf, err := config.ReadConfig(configPath)
		if err != nil {
			log.Logger().Fatal("failed to load config", zap.Error(err))
		}
		if err = applyFlags(cmd.PersistentFlags(), conf); err != nil {
			log.Logger().Fatal("invalid config", zap.Error(err))
		}

		// Serve metrics
		if port, _ := cmd.PersistentFlags().GetInt("metrics-port"); port > 0 {
			go func() {
				mux := http.NewServeMux()
				mux.Handle("/metrics", promhttp.Handler())
				addr := fmt.Sprintf(":%d", port)
				log.Logger().Info("serve metrics", zap.String("address", addr))
				if err := http.ListenAndServe(addr, mux); err != nil {
					log.Logger().Error("failed to serve metrics", zap.Error(err))
				}
			}()
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		opts := pipeline.Options{Table: os.Stdout}
		if quiet, _ := cmd.PersistentFlags().GetBool("quiet"); !quiet {
			opts.Progress = os.Stderr
		}
		reports, err := pipeline.Run(ctx, conf, opts)
		if err != nil {
			log.Logger().Fatal("failed to prepare samples", zap.Error(err))
		}
		for _, r := range reports {
			if r.Path != "" {
				log.Logger().Info("export labels", zap.Int("epoch", r.Epoch), zap.String("path", r.Path))
			}
		}
		log.Logger().Info("prepare samples successfully", zap.Int("epochs", len(reports)))
	},
}

var versionCommand = &cobra.Command{
	Use:   "version",
	Short: "Show build information.",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.BuildInfo())
	},
}

func init() {
	log.AddFlags(rootCommand.PersistentFlags())
	rootCommand.PersistentFlags().Bool("debug", false, "use debug log mode")
	rootCommand.PersistentFlags().StringP("config", "c", "", "configuration file path")
	rootCommand.PersistentFlags().BoolP("version", "v", false, "flip-data version")
	rootCommand.PersistentFlags().BoolP("quiet", "q", false, "hide progress bar")
	rootCommand.PersistentFlags().Int("metrics-port", 0, "port of prometheus metrics (0 to disable)")
	addFlags(rootCommand.PersistentFlags())
	rootCommand.AddCommand(versionCommand)
}

func main() {
	if err := rootCommand.Execute(); err != nil {
		log.Logger().Fatal("failed to execute", zap.Error(err))
	}
}
