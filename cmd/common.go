/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/valpere/deeplserver/internal/detector"
	"github.com/valpere/deeplserver/internal/orchestrator"
	"github.com/valpere/deeplserver/internal/store"
	"github.com/valpere/deeplserver/internal/translator"
)

// Config is the merged view of flags, DEEPLSERVER_* variables and the
// config file.
type Config struct {
	Host        string        `mapstructure:"host"`
	Port        int           `mapstructure:"port"`
	Timeout     time.Duration `mapstructure:"timeout"`
	BrowserPath string        `mapstructure:"browser"`
	Headless    bool          `mapstructure:"headless"`
	NoFallback  bool          `mapstructure:"no_fallback"`
	DBPath      string        `mapstructure:"db"`
	LogLevel    string        `mapstructure:"log_level"`
}

func loadConfig() (Config, error) {
	cfg := Config{
		Timeout:  orchestrator.DefaultTimeout,
		Headless: true,
		LogLevel: "info",
	}
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to read configuration: %w", err)
	}
	return cfg, nil
}

// newLogger returns a slog logger backed by charmbracelet/log on stderr.
func newLogger(level string) *slog.Logger {
	handler := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
		Prefix:          "deeplserver",
	})
	lvl, err := log.ParseLevel(level)
	if err != nil {
		handler.Warn("unknown log level, using info", "level", level)
		lvl = log.InfoLevel
	}
	handler.SetLevel(lvl)
	return slog.New(handler)
}

// buildOrchestrator wires the DeepL service, the mock fallback and, when a
// database path is configured, the translation memory. The returned close
// function releases the memory.
func buildOrchestrator(cfg Config, logger *slog.Logger) (*orchestrator.Orchestrator, func() error, error) {
	closeFn := func() error { return nil }

	orchCfg := orchestrator.OrchestratorConfig{
		Timeout:  cfg.Timeout,
		Detector: detector.New(),
		Logger:   logger,
	}
	if !cfg.NoFallback {
		orchCfg.Fallback = translator.NewMockService()
	}

	if cfg.DBPath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
			return nil, nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		db, err := store.New(cfg.DBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open database: %w", err)
		}
		orchCfg.Memory = db
		closeFn = db.Close
		logger.Debug("translation memory enabled", "db", cfg.DBPath)
	}

	svc := translator.NewDeepLService(cfg.BrowserPath, cfg.Headless)
	return orchestrator.New(svc, orchCfg), closeFn, nil
}

// addServiceFlags registers the flags shared by serve and translate.
func addServiceFlags(cmd *cobra.Command) {
	cmd.Flags().Duration("timeout", orchestrator.DefaultTimeout, "Timeout for a single DeepL translation")
	cmd.Flags().String("browser", "", "Path to a Chromium-family browser (default: search PATH)")
	cmd.Flags().Bool("headless", true, "Run the browser headless")
	cmd.Flags().Bool("no-fallback", false, "Fail instead of answering from the mock table when no browser is available")
	cmd.Flags().String("db", "", "Translation memory database path (empty disables the memory)")
}
