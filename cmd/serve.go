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
	"context"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/valpere/deeplserver/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the translation HTTP server",
	Long: `Run the HTTP server.

Endpoints:
  GET /health
  GET /api/translate?engine=deepl&from=en&to=ru&text=hello

Every option can also be set in the config file or through
DEEPLSERVER_<OPTION> environment variables, e.g. DEEPLSERVER_PORT=8080.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := newLogger(cfg.LogLevel)

		orch, closeMemory, err := buildOrchestrator(cfg, logger)
		if err != nil {
			return err
		}
		defer closeMemory()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
		return server.New(addr, orch, logger).Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("host", server.DefaultHost, "Address to bind")
	serveCmd.Flags().Int("port", server.DefaultPort, "Port to listen on")
	addServiceFlags(serveCmd)
}
