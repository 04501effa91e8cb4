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
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/valpere/deeplserver/internal"
)

var (
	inputFile  string
	sourceLang string
	targetLang string
	engineName string
)

var translateCmd = &cobra.Command{
	Use:   "translate [text...]",
	Short: "Translate text once and print the JSON result",
	Long: `Translate text without starting the server and print the same JSON
payload /api/translate returns.

The text is taken from the arguments, from --input, or from stdin
when neither is given ("-" reads stdin explicitly).`,
	Example: `  deeplserver translate --from en --to ru hello world
  echo "hello" | deeplserver translate --from auto --to ja`,
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readText(cmd.InOrStdin(), args)
		if err != nil {
			return err
		}
		if strings.TrimSpace(text) == "" {
			return fmt.Errorf("nothing to translate")
		}

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

		result, err := orch.Translate(context.Background(), internal.TranslationRequest{
			Engine:     internal.ParseEngine(engineName),
			SourceLang: sourceLang,
			TargetLang: targetLang,
			Text:       text,
		})
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func readText(stdin io.Reader, args []string) (string, error) {
	switch {
	case len(args) > 0 && !(len(args) == 1 && args[0] == "-"):
		return strings.Join(args, " "), nil
	case inputFile != "":
		data, err := os.ReadFile(inputFile)
		if err != nil {
			return "", fmt.Errorf("failed to read input file: %w", err)
		}
		return strings.TrimRight(string(data), "\r\n"), nil
	default:
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return strings.TrimRight(string(data), "\r\n"), nil
	}
}

func init() {
	rootCmd.AddCommand(translateCmd)

	translateCmd.Flags().StringVarP(&inputFile, "input", "i", "", "Input file to translate")
	translateCmd.Flags().StringVarP(&sourceLang, "from", "f", "auto", "Source language code (auto to detect)")
	translateCmd.Flags().StringVarP(&targetLang, "to", "t", "", "Target language code (required)")
	translateCmd.Flags().StringVar(&engineName, "engine", string(internal.EngineDeepL), "Translation engine (only deepl is supported)")
	addServiceFlags(translateCmd)

	translateCmd.MarkFlagRequired("to")
}
