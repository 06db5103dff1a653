// Copyright 2025 boring91
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package evaluate

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/boring91/google-ssvc/pkg/config"
	"github.com/boring91/google-ssvc/pkg/evaluator"
	"github.com/boring91/google-ssvc/pkg/llm"
	"github.com/boring91/google-ssvc/pkg/llm/llmfactory"
	"github.com/boring91/google-ssvc/pkg/store"
	"github.com/spf13/cobra"
)

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:                   "evaluate CVE_ID [CVE_ID...]",
		Short:                 "Evaluate vulnerabilities and print the SSVC results",
		Example:               Example(),
		Args:                  cobra.MinimumNArgs(1),
		RunE:                  action,
		DisableFlagsInUseLine: true,
	}

	flags := cmd.Flags()
	flags.String("config-file", "", "Path to config.yaml file")
	flags.String("llm", "", fmt.Sprintf("LLM backend (%v), overrides the config file", llm.Names))
	flags.Bool("reevaluate", false, "Discard cached results and evaluate from scratch")

	return cmd
}

func Example() string {
	return "ssvc evaluate CVE-2024-3094"
}

func action(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	flags := cmd.Flags()

	configPath, _ := flags.GetString("config-file")
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config file %q: %w", configPath, err)
	}
	if name, _ := flags.GetString("llm"); name != "" {
		cfg.LLM = name
	}
	reevaluate, _ := flags.GetBool("reevaluate")

	provider, err := llm.Parse(cfg.LLM)
	if err != nil {
		return err
	}
	model, err := llmfactory.New(ctx, provider)
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database %q: %w", cfg.DBPath, err)
	}

	eval, err := evaluator.New(st, provider, model, evaluator.Opts{
		GitHubToken:   cfg.GitHubToken,
		NISTAPIKey:    cfg.NISTAPIKey,
		VulnersAPIKey: cfg.VulnersAPIKey,
	})
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")

	var failed int
	for _, cveID := range args {
		result, err := eval.Evaluate(ctx, cveID, reevaluate)
		if err != nil {
			slog.ErrorContext(ctx, "Evaluation failed.", "cveId", cveID, "error", err)
			failed++
			continue
		}
		if result == nil {
			slog.WarnContext(ctx, "Could not evaluate the cve.", "cveId", cveID)
			failed++
			continue
		}
		if err := encoder.Encode(map[string]any{"cveId": cveID, "result": result}); err != nil {
			return err
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d evaluations failed", failed, len(args))
	}
	return nil
}
