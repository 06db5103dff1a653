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

package serve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/boring91/google-ssvc/pkg/config"
	"github.com/boring91/google-ssvc/pkg/evaluator"
	"github.com/boring91/google-ssvc/pkg/llm"
	"github.com/boring91/google-ssvc/pkg/llm/llmfactory"
	"github.com/boring91/google-ssvc/pkg/server"
	"github.com/boring91/google-ssvc/pkg/store"
	"github.com/boring91/google-ssvc/pkg/task"
	"github.com/spf13/cobra"
)

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:                   "serve",
		Short:                 "Run the SSVC evaluation HTTP service",
		Example:               Example(),
		Args:                  cobra.NoArgs,
		RunE:                  action,
		DisableFlagsInUseLine: true,
	}

	flags := cmd.Flags()
	flags.String("config-file", "", "Path to config.yaml file")
	flags.String("addr", "", "Listen address, overrides the config file")
	flags.String("llm", "", fmt.Sprintf("LLM backend (%v), overrides the config file", llm.Names))

	return cmd
}

func Example() string {
	return "ssvc serve --config-file config.yaml"
}

func action(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	flags := cmd.Flags()

	configPath, _ := flags.GetString("config-file")
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config file %q: %w", configPath, err)
	}
	if addr, _ := flags.GetString("addr"); addr != "" {
		cfg.Addr = addr
	}
	if name, _ := flags.GetString("llm"); name != "" {
		cfg.LLM = name
	}

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

	tasks := task.NewService(st, eval)
	if err := tasks.Resume(ctx); err != nil {
		return fmt.Errorf("resuming unfinished tasks: %w", err)
	}
	go tasks.Run(ctx)

	srv := server.New(eval, tasks, server.Opts{
		CORSOrigins:       cfg.CORSOrigins,
		EvaluationTimeout: time.Duration(cfg.EvaluationTimeout),
	})
	httpServer := &http.Server{Addr: cfg.Addr, Handler: srv.Router()}

	go func() {
		<-ctx.Done()
		slog.Info("Shutting down.")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("Shutdown failed.", "error", err)
		}
	}()

	slog.InfoContext(ctx, "Listening.", "addr", cfg.Addr, "llm", provider)
	if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
