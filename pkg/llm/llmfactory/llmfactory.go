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

// This implementation is adapted from github.com/AkihiroSuda/vexllm/pkg/llm/llmfactory

package llmfactory

import (
	"context"
	"fmt"
	"os"

	"github.com/boring91/google-ssvc/pkg/llm"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/openai"
)

// New instantiates the model client for a provider. The client is built once
// at startup and shared by every evaluator.
func New(ctx context.Context, provider llm.Provider) (llms.Model, error) {
	switch provider {
	case llm.OpenAI:
		if model := os.Getenv("OPENAI_MODEL"); model != "" {
			return openai.New(openai.WithModel(model))
		}
		return openai.New()
	case llm.Gemini:
		if model := os.Getenv("GOOGLE_MODEL"); model != "" {
			return googleai.New(ctx, googleai.WithDefaultModel(model))
		}
		return googleai.New(ctx)
	default:
		return nil, fmt.Errorf("unknown LLM provider %q, make sure to use one of %v", provider, llm.Names)
	}
}
