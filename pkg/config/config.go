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

// Package config loads the service configuration from an optional YAML file,
// with environment variables filling in the credentials.
//
// Example YAML:
//
//	addr: ":8080"
//	db_path: "ssvc.db"
//	llm: "gemini"
//	cors_origins:
//	  - "http://localhost:3000"
//	evaluation_timeout: "10m"
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/boring91/google-ssvc/pkg/envutil"
	"go.yaml.in/yaml/v3"
)

// Duration is a time.Duration that unmarshals from YAML strings like "90s".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parsing duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

type Config struct {
	// Addr is the HTTP listen address.
	Addr string `yaml:"addr"`
	// DBPath is the SQLite database file.
	DBPath string `yaml:"db_path"`
	// LLM selects the judgment provider, "gemini" or "openai".
	LLM string `yaml:"llm"`
	// CORSOrigins lists the origins allowed to call the API from a browser.
	// Empty means same-origin only.
	CORSOrigins []string `yaml:"cors_origins"`
	// EvaluationTimeout bounds a single composite evaluation, LLM calls
	// included.
	EvaluationTimeout Duration `yaml:"evaluation_timeout"`

	// Credentials. These are normally taken from the environment rather than
	// the file; values in the file win when both are set.
	GitHubToken   string `yaml:"github_token"`
	NISTAPIKey    string `yaml:"nist_api_key"`
	VulnersAPIKey string `yaml:"vulners_api_key"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Addr:              ":8080",
		DBPath:            "ssvc.db",
		LLM:               "gemini",
		EvaluationTimeout: Duration(15 * time.Minute),
	}
}

// Load reads the configuration at path, or the defaults when path is empty.
// Credentials not set in the file fall back to $GITHUB_PAT, $NIST_API_KEY and
// $VULNERS_API_KEY.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	if cfg.GitHubToken == "" {
		cfg.GitHubToken = envutil.String("GITHUB_PAT", "")
	}
	if cfg.NISTAPIKey == "" {
		cfg.NISTAPIKey = envutil.String("NIST_API_KEY", "")
	}
	if cfg.VulnersAPIKey == "" {
		cfg.VulnersAPIKey = envutil.String("VULNERS_API_KEY", "")
	}

	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "ssvc.db"
	}
	if cfg.EvaluationTimeout <= 0 {
		cfg.EvaluationTimeout = Duration(15 * time.Minute)
	}

	return cfg, nil
}
