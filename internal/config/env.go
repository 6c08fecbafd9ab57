// SPDX-License-Identifier: AGPL-3.0
// Copyright 2025 Kadir Pekel
//
// Licensed under the GNU Affero General Public License v3.0 (AGPL-3.0) (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.gnu.org/licenses/agpl-3.0.en.html
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config resolves process configuration from the environment
// (spec §6.4) plus an optional bootstrap YAML file for agent presets and
// budgets. It follows the teacher's ${VAR:-default} / ${VAR} / $VAR
// expansion convention loaded through godotenv.
package config

import (
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

var envPatterns = struct {
	withDefault *regexp.Regexp
	braced      *regexp.Regexp
	simple      *regexp.Regexp
}{
	withDefault: regexp.MustCompile(`\$\{([A-Z_][A-Z0-9_]*):-(.*?)\}`),
	braced:      regexp.MustCompile(`\$\{([A-Z_][A-Z0-9_]*)\}`),
	simple:      regexp.MustCompile(`\$([A-Z_][A-Z0-9_]*)`),
}

// ExpandEnvVars expands ${VAR:-default}, ${VAR}, and $VAR references in s.
func ExpandEnvVars(s string) string {
	if !strings.Contains(s, "$") {
		return s
	}

	s = envPatterns.withDefault.ReplaceAllStringFunc(s, func(match string) string {
		parts := envPatterns.withDefault.FindStringSubmatch(match)
		if len(parts) != 3 {
			return match
		}
		if val := os.Getenv(parts[1]); val != "" {
			return val
		}
		return parts[2]
	})

	s = envPatterns.braced.ReplaceAllStringFunc(s, func(match string) string {
		parts := envPatterns.braced.FindStringSubmatch(match)
		if len(parts) != 2 {
			return match
		}
		return os.Getenv(parts[1])
	})

	s = envPatterns.simple.ReplaceAllStringFunc(s, func(match string) string {
		parts := envPatterns.simple.FindStringSubmatch(match)
		if len(parts) != 2 {
			return match
		}
		return os.Getenv(parts[1])
	})

	return s
}

// LoadDotenv loads .env into the process environment if present. Missing
// files are not an error — the environment may already carry everything.
func LoadDotenv(path string) {
	_ = godotenv.Load(path)
}

func envFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// SamplingDefaults holds the §6.4 environment-driven sampling defaults.
type SamplingDefaults struct {
	Model                 string
	Temperature           float64
	MaxTokens             int
	TopP                  float64
	StructuredOutputModel string
}

// LoadSamplingDefaults reads DEFAULT_MODEL, DEFAULT_TEMPERATURE,
// DEFAULT_MAX_TOKENS, DEFAULT_TOP_P, and DEFAULT_STRUCTURED_OUTPUT_MODEL.
func LoadSamplingDefaults() SamplingDefaults {
	return SamplingDefaults{
		Model:                 envString("DEFAULT_MODEL", "default"),
		Temperature:           envFloat("DEFAULT_TEMPERATURE", 0.7),
		MaxTokens:             envInt("DEFAULT_MAX_TOKENS", 1024),
		TopP:                  envFloat("DEFAULT_TOP_P", 1.0),
		StructuredOutputModel: envString("DEFAULT_STRUCTURED_OUTPUT_MODEL", ""),
	}
}

// Ambient holds the ambient environment settings this expansion adds on
// top of spec §6.4's sampling defaults.
type Ambient struct {
	SkillsStorageDir    string
	RateLimitBackend    string // "memory" | "sql"
	RateLimitSQLDSN     string
	RateLimitSQLDriver  string // "postgres" | "mysql" | "sqlite3"
	LogLevel            string
	MetricsAddr         string
	BootstrapConfigPath string
}

// LoadAmbient reads the ambient environment variables.
func LoadAmbient() Ambient {
	return Ambient{
		SkillsStorageDir:    envString("SKILLS_STORAGE_DIR", "./.agentcore/skills"),
		RateLimitBackend:    envString("RATE_LIMIT_BACKEND", "memory"),
		RateLimitSQLDSN:     envString("RATE_LIMIT_SQL_DSN", ""),
		RateLimitSQLDriver:  envString("RATE_LIMIT_SQL_DIALECT", "sqlite3"),
		LogLevel:            envString("LOG_LEVEL", "info"),
		MetricsAddr:         envString("METRICS_ADDR", ":9090"),
		BootstrapConfigPath: envString("BOOTSTRAP_CONFIG", ""),
	}
}
