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

package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/agentcore/core/internal/agentregistry"
	"github.com/agentcore/core/internal/budget"
	"github.com/agentcore/core/internal/config"
	"github.com/agentcore/core/internal/executor"
	"github.com/agentcore/core/internal/metrics"
	"github.com/agentcore/core/internal/protocol"
	"github.com/agentcore/core/internal/sampler"
	"github.com/agentcore/core/internal/skills"
	"github.com/agentcore/core/internal/team"
	"github.com/agentcore/core/internal/toolkit"
	"github.com/agentcore/core/internal/usage"
	"github.com/agentcore/core/internal/waithandle"
)

// ServeCmd starts the MCP stdio server, wiring every internal
// collaborator from the ambient environment (spec §6.4), the teacher's
// cmd/hector ServeCmd shape generalized from an A2A HTTP server to an
// MCP stdio one.
type ServeCmd struct {
	MetricsAddr string `name:"metrics-addr" help:"Address to serve Prometheus /metrics on; overrides METRICS_ADDR (default :9090)."`
}

func (c *ServeCmd) Run(cli *CLI) error {
	ctx, cancel := withSignals()
	defer cancel()

	config.LoadDotenv(".env")
	ambient := config.LoadAmbient()
	defaults := config.LoadSamplingDefaults()

	if c.MetricsAddr != "" {
		ambient.MetricsAddr = c.MetricsAddr
	}

	agents := agentregistry.New()

	skillsSvc, err := skills.New(ambient.SkillsStorageDir, toolkit.NewStaticRegistry(nil))
	if err != nil {
		return fmt.Errorf("agentcore: opening skills service: %w", err)
	}
	if err := skillsSvc.Watch(ctx); err != nil {
		return fmt.Errorf("agentcore: watching skills storage dir: %w", err)
	}

	store, err := newBudgetStore(ambient)
	if err != nil {
		return fmt.Errorf("agentcore: opening budget store: %w", err)
	}
	budgetMgr := budget.NewManager(store, sampler.DefaultCost)

	bootstrap, err := config.LoadBootstrap(ambient.BootstrapConfigPath)
	if err != nil {
		return fmt.Errorf("agentcore: loading bootstrap config: %w", err)
	}
	for _, a := range bootstrap.Agents {
		agents.Configure(a.ToAgentConfig())
	}
	for _, b := range bootstrap.Budgets {
		budgetMgr.SetBudget(b.ToAgentBudget())
	}

	usageLog := usage.NewLog()
	m := metrics.New()
	handles := waithandle.New()

	// The production sampling facility is an external collaborator (spec
	// §1, §4.5) injected by the host; EchoSampler stands in until one is
	// wired from outside this module.
	smp := &sampler.EchoSampler{}

	exec := executor.New(smp, skillsSvc, budgetMgr, usageLog, m)
	orchestrator := team.New(agents, smp, defaults, m)

	frontend := protocol.New(protocol.LoggingObserver{})
	protocol.RegisterAll(frontend, &protocol.Core{
		Agents:   agents,
		Skills:   skillsSvc,
		Executor: exec,
		Team:     orchestrator,
		Handles:  handles,
		Defaults: defaults,
	})

	mcpServer := protocol.NewMCPServer("agentcore", "0.1.0-alpha", frontend)

	if ambient.MetricsAddr != "" {
		go func() {
			if err := m.Serve(ctx, ambient.MetricsAddr); err != nil {
				slog.Error("metrics server stopped", "error", err)
			}
		}()
		slog.Info("metrics listening", "addr", ambient.MetricsAddr)
	}

	slog.Info("agentcore serving MCP over stdio")
	return mcpServer.Serve(ctx, os.Stdin, os.Stdout)
}

// newBudgetStore picks the backend named by RATE_LIMIT_BACKEND: an
// in-memory store by default, or a database/sql-backed one when "sql"
// is requested (spec §6.4's ambient RateLimitBackend switch).
func newBudgetStore(ambient config.Ambient) (budget.Store, error) {
	if ambient.RateLimitBackend != "sql" {
		return budget.NewMemoryStore(), nil
	}
	if ambient.RateLimitSQLDSN == "" {
		return nil, fmt.Errorf("RATE_LIMIT_SQL_DSN is required when RATE_LIMIT_BACKEND=sql")
	}
	db, err := sql.Open(ambient.RateLimitSQLDriver, ambient.RateLimitSQLDSN)
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %w", ambient.RateLimitSQLDriver, err)
	}
	return budget.NewSQLStore(db, ambient.RateLimitSQLDriver)
}
