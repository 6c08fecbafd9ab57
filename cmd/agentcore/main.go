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

// Command agentcore starts the tool-protocol server: it serves an MCP
// stdio endpoint backed by the agent executor, team orchestrator, and
// skills service, and exposes Prometheus metrics on the side.
//
// Usage:
//
//	agentcore serve
//	agentcore version
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	core "github.com/agentcore/core"
	"github.com/agentcore/core/internal/logger"
)

// CLI defines the command-line interface, grounded on the teacher's
// cmd/hector CLI struct (kong subcommands, a shared --log-level flag).
type CLI struct {
	Version VersionCmd `cmd:"" help:"Show version information."`
	Serve   ServeCmd   `cmd:"" help:"Start the tool-protocol server."`

	LogLevel string `help:"Log level (debug, info, warn, error)." default:"info" env:"LOG_LEVEL"`
}

// VersionCmd prints the module's version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Println(core.GetVersion().String())
	return nil
}

func main() {
	cli := CLI{}
	kctx := kong.Parse(&cli,
		kong.Name("agentcore"),
		kong.Description("Agent orchestration core - tool protocol server"),
		kong.UsageOnError(),
	)

	logger.Init(logger.ParseLevel(cli.LogLevel), os.Stderr)

	err := kctx.Run(&cli)
	kctx.FatalIfErrorf(err)
}

// withSignals returns a context canceled on SIGINT/SIGTERM, the
// teacher's ServeCmd.Run shutdown-signal pattern.
func withSignals() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		slog.Info("shutting down")
		cancel()
	}()
	return ctx, cancel
}
