// Copyright 2026 The dmnflow Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package dmnctl is the engine's command-line shell: validate, exec, and
// export subcommands over a decision file on disk, backed by the
// in-memory reference store. Grounded on the teacher's cmd/cmd.go
// (cling.CLI assembly, WithPreRun/WithPostRun logging hooks).
package dmnctl

import (
	"context"
	"log/slog"

	"github.com/binaek/cling"
)

// Setup builds the dmnctl CLI.
func Setup(ctx context.Context, version string) *cling.CLI {
	cli := cling.NewCLI("dmnctl", version).
		WithDescription("dmnctl loads, validates, executes, and exports DMN decision tables").
		WithPreRun(func(ctx context.Context, args []string) error {
			slog.DebugContext(ctx, "==> starting dmnctl", slog.String("version", version))
			return nil
		}).
		WithPostRun(func(ctx context.Context, args []string) error {
			slog.DebugContext(ctx, "==> exiting dmnctl")
			return nil
		})

	addValidateCmd(cli)
	addExecCmd(cli)
	addExportCmd(cli)

	return cli
}

// Execute runs the CLI against args.
func Execute(ctx context.Context, cli *cling.CLI, args []string) error {
	if cli == nil {
		panic("CLI cannot be NIL")
	}
	return cli.Run(ctx, args)
}
