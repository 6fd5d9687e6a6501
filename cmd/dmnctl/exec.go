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

package dmnctl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/binaek/cling"

	"github.com/dmnflow/dmnflow/executor"
)

func addExecCmd(cli *cling.CLI) {
	cli.WithCommand(
		cling.NewCommand("exec", execCmd).
			WithArgument(cling.NewStringCmdInput("file").
				WithDescription("DMN XML file to execute").
				AsArgument(),
			).
			WithFlag(cling.
				NewStringCmdInput("input").
				WithDefault("{}").
				WithDescription("JSON-encoded input data").
				AsFlag(),
			).
			WithFlag(cling.
				NewStringCmdInput("output").
				WithDefault("table").
				WithValidator(cling.NewEnumValidator("table", "json")).
				WithDescription("Output format to use. One of: table, json").
				AsFlag(),
			).
			WithFlag(cling.
				NewStringCmdInput("strict").
				WithDefault("true").
				WithDescription("Strict-mode policy-violation handling (true/false)").
				AsFlag(),
			),
	)
}

type execCmdArgs struct {
	File   string `cling-name:"file"`
	Input  string `cling-name:"input"`
	Output string `cling-name:"output"`
	Strict string `cling-name:"strict"`
}

func execCmd(ctx context.Context, args []string) error {
	input := execCmdArgs{}
	if err := cling.Hydrate(ctx, args, &input); err != nil {
		return err
	}

	var inputData map[string]any
	decoder := json.NewDecoder(bytes.NewReader([]byte(input.Input)))
	if err := decoder.Decode(&inputData); err != nil {
		return fmt.Errorf("parsing --input: %w", err)
	}

	engine, err := loadEngine(ctx, input.File)
	if err != nil {
		return err
	}

	opts := executor.DefaultOptions()
	opts.StrictMode = input.Strict != "false"

	result, execErr := engine.Executor.Execute(ctx, executor.ExecuteRequest{
		DecisionID: engine.Decision.ID,
		InputData:  inputData,
	}, opts)
	if execErr != nil {
		return execErr
	}

	if input.Output == "json" {
		return printJSON(result)
	}
	printResultTable(result)
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printResultTable(r *executor.DecisionResult) {
	fmt.Printf("Decision:    %s (v%d)\n", r.DecisionKey, r.DecisionVersion)
	fmt.Printf("Status:      %s\n", r.Status)
	fmt.Printf("Matched:     %d rule(s)\n", r.MatchedCount)
	for _, id := range r.MatchedRules {
		fmt.Printf("  - %s\n", id)
	}
	fmt.Printf("Output:      %v\n", r.OutputResult)
	fmt.Printf("Duration:    %dms\n", r.ExecutionTimeMs)
}
