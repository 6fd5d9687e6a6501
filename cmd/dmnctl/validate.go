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
	"context"
	"fmt"

	"github.com/binaek/cling"
)

func addValidateCmd(cli *cling.CLI) {
	cli.WithCommand(
		cling.NewCommand("validate", validateCmd).
			WithArgument(cling.NewStringCmdInput("file").
				WithDescription("DMN XML file to validate").
				AsArgument(),
			),
	)
}

type validateCmdArgs struct {
	File string `cling-name:"file"`
}

func validateCmd(ctx context.Context, args []string) error {
	input := validateCmdArgs{}
	if err := cling.Hydrate(ctx, args, &input); err != nil {
		return err
	}

	engine, err := loadEngine(ctx, input.File)
	if err != nil {
		return err
	}
	for _, w := range engine.Warnings {
		fmt.Printf("warning: %s\n", w)
	}

	result, err := engine.Executor.Validate(ctx, engine.Decision.ID)
	if err != nil {
		return err
	}

	if result.Valid {
		fmt.Println("valid: true")
	} else {
		fmt.Println("valid: false")
	}
	for _, e := range result.Errors {
		fmt.Printf("  error: %s\n", e)
	}
	for _, w := range result.Warnings {
		fmt.Printf("  warning: %s\n", w)
	}
	if !result.Valid {
		return fmt.Errorf("decision %s failed validation", engine.Decision.ID)
	}
	return nil
}
