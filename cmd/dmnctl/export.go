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
	"os"

	"github.com/binaek/cling"

	"github.com/dmnflow/dmnflow/dmnxml"
)

func addExportCmd(cli *cling.CLI) {
	cli.WithCommand(
		cling.NewCommand("export", exportCmd).
			WithArgument(cling.NewStringCmdInput("file").
				WithDescription("DMN XML file to re-export").
				AsArgument(),
			).
			WithFlag(cling.
				NewStringCmdInput("out").
				WithDefault("").
				WithDescription("Output file (defaults to stdout)").
				AsFlag(),
			),
	)
}

type exportCmdArgs struct {
	File string `cling-name:"file"`
	Out  string `cling-name:"out"`
}

func exportCmd(ctx context.Context, args []string) error {
	input := exportCmdArgs{}
	if err := cling.Hydrate(ctx, args, &input); err != nil {
		return err
	}

	engine, err := loadEngine(ctx, input.File)
	if err != nil {
		return err
	}

	xml, err := dmnxml.Emit(engine.Decision, dmnxml.DefaultEmitOptions())
	if err != nil {
		return err
	}

	if input.Out == "" {
		fmt.Print(string(xml))
		return nil
	}
	return os.WriteFile(input.Out, xml, 0o644)
}
