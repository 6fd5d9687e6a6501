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

// Package config holds engine-wide defaults (SPEC_FULL.md §4.11): the
// strict/non-strict and forceDMN11 evaluation toggles, the default DMN
// export version, locale/timezone for FEEL's ambient clock, and a
// concurrency cap for batch evaluation. Grounded on the teacher's
// loader/pack.go read-file-into-struct shape (toml.Unmarshal into a plain
// struct, no builder ceremony).
package config

import (
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
)

// Engine is the engine's static configuration, loaded once at process
// start.
type Engine struct {
	DefaultStrictMode        bool   `toml:"default_strict_mode"`
	DefaultForceDMN11        bool   `toml:"default_force_dmn11"`
	DefaultExportVersion     string `toml:"default_export_version"`
	Locale                   string `toml:"locale"`
	TimeZone                 string `toml:"time_zone"`
	MaxConcurrentEvaluations int    `toml:"max_concurrent_evaluations"`
}

// Default returns the engine's built-in defaults (spec §4.7's "strictMode
// (default true), forceDMN11 (default false)" plus SPEC_FULL.md's
// additions).
func Default() Engine {
	return Engine{
		DefaultStrictMode:        true,
		DefaultForceDMN11:        false,
		DefaultExportVersion:     "1.3",
		Locale:                  "en-US",
		TimeZone:                 "UTC",
		MaxConcurrentEvaluations: 8,
	}
}

// Load reads a TOML config file at path, falling back to Default() for any
// field the file omits; a key the file sets replaces the default, even
// when its value is a zero value such as false.
func Load(path string) (Engine, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return Engine{}, errors.Wrapf(err, "config: read %s", path)
	}
	if err := toml.Unmarshal(b, &cfg); err != nil {
		return Engine{}, errors.Wrapf(err, "config: parse %s", path)
	}
	return cfg, nil
}
