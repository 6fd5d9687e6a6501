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

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if !cfg.DefaultStrictMode {
		t.Error("expected DefaultStrictMode to default to true")
	}
	if cfg.DefaultForceDMN11 {
		t.Error("expected DefaultForceDMN11 to default to false")
	}
	if cfg.MaxConcurrentEvaluations != 8 {
		t.Errorf("MaxConcurrentEvaluations = %d, want 8", cfg.MaxConcurrentEvaluations)
	}
	if cfg.Locale != "en-US" || cfg.TimeZone != "UTC" {
		t.Errorf("Locale/TimeZone = %q/%q", cfg.Locale, cfg.TimeZone)
	}
}

func TestLoadMergesOntoDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "engine.toml")
	if err := os.WriteFile(path, []byte("default_strict_mode = false\nmax_concurrent_evaluations = 32\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DefaultStrictMode {
		t.Error("expected the file's false value to override the default")
	}
	if cfg.MaxConcurrentEvaluations != 32 {
		t.Errorf("MaxConcurrentEvaluations = %d, want 32", cfg.MaxConcurrentEvaluations)
	}
	if cfg.Locale != "en-US" {
		t.Errorf("Locale = %q, want the default to survive an omitted field", cfg.Locale)
	}
	if cfg.DefaultExportVersion != "1.3" {
		t.Errorf("DefaultExportVersion = %q, want the default to survive an omitted field", cfg.DefaultExportVersion)
	}
}

func TestLoadMissingFileErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("expected an error reading a nonexistent config file")
	}
}
