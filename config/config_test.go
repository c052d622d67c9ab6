package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap/zapcore"

	"github.com/wippyai/componentize-go/errors"
)

func ptr[T any](v T) *T { return &v }

func TestParse(t *testing.T) {
	doc := `
wit_paths:
  - wit
  - ../shared
world: app
features: ["a, b", c]
all_features: true
go: /usr/local/go/bin/go
wasm_tools: /opt/wasm-tools
log_level: debug
validate: false
`
	c, err := Parse("componentize.yaml", []byte(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := &Config{
		WitPaths:    []string{"wit", "../shared"},
		World:       "app",
		Features:    []string{"a, b", "c"},
		AllFeatures: true,
		Go:          "/usr/local/go/bin/go",
		WasmTools:   "/opt/wasm-tools",
		LogLevel:    "debug",
		Validate:    ptr(false),
	}
	if diff := cmp.Diff(want, c); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
	if c.ValidateModules() {
		t.Error("validate: false should disable validation")
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		kind errors.Kind
	}{
		{"unknown key", "wrld: app\n", errors.KindParse},
		{"wrong type", "wit_paths: 3\n", errors.KindParse},
		{"bad level", "log_level: loud\n", errors.KindArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("c.yaml", []byte(tt.doc))
			if errors.KindOf(err) != tt.kind {
				t.Fatalf("err = %v, want kind %s", err, tt.kind)
			}
			var e *errors.Error
			if ee, ok := err.(*errors.Error); ok {
				e = ee
			}
			if e == nil || e.Path != "c.yaml" || e.Phase != errors.PhaseConfig {
				t.Errorf("err = %+v", e)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, DefaultFile)

	c, err := Load(missing, false)
	if err != nil {
		t.Fatalf("optional missing file: %v", err)
	}
	if diff := cmp.Diff(&Config{}, c); diff != "" {
		t.Errorf("expected empty config:\n%s", diff)
	}
	if _, err := Load(missing, true); errors.KindOf(err) != errors.KindIO {
		t.Errorf("required missing file: %v", err)
	}

	if err := os.WriteFile(missing, []byte("world: w\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err = Load(missing, true)
	if err != nil || c.World != "w" {
		t.Fatalf("Load = %+v, %v", c, err)
	}
}

func TestWith(t *testing.T) {
	base := Config{
		WitPaths: []string{"wit"},
		World:    "file-world",
		Features: []string{"f"},
		Go:       "go-from-file",
	}
	got := base.With(Overrides{
		World:       ptr("flag-world"),
		WitPaths:    []string{"a", "b"},
		AllFeatures: ptr(true),
		Validate:    ptr(false),
	})
	want := Config{
		WitPaths:    []string{"a", "b"},
		World:       "flag-world",
		Features:    []string{"f"},
		Go:          "go-from-file",
		AllFeatures: true,
		Validate:    ptr(false),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("With mismatch (-want +got):\n%s", diff)
	}
	if base.World != "file-world" {
		t.Error("With modified the receiver")
	}
}

func TestWasmToolsPath(t *testing.T) {
	env := func(m map[string]string) func(string) (string, bool) {
		return func(k string) (string, bool) {
			v, ok := m[k]
			return v, ok
		}
	}
	tests := []struct {
		name string
		cfg  Config
		env  map[string]string
		want string
	}{
		{"default", Config{}, nil, "wasm-tools"},
		{"env", Config{}, map[string]string{EnvWasmTools: "/env/wasm-tools"}, "/env/wasm-tools"},
		{"configured wins", Config{WasmTools: "/cfg"}, map[string]string{EnvWasmTools: "/env"}, "/cfg"},
	}
	for _, tt := range tests {
		if got := tt.cfg.WasmToolsPath(env(tt.env)); got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestLevel(t *testing.T) {
	if l, err := (Config{}).Level(); err != nil || l != zapcore.InfoLevel {
		t.Errorf("default level = %v, %v", l, err)
	}
	if l, err := (Config{LogLevel: "warn"}).Level(); err != nil || l != zapcore.WarnLevel {
		t.Errorf("warn level = %v, %v", l, err)
	}
	if !(Config{}).ValidateModules() {
		t.Error("validation should default to on")
	}
}
