package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/davecgh/go-spew/spew"
)

func write(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.InputSize != 1 || cfg.HiddenSize != 51 || cfg.NumLayers != 1 ||
		cfg.NumClasses != 2 || cfg.Reverse || cfg.Device != "auto" || cfg.Seed != 1 {
		t.Fatalf("unexpected defaults:\n%s", spew.Sdump(cfg))
	}
}

func TestLoadFile(t *testing.T) {
	p := write(t, "model.yaml", "input_size: 3\nhidden_size: 4\nnum_classes: 5\nreverse: true\ndevice: cpu\nseed: 42\n")
	cfg, err := Load(p)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.InputSize != 3 || cfg.HiddenSize != 4 || cfg.NumClasses != 5 ||
		!cfg.Reverse || cfg.Device != "cpu" || cfg.Seed != 42 || cfg.NumLayers != 1 {
		t.Fatalf("file not applied:\n%s", spew.Sdump(cfg))
	}
}

func TestLoadJSON(t *testing.T) {
	p := write(t, "model.json", `{"hidden_size": 8, "num_layers": 2}`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.HiddenSize != 8 || cfg.NumLayers != 2 {
		t.Fatalf("json not applied:\n%s", spew.Sdump(cfg))
	}
}

func TestEnvOverridesFile(t *testing.T) {
	p := write(t, "model.toml", "hidden_size = 4\n")
	t.Setenv("TWINNET_HIDDEN_SIZE", "16")
	t.Setenv("TWINNET_DEVICE", "cpu:0")
	cfg, err := Load(p)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.HiddenSize != 16 || cfg.Device != "cpu:0" {
		t.Fatalf("env not applied:\n%s", spew.Sdump(cfg))
	}
}

func TestEnvFile(t *testing.T) {
	const key = "TWINNET_NUM_CLASSES"
	t.Setenv(key, "") // registers cleanup of the value godotenv sets
	os.Unsetenv(key)
	env := write(t, ".env", key+"=9\n")
	cfg, err := Load("", env)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.NumClasses != 9 {
		t.Fatalf("env file not applied:\n%s", spew.Sdump(cfg))
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Errorf("missing file should fail")
	}
	if _, err := Load("", filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Errorf("missing env file should fail")
	}
	p := write(t, "bad.yaml", "hidden_size: 0\n")
	if _, err := Load(p); err == nil {
		t.Errorf("zero hidden_size should fail validation")
	}
}
