package app

import (
	"flag"
	"testing"
)

func TestBindParsesFlags(t *testing.T) {
	cfg := NewConfig()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg.Bind(fs)
	args := []string{"-sim", "pond", "-scale", "2", "-gpu", "-set", "w=64", "-set", "viscosity = 0.3", "-set", "junk", "-set", "w=96"}
	if err := fs.Parse(args); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Sim != "pond" || cfg.Scale != 2 || !cfg.GPU {
		t.Fatalf("cfg = %+v", cfg)
	}
	opts := cfg.Options()
	want := map[string]string{"w": "96", "viscosity": "0.3", "gpu": "true"}
	if len(opts) != len(want) {
		t.Fatalf("options = %v, want %v", opts, want)
	}
	for k, v := range want {
		if opts[k] != v {
			t.Fatalf("options[%q] = %q, want %q", k, opts[k], v)
		}
	}
}

func TestDefaultsLeaveOptionsEmpty(t *testing.T) {
	cfg := NewConfig()
	if opts := cfg.Options(); len(opts) != 0 {
		t.Fatalf("default options = %v", opts)
	}
	if cfg.Sim != "calm" || cfg.TPS != 60 {
		t.Fatalf("defaults = %+v", cfg)
	}
}
