package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chncwang/arraym/internal/alloc"
	"github.com/chncwang/arraym/internal/array"
	"github.com/chncwang/arraym/internal/shape"
)

const sample = `
[parallel]
workers = 3
min_runs = 4

[[array]]
name = "volume"
dtype = "float32"
layout = "multislice"
slice_axis = 2
shape = [8, 8, 4]
allocator = "pool"
budget = 1024

[[array]]
name = "plain"
shape = [5]
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(cfg.Arrays) != 2 {
		t.Fatalf("got %d arrays, want 2", len(cfg.Arrays))
	}

	vol := cfg.Arrays[0]
	layout, err := vol.ArrayLayout()
	if err != nil {
		t.Fatalf("ArrayLayout: %v", err)
	}
	if got, want := layout.String(), "multislice(axis=2, column-major)"; got != want {
		t.Errorf("layout = %q, want %q", got, want)
	}
	if dt, _ := vol.DataType(); dt != array.Float32 {
		t.Errorf("dtype = %v, want float32", dt)
	}
	if !vol.ShapeOf().Equal(shape.Shape{8, 8, 4}) {
		t.Errorf("shape = %v", vol.ShapeOf())
	}
	if _, ok := NewAllocator[float32](vol).(*alloc.Pool[float32]); !ok {
		t.Errorf("allocator is not a pool")
	}

	plain := cfg.Arrays[1]
	if plain.DType != "float64" || plain.Layout != LayoutRowMajor || plain.Allocator != AllocHeap {
		t.Errorf("defaults not applied: %+v", plain)
	}
	if _, ok := NewAllocator[float64](plain).(alloc.Heap[float64]); !ok {
		t.Errorf("allocator is not the heap")
	}

	pc := cfg.Parallel.ParallelConfig()
	if pc.NumWorkers != 3 || pc.MinRuns != 4 || !pc.Enabled {
		t.Errorf("parallel config = %+v", pc)
	}
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"unknown key", "[[array]]\nname = \"a\"\nshape = [1]\ncolour = \"red\"\n", "unknown keys"},
		{"no arrays", "[parallel]\nworkers = 2\n", "no arrays"},
		{"no name", "[[array]]\nshape = [1]\n", "has no name"},
		{"duplicate", "[[array]]\nname = \"a\"\nshape = [1]\n[[array]]\nname = \"a\"\nshape = [2]\n", "duplicate"},
		{"empty shape", "[[array]]\nname = \"a\"\n", "invalid shape"},
		{"negative extent", "[[array]]\nname = \"a\"\nshape = [2, -1]\n", "invalid shape"},
		{"dtype", "[[array]]\nname = \"a\"\nshape = [1]\ndtype = \"complex64\"\n", "complex64"},
		{"layout", "[[array]]\nname = \"a\"\nshape = [1]\nlayout = \"tiled\"\n", "unknown layout"},
		{"order", "[[array]]\nname = \"a\"\nshape = [1]\norder = \"z-order\"\n", "unknown order"},
		{"slice axis", "[[array]]\nname = \"a\"\nshape = [1, 2]\nlayout = \"multislice\"\nslice_axis = 2\n", "out of range"},
		{"allocator", "[[array]]\nname = \"a\"\nshape = [1]\nallocator = \"mmap\"\n", "unknown allocator"},
		{"budget without pool", "[[array]]\nname = \"a\"\nshape = [1]\nbudget = 10\n", "budget needs"},
		{"negative workers", "[parallel]\nworkers = -1\n[[array]]\nname = \"a\"\nshape = [1]\n", "negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("error %v does not wrap ErrInvalid", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}

	if _, err := Parse([]byte("[[array]\n")); err == nil {
		t.Error("expected decode error")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.toml")
	if err := os.WriteFile(path, []byte(sample), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Arrays[0].Name != "volume" {
		t.Errorf("first array = %q", cfg.Arrays[0].Name)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default profile invalid: %v", err)
	}
	for _, a := range cfg.Arrays {
		if _, err := a.ArrayLayout(); err != nil {
			t.Errorf("%s: %v", a.Name, err)
		}
	}
	pc := cfg.Parallel.ParallelConfig()
	if pc.NumWorkers < 1 || pc.MinRuns < 1 {
		t.Errorf("parallel config = %+v", pc)
	}
}
