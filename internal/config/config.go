// Package config loads arraym profiles.
//
// A profile is a TOML document listing the arrays the command line tools build
// and the parallel settings used when traversing them:
//
//	[parallel]
//	workers = 4
//	min_runs = 8
//
//	[[array]]
//	name = "volume"
//	dtype = "float32"
//	layout = "multislice"
//	slice_axis = 2
//	order = "column-major"
//	shape = [64, 64, 32]
//	allocator = "pool"
//	budget = 0
//	fill = 0.0
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/chncwang/arraym/internal/alloc"
	"github.com/chncwang/arraym/internal/array"
	"github.com/chncwang/arraym/internal/mapper"
	"github.com/chncwang/arraym/internal/parallel"
	"github.com/chncwang/arraym/internal/shape"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid profile")

// Layout names accepted in profiles.
const (
	LayoutRowMajor    = "row-major"
	LayoutColumnMajor = "column-major"
	LayoutMultislice  = "multislice"
)

// Allocator names accepted in profiles.
const (
	AllocHeap    = "heap"
	AllocAligned = "aligned"
	AllocPool    = "pool"
)

// Config is a decoded profile.
type Config struct {
	Parallel Parallel    `toml:"parallel"`
	Arrays   []ArraySpec `toml:"array"`
}

// Parallel holds the settings of parallel traversals.
type Parallel struct {
	Workers int `toml:"workers"`  // 0 keeps one per CPU
	MinRuns int `toml:"min_runs"` // 0 means the library default
}

// ArraySpec describes one array of a profile.
type ArraySpec struct {
	Name      string  `toml:"name"`
	DType     string  `toml:"dtype"`
	Layout    string  `toml:"layout"`
	SliceAxis int     `toml:"slice_axis"`
	Order     string  `toml:"order"`
	Shape     []int   `toml:"shape"`
	Allocator string  `toml:"allocator"`
	Budget    int     `toml:"budget"`
	Fill      float64 `toml:"fill"`
}

// Default returns the built-in profile: one array per layout.
func Default() *Config {
	cfg := &Config{
		Arrays: []ArraySpec{
			{Name: "matrix", DType: "float64", Layout: LayoutRowMajor, Shape: []int{256, 256}},
			{Name: "image", DType: "uint8", Layout: LayoutColumnMajor, Shape: []int{640, 480, 3}, Allocator: AllocAligned},
			{Name: "volume", DType: "float32", Layout: LayoutMultislice, SliceAxis: 2, Shape: []int{128, 128, 64}, Allocator: AllocPool},
		},
	}
	cfg.applyDefaults()
	return cfg
}

// Load reads and validates the profile at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes and validates a profile. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("%w: unknown keys %s", ErrInvalid, strings.Join(keys, ", "))
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	for i := range c.Arrays {
		a := &c.Arrays[i]
		if a.DType == "" {
			a.DType = "float64"
		}
		if a.Layout == "" {
			a.Layout = LayoutRowMajor
		}
		if a.Order == "" {
			a.Order = LayoutColumnMajor
		}
		if a.Allocator == "" {
			a.Allocator = AllocHeap
		}
	}
}

// Validate checks names, enumerations and shapes.
func (c *Config) Validate() error {
	if c.Parallel.Workers < 0 || c.Parallel.MinRuns < 0 {
		return fmt.Errorf("%w: parallel settings must not be negative", ErrInvalid)
	}
	if len(c.Arrays) == 0 {
		return fmt.Errorf("%w: no arrays", ErrInvalid)
	}

	names := make(map[string]bool, len(c.Arrays))
	for i, a := range c.Arrays {
		if a.Name == "" {
			return fmt.Errorf("%w: array %d has no name", ErrInvalid, i)
		}
		if names[a.Name] {
			return fmt.Errorf("%w: duplicate array name %q", ErrInvalid, a.Name)
		}
		names[a.Name] = true

		if err := a.validate(); err != nil {
			return fmt.Errorf("%w: array %q: %w", ErrInvalid, a.Name, err)
		}
	}
	return nil
}

func (a ArraySpec) validate() error {
	if err := a.ShapeOf().Validate(); err != nil {
		return err
	}
	if _, err := a.DataType(); err != nil {
		return err
	}
	if _, err := a.ArrayLayout(); err != nil {
		return err
	}
	switch a.Allocator {
	case AllocHeap, AllocAligned, AllocPool:
	default:
		return fmt.Errorf("unknown allocator %q", a.Allocator)
	}
	if a.Budget < 0 {
		return fmt.Errorf("negative budget %d", a.Budget)
	}
	if a.Budget > 0 && a.Allocator != AllocPool {
		return fmt.Errorf("budget needs the %q allocator", AllocPool)
	}
	return nil
}

// ShapeOf returns the configured shape.
func (a ArraySpec) ShapeOf() shape.Shape {
	return shape.Shape(a.Shape).Clone()
}

// DataType returns the configured element type.
func (a ArraySpec) DataType() (array.DataType, error) {
	return array.ParseDataType(a.DType)
}

// ArrayLayout returns the configured storage layout.
func (a ArraySpec) ArrayLayout() (array.Layout, error) {
	order, err := parseOrder(a.Order)
	if err != nil {
		return array.Layout{}, err
	}
	switch a.Layout {
	case LayoutRowMajor:
		return array.RowMajor, nil
	case LayoutColumnMajor:
		return array.ColumnMajor, nil
	case LayoutMultislice:
		if a.SliceAxis < 0 || a.SliceAxis >= len(a.Shape) {
			return array.Layout{}, fmt.Errorf("slice axis %d out of range for rank %d", a.SliceAxis, len(a.Shape))
		}
		return array.Multislice(a.SliceAxis, order), nil
	default:
		return array.Layout{}, fmt.Errorf("unknown layout %q", a.Layout)
	}
}

func parseOrder(name string) (mapper.Order, error) {
	switch name {
	case LayoutRowMajor:
		return mapper.RowMajor, nil
	case LayoutColumnMajor:
		return mapper.ColumnMajor, nil
	default:
		return 0, fmt.Errorf("unknown order %q", name)
	}
}

// NewAllocator builds the allocator configured for a.
func NewAllocator[T any](a ArraySpec) alloc.Allocator[T] {
	switch a.Allocator {
	case AllocAligned:
		return alloc.Aligned[T]{}
	case AllocPool:
		return alloc.NewPool[T](a.Budget)
	default:
		return alloc.Heap[T]{}
	}
}

// ParallelConfig converts the profile settings into a parallel.Config.
func (p Parallel) ParallelConfig() parallel.Config {
	cfg := parallel.DefaultConfig()
	if p.Workers > 0 {
		cfg.NumWorkers = p.Workers
		cfg.Enabled = p.Workers > 1
	}
	if p.MinRuns > 0 {
		cfg.MinRuns = p.MinRuns
	}
	return cfg
}
