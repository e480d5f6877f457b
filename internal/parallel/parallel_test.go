package parallel

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/chncwang/arraym/internal/mapper"
	"github.com/chncwang/arraym/internal/memory"
	"github.com/chncwang/arraym/internal/shape"
)

func TestSplitCoversAllRuns(t *testing.T) {
	tests := []struct {
		name    string
		numRuns int
		cfg     Config
		want    int // number of ranges
	}{
		{"disabled", 100, Config{Enabled: false, NumWorkers: 4, MinRuns: 1}, 1},
		{"too small", 10, Config{Enabled: true, NumWorkers: 4, MinRuns: 8}, 1},
		{"even", 100, Config{Enabled: true, NumWorkers: 4, MinRuns: 1}, 4},
		{"min runs bound", 100, Config{Enabled: true, NumWorkers: 8, MinRuns: 30}, 4},
		{"uneven", 10, Config{Enabled: true, NumWorkers: 3, MinRuns: 1}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ranges := Split(tt.numRuns, tt.cfg)
			if len(ranges) != tt.want {
				t.Fatalf("got %d ranges, want %d: %v", len(ranges), tt.want, ranges)
			}
			next := 0
			for _, r := range ranges {
				if r.First != next || r.Len() <= 0 {
					t.Fatalf("ranges not contiguous: %v", ranges)
				}
				next = r.Last
			}
			if next != tt.numRuns {
				t.Errorf("ranges end at %d, want %d", next, tt.numRuns)
			}
		})
	}

	if got := Split(0, DefaultConfig()); got != nil {
		t.Errorf("Split(0) = %v, want nil", got)
	}
}

func TestForRunsVisitsEachRun(t *testing.T) {
	cfg := Config{Enabled: true, NumWorkers: 4, MinRuns: 2}

	var mu sync.Mutex
	seen := make(map[int]int)
	err := ForRuns(context.Background(), 50, cfg, func(_ context.Context, r Range) error {
		mu.Lock()
		defer mu.Unlock()
		for k := r.First; k < r.Last; k++ {
			seen[k]++
		}
		return nil
	})
	if err != nil {
		t.Fatalf("ForRuns: %v", err)
	}
	if len(seen) != 50 {
		t.Fatalf("visited %d runs, want 50", len(seen))
	}
	for k, n := range seen {
		if n != 1 {
			t.Errorf("run %d visited %d times", k, n)
		}
	}
}

func TestForRunsPropagatesError(t *testing.T) {
	cfg := Config{Enabled: true, NumWorkers: 2, MinRuns: 1}
	boom := errors.New("boom")

	err := ForRuns(context.Background(), 8, cfg, func(_ context.Context, r Range) error {
		if r.First == 0 {
			return boom
		}
		return nil
	})
	if !errors.Is(err, boom) {
		t.Errorf("got %v, want %v", err, boom)
	}
}

func TestForRunsCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int64
	err := ForRuns(ctx, 4, Config{Enabled: false}, func(context.Context, Range) error {
		calls.Add(1)
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
	if calls.Load() != 0 {
		t.Errorf("fn called %d times after cancellation", calls.Load())
	}
}

func TestFill(t *testing.T) {
	s := shape.Shape{16, 8, 4}
	cfg := Config{Enabled: true, NumWorkers: 4, MinRuns: 1}

	c, err := memory.NewContiguous(s, mapper.ColumnMajor, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	ms, err := memory.NewMultislice(s, 2, mapper.RowMajor, 0, nil)
	if err != nil {
		t.Fatal(err)
	}

	for _, m := range []memory.Memory[int]{c, ms} {
		err := Fill(context.Background(), m, func(coord []int) int {
			return coord[0]*100 + coord[1]*10 + coord[2]
		}, cfg)
		if err != nil {
			t.Fatalf("Fill: %v", err)
		}
		for i := 0; i < s[0]; i++ {
			for j := 0; j < s[1]; j++ {
				for k := 0; k < s[2]; k++ {
					if got, want := *m.At([]int{i, j, k}), i*100+j*10+k; got != want {
						t.Fatalf("at (%d,%d,%d) = %d, want %d", i, j, k, got, want)
					}
				}
			}
		}
	}
}

func TestIterate(t *testing.T) {
	s := shape.Shape{32, 6}
	m, err := memory.NewContiguous(s, mapper.RowMajor, 1, nil)
	if err != nil {
		t.Fatal(err)
	}

	var sum atomic.Int64
	err = Iterate(context.Background(), memory.Memory[int](m), func(run []int) {
		local := 0
		for _, v := range run {
			local += v
		}
		sum.Add(int64(local))
	}, Config{Enabled: true, NumWorkers: 4, MinRuns: 2})
	if err != nil {
		t.Fatalf("Iterate: %v", err)
	}
	if sum.Load() != int64(s.NumElements()) {
		t.Errorf("sum = %d, want %d", sum.Load(), s.NumElements())
	}
}
