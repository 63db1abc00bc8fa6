package main

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/cwbudde/algo-cvsynth/analysis"
)

func TestNewMayflyConfig(t *testing.T) {
	tests := []struct {
		variant string
		wantErr bool
	}{
		{variant: "ma"},
		{variant: "desma"},
		{variant: "olce"},
		{variant: "eobbma"},
		{variant: "gsasma"},
		{variant: "mpma"},
		{variant: "aoblmoa"},
		{variant: "bogus", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.variant, func(t *testing.T) {
			cfg, err := newMayflyConfig(tt.variant, 10, 5, 20)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("newMayflyConfig(%q) expected error", tt.variant)
				}
				return
			}
			if err != nil {
				t.Fatalf("newMayflyConfig(%q) unexpected error: %v", tt.variant, err)
			}
			if cfg.ProblemSize != 5 {
				t.Fatalf("ProblemSize = %d, want 5", cfg.ProblemSize)
			}
			if cfg.NPop != 10 {
				t.Fatalf("NPop = %d, want 10", cfg.NPop)
			}
			if cfg.MaxIterations != 20 {
				t.Fatalf("MaxIterations = %d, want 20", cfg.MaxIterations)
			}
		})
	}
}

func TestReserveEvalCapsAtMax(t *testing.T) {
	const (
		maxEvals = 47
		workers  = 8
	)

	var evals int64
	var granted int64
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				if _, ok := reserveEval(&evals, maxEvals); !ok {
					return
				}
				atomic.AddInt64(&granted, 1)
			}
		}()
	}
	wg.Wait()

	if granted != maxEvals {
		t.Fatalf("granted %d evals, want %d", granted, maxEvals)
	}
	if evals != maxEvals {
		t.Fatalf("counter at %d, want %d", evals, maxEvals)
	}
}

func TestUpdateTopCandidatesKeepsBestSorted(t *testing.T) {
	defs := []knobDef{{Name: "x", Min: 0, Max: 1}}

	var top []topCandidate
	scores := []float64{0.8, 0.3, 0.5, 0.9, 0.1, 0.4}
	for i, s := range scores {
		m := analysis.Metrics{Score: s, Similarity: 1 - s}
		top = updateTopCandidates(top, 3, i+1, m, defs, candidate{Vals: []float64{s}})
	}

	if len(top) != 3 {
		t.Fatalf("kept %d candidates, want 3", len(top))
	}
	want := []float64{0.1, 0.3, 0.4}
	for i, w := range want {
		if top[i].Score != w {
			t.Fatalf("top[%d].Score = %f, want %f", i, top[i].Score, w)
		}
	}
	if top[0].Knobs["x"] != 0.1 {
		t.Fatalf("knob values not carried with candidate: %+v", top[0].Knobs)
	}
}
