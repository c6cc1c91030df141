package clustering

import (
	"math"
	"testing"
	"time"
)

func TestSimilarity_Symmetric(t *testing.T) {
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	fps := []struct {
		name string
		size int64
		at   time.Time
	}{
		{"Blue_Moon_take1.mp3", 1_600_000, base},
		{"Blue_Moon_take2.wav", 3_200_000, base.Add(2 * time.Hour)},
		{"20240301_Night Drive.flac", 0, base.Add(20 * time.Hour)},
		{"memo.m4a", 120_000, base.Add(72 * time.Hour)},
		{"20240301_.ogg", 0, base},
	}

	for i := range fps {
		for j := range fps {
			a := fp(fps[i].name, fps[i].size, fps[i].at)
			b := fp(fps[j].name, fps[j].size, fps[j].at)
			ab, ba := Similarity(a, b), Similarity(b, a)
			if ab != ba {
				t.Fatalf("asymmetric score for %s/%s: %v vs %v", a.FileName, b.FileName, ab, ba)
			}
			if ab < 0 || ab > 1 {
				t.Fatalf("score out of range for %s/%s: %v", a.FileName, b.FileName, ab)
			}
		}
	}
}

func TestSimilarity(t *testing.T) {
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		a, b    func() (string, int64, time.Time)
		wantMin float64
		wantMax float64
	}{
		{
			name:    "identical tokens within the same minute",
			a:       func() (string, int64, time.Time) { return "Blue Moon.wav", 1_600_000, base },
			b:       func() (string, int64, time.Time) { return "20240301_Blue Moon.wav", 1_600_000, base.Add(30 * time.Second) },
			wantMin: 0.95,
			wantMax: 1,
		},
		{
			name:    "take pair ten minutes apart",
			a:       func() (string, int64, time.Time) { return "Blue_Moon_take1.mp3", 1_600_000, base },
			b:       func() (string, int64, time.Time) { return "Blue_Moon_take2.mp3", 1_600_000, base.Add(10 * time.Minute) },
			wantMin: 0.685 - 1e-9,
			wantMax: 0.685 + 1e-9,
		},
		{
			name:    "disjoint tokens two days apart",
			a:       func() (string, int64, time.Time) { return "sunrise.wav", 0, base },
			b:       func() (string, int64, time.Time) { return "harbor.mp3", 0, base.Add(48 * time.Hour) },
			wantMin: 0,
			wantMax: 0.1,
		},
		{
			name:    "unknown durations fall back to half-credit category match",
			a:       func() (string, int64, time.Time) { return "alpha.wav", 0, base },
			b:       func() (string, int64, time.Time) { return "alpha.wav", 0, base.Add(48 * time.Hour) },
			wantMin: 0.775 - 1e-9,
			wantMax: 0.775 + 1e-9,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := fp(tt.a())
			b := fp(tt.b())
			got := Similarity(a, b)
			if got < tt.wantMin || got > tt.wantMax {
				t.Fatalf("Similarity: got %v, want within [%v, %v]", got, tt.wantMin, tt.wantMax)
			}
		})
	}
}

func TestJaccard(t *testing.T) {
	tests := []struct {
		name string
		a, b []string
		want float64
	}{
		{name: "both empty", want: 0},
		{name: "one empty", a: []string{"a"}, want: 0},
		{name: "identical", a: []string{"a", "b"}, b: []string{"b", "a"}, want: 1},
		{name: "partial overlap", a: []string{"a", "b"}, b: []string{"b", "c"}, want: 1.0 / 3.0},
		{name: "duplicates count once", a: []string{"a", "a", "b"}, b: []string{"a"}, want: 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Jaccard(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
				t.Fatalf("Jaccard: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDurationCloseness(t *testing.T) {
	if got := DurationCloseness(60, 30); math.Abs(got-0.5) > 1e-9 {
		t.Fatalf("got %v, want 0.5", got)
	}
	if got := DurationCloseness(10, 10); got != 1 {
		t.Fatalf("got %v, want 1", got)
	}
}

func TestTemporalProximity(t *testing.T) {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		delta time.Duration
		want  float64
	}{
		{0, 0.9},
		{59 * time.Minute, 0.9},
		{-59 * time.Minute, 0.9},
		{time.Hour, 0.6},
		{5 * time.Hour, 0.6},
		{6 * time.Hour, 0.3},
		{23 * time.Hour, 0.3},
		{24 * time.Hour, 0},
	}
	for _, tt := range tests {
		if got := TemporalProximity(base, base.Add(tt.delta)); got != tt.want {
			t.Errorf("TemporalProximity(%v): got %v, want %v", tt.delta, got, tt.want)
		}
	}
}
