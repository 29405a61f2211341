package parallel

import (
	"errors"
	"sync"
	"testing"
)

func TestRowsCoversRange(t *testing.T) {
	tests := []struct {
		minY, maxY, workers int
	}{
		{0, 0, 4},
		{0, 5, 4},
		{0, 100, 4},
		{10, 257, 3},
		{0, 64, 1},
		{0, 1000, 0},
	}
	for _, tt := range tests {
		var mu sync.Mutex
		seen := make(map[int]int)
		err := Rows(tt.minY, tt.maxY, tt.workers, func(y0, y1 int) error {
			mu.Lock()
			defer mu.Unlock()
			for y := y0; y < y1; y++ {
				seen[y]++
			}
			return nil
		})
		if err != nil {
			t.Fatalf("Rows(%d, %d) = %v", tt.minY, tt.maxY, err)
		}
		if len(seen) != tt.maxY-tt.minY {
			t.Errorf("Rows(%d, %d) visited %d rows, want %d", tt.minY, tt.maxY, len(seen), tt.maxY-tt.minY)
		}
		for y, n := range seen {
			if n != 1 || y < tt.minY || y >= tt.maxY {
				t.Errorf("row %d visited %d times", y, n)
			}
		}
	}
}

func TestRowsSmallRangeSingleBand(t *testing.T) {
	calls := 0
	_ = Rows(0, MinRows, 8, func(y0, y1 int) error {
		calls++
		if y0 != 0 || y1 != MinRows {
			t.Errorf("band = [%d, %d), want [0, %d)", y0, y1, MinRows)
		}
		return nil
	})
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRowsError(t *testing.T) {
	errBand := errors.New("band failed")
	err := Rows(0, 200, 4, func(y0, _ int) error {
		if y0 == 0 {
			return errBand
		}
		return nil
	})
	if !errors.Is(err, errBand) {
		t.Errorf("Rows() = %v, want %v", err, errBand)
	}
}
