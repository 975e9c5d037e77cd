// microboard/database/pagination_test.go
package database

import (
	"errors"
	"testing"
)

func TestPageCount(t *testing.T) {
	cases := []struct {
		total, perPage, want int
	}{
		{0, 10, 0},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{25, 10, 3},
	}
	for _, c := range cases {
		got, err := PageCount(c.total, c.perPage)
		if err != nil {
			t.Errorf("PageCount(%d, %d) returned error: %v", c.total, c.perPage, err)
			continue
		}
		if got != c.want {
			t.Errorf("PageCount(%d, %d) = %d, want %d", c.total, c.perPage, got, c.want)
		}
	}

	if _, err := PageCount(10, 0); !errors.Is(err, ErrValidation) {
		t.Errorf("Expected ErrValidation for zero page size, got %v", err)
	}
	if _, err := PageCount(-1, 10); !errors.Is(err, ErrValidation) {
		t.Errorf("Expected ErrValidation for negative total, got %v", err)
	}
}

func TestPageOffset(t *testing.T) {
	got, err := PageOffset(3, 10)
	if err != nil {
		t.Fatalf("PageOffset failed: %v", err)
	}
	if got != 30 {
		t.Errorf("PageOffset(3, 10) = %d, want 30", got)
	}

	if _, err := PageOffset(-1, 10); !errors.Is(err, ErrValidation) {
		t.Errorf("Expected ErrValidation for negative page, got %v", err)
	}
	if _, err := PageOffset(0, 0); !errors.Is(err, ErrValidation) {
		t.Errorf("Expected ErrValidation for zero page size, got %v", err)
	}
}
