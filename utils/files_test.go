// microboard/utils/files_test.go
package utils

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func TestHashFileHex(t *testing.T) {
	a := HashFileHex([]byte("same bytes"))
	b := HashFileHex([]byte("same bytes"))
	c := HashFileHex([]byte("other bytes"))

	if a != b {
		t.Error("Expected identical bytes to hash identically")
	}
	if a == c {
		t.Error("Expected different bytes to hash differently")
	}
	if len(a) != 32 {
		t.Errorf("Expected 32 hex characters, got %d", len(a))
	}
}

func TestFormatFileSize(t *testing.T) {
	cases := []struct {
		n    int64
		want string
	}{
		{512, "512 B"},
		{2048, "2.00 KB"},
		{3 * 1024 * 1024, "3.00 MB"},
	}
	for _, c := range cases {
		if got := FormatFileSize(c.n); got != c.want {
			t.Errorf("FormatFileSize(%d) = %q, want %q", c.n, got, c.want)
		}
	}
}

func TestMakeThumbnail(t *testing.T) {
	// A 400x200 source must fit inside 100x100 preserving aspect.
	src := image.NewRGBA(image.Rect(0, 0, 400, 200))
	for y := 0; y < 200; y++ {
		for x := 0; x < 400; x++ {
			src.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 64, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		t.Fatalf("Failed to encode test image: %v", err)
	}

	w, h, thumb, tw, th, err := MakeThumbnail(buf.Bytes(), 100, 100)
	if err != nil {
		t.Fatalf("MakeThumbnail failed: %v", err)
	}
	if w != 400 || h != 200 {
		t.Errorf("Expected source dimensions 400x200, got %dx%d", w, h)
	}
	if tw != 100 || th != 50 {
		t.Errorf("Expected thumbnail 100x50, got %dx%d", tw, th)
	}
	if len(thumb) == 0 {
		t.Error("Expected non-empty thumbnail bytes")
	}

	if _, _, _, _, _, err := MakeThumbnail([]byte("not an image"), 100, 100); err == nil {
		t.Error("Expected decode error for junk bytes")
	}
}
