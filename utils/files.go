// microboard/utils/files.go
package utils

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"image/jpeg"

	"github.com/disintegration/imaging"

	_ "golang.org/x/image/webp" // webp decode support for dimension probing
)

// FileInfo describes a processed upload, ready to be copied onto a post row.
type FileInfo struct {
	File        string
	FileHex     string
	FileOrig    string
	FileSize    int64
	FileSizeFmt string
	ImageWidth  int
	ImageHeight int
	Thumb       string
	ThumbWidth  int
	ThumbHeight int
}

// HashFileHex returns the MD5 content hash of file bytes as lowercase hex.
// Byte-identical uploads always produce the same hash, which is what the
// dedup index keys on.
func HashFileHex(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

// FormatFileSize renders a byte count for display.
func FormatFileSize(n int64) string {
	switch {
	case n >= 1024*1024:
		return fmt.Sprintf("%.2f MB", float64(n)/(1024*1024))
	case n >= 1024:
		return fmt.Sprintf("%.2f KB", float64(n)/1024)
	default:
		return fmt.Sprintf("%d B", n)
	}
}

// MakeThumbnail decodes an image, probes its dimensions and produces a
// bounded JPEG thumbnail. Returns the source dimensions, the thumbnail bytes
// and the thumbnail dimensions.
func MakeThumbnail(data []byte, maxW, maxH int) (width, height int, thumb []byte, tw, th int, err error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return 0, 0, nil, 0, 0, fmt.Errorf("failed to decode image: %w", err)
	}
	bounds := img.Bounds()
	width, height = bounds.Dx(), bounds.Dy()

	resized := imaging.Fit(img, maxW, maxH, imaging.Lanczos)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: 85}); err != nil {
		return 0, 0, nil, 0, 0, fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	tb := resized.Bounds()
	return width, height, buf.Bytes(), tb.Dx(), tb.Dy(), nil
}
