package directory

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
)

// DominantColor returns the ARGB color of the most populated color bucket of
// the PNG image at path. Channels are quantized to 5 bits, transparent
// pixels are ignored and the winning bucket is averaged. fallback is
// returned for empty paths, non-PNG files and images with no opaque pixels.
func DominantColor(path string, fallback uint32) uint32 {
	if path == "" || !strings.EqualFold(filepath.Ext(path), ".png") {
		return fallback
	}

	f, err := os.Open(path)
	if err != nil {
		return fallback
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return fallback
	}
	return dominant(img, fallback)
}

type bucket struct {
	count   int
	r, g, b uint64
}

func dominant(img image.Image, fallback uint32) uint32 {
	buckets := make(map[uint32]*bucket)
	var best uint32
	bestCount := 0

	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, a := img.At(x, y).RGBA()
			if a < 0x8000 {
				continue
			}
			// un-premultiply to 8-bit channels
			r8, g8, b8 := uint32(r*0xff/a), uint32(g*0xff/a), uint32(b*0xff/a)
			key := (r8>>3)<<10 | (g8>>3)<<5 | b8>>3

			bk := buckets[key]
			if bk == nil {
				bk = &bucket{}
				buckets[key] = bk
			}
			bk.count++
			bk.r += uint64(r8)
			bk.g += uint64(g8)
			bk.b += uint64(b8)

			if bk.count > bestCount || (bk.count == bestCount && key < best) {
				best, bestCount = key, bk.count
			}
		}
	}

	if bestCount == 0 {
		return fallback
	}

	bk := buckets[best]
	n := uint64(bk.count)
	return 0xFF<<24 | uint32(bk.r/n)<<16 | uint32(bk.g/n)<<8 | uint32(bk.b/n)
}
