package raster

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/segment"
	"github.com/disintegration/imaging"
)

// MembraneLevel is the grey value from which a membrane image pixel counts
// as membrane.
const MembraneLevel = 128

// ErrNotBinary is returned when an input image has other than two grey levels.
var ErrNotBinary = errors.New("image is not binary")

// Cache provides thread-safe caching of decoded images keyed by path.
//
// Once an image is loaded, subsequent Load calls for the same path return
// the cached copy without disk I/O. Entries stay until evicted.
type Cache struct {
	mu     sync.RWMutex
	images map[string]image.Image
}

// NewCache creates an empty image cache.
func NewCache() *Cache {
	return &Cache{
		images: make(map[string]image.Image),
	}
}

// Load retrieves an image from the cache or decodes it from disk.
//
// Decoding goes through imaging.Open, which understands PNG, JPEG, GIF, TIFF
// and BMP. The path string is the cache key as given; different spellings of
// the same file produce separate entries.
func (c *Cache) Load(path string) (image.Image, error) {
	c.mu.RLock()
	if img, ok := c.images[path]; ok {
		c.mu.RUnlock()
		return img, nil
	}
	c.mu.RUnlock()

	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load image %s: %w", path, err)
	}

	c.mu.Lock()
	c.images[path] = img
	c.mu.Unlock()

	return img, nil
}

// LoadMask loads path and converts it with FromImage.
func (c *Cache) LoadMask(path string) (*Mask, error) {
	img, err := c.Load(path)
	if err != nil {
		return nil, err
	}
	m, err := FromImage(img)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// LoadMembrane loads a membrane image of any grey depth, splits it at
// MembraneLevel and thins the result to a one-pixel skeleton.
func (c *Cache) LoadMembrane(path string) (*Mask, error) {
	img, err := c.Load(path)
	if err != nil {
		return nil, err
	}
	return Thin(Threshold(img, MembraneLevel)), nil
}

// Evict removes one cached image. Unknown paths are ignored.
func (c *Cache) Evict(path string) {
	c.mu.Lock()
	delete(c.images, path)
	c.mu.Unlock()
}

// Len reports how many images are cached.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}

// FromImage converts a two-level image into a Mask. The brighter level is
// foreground. Images with one grey level or more than two are rejected with
// ErrNotBinary.
func FromImage(img image.Image) (*Mask, error) {
	rgba := effect.Grayscale(img)
	b := rgba.Bounds()
	w, h := b.Dx(), b.Dy()

	// Grayscale keeps the RGBA layout with R=G=B; read the R byte.
	grey := func(x, y int) uint8 { return rgba.Pix[rgba.PixOffset(b.Min.X+x, b.Min.Y+y)] }

	var seen [256]bool
	levels := 0
scan:
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if v := grey(x, y); !seen[v] {
				seen[v] = true
				levels++
				if levels > 2 {
					break scan
				}
			}
		}
	}
	if levels != 2 {
		return nil, fmt.Errorf("%w: found %d grey levels", ErrNotBinary, levels)
	}

	var high uint8
	for v := 255; v >= 0; v-- {
		if seen[v] {
			high = uint8(v)
			break
		}
	}
	m := NewMask(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			m.Pix[y*w+x] = grey(x, y) == high
		}
	}
	return m, nil
}

// Threshold converts any image to a Mask: pixels whose grey value is at least
// level become foreground. A level of 1 treats every non-black pixel as lit.
func Threshold(img image.Image, level uint8) *Mask {
	return fromGray(segment.Threshold(effect.Grayscale(img), level))
}

func fromGray(g *image.Gray) *Mask {
	b := g.Bounds()
	m := NewMask(b.Dx(), b.Dy())
	for y := 0; y < m.Height; y++ {
		row := g.Pix[y*g.Stride : y*g.Stride+m.Width]
		for x, v := range row {
			m.Pix[y*m.Width+x] = v > 0
		}
	}
	return m
}

// ToImage renders a mask as an 8-bit grey image, foreground white.
func (m *Mask) ToImage() *image.Gray {
	g := image.NewGray(image.Rect(0, 0, m.Width, m.Height))
	for i, v := range m.Pix {
		if v {
			g.Pix[i] = 255
		}
	}
	return g
}

// SaveMask writes a mask to path; the format follows the file extension.
func SaveMask(m *Mask, path string) error {
	if err := imaging.Save(m.ToImage(), path); err != nil {
		return fmt.Errorf("failed to save mask %s: %w", path, err)
	}
	return nil
}
