package devserver

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	_ "image/png"
	"math/rand/v2"
)

// WeedModel finds weeds in an image and returns an annotated copy.
type WeedModel interface {
	Detect(data []byte) (*Detection, error)
	Loaded() bool
}

// Detection is the outcome of one weed detection.
type Detection struct {
	Annotated []byte
	Boxes     []image.Rectangle
}

// Count returns the number of weeds found.
func (d *Detection) Count() int {
	return len(d.Boxes)
}

var boxColor = color.RGBA{R: 255, G: 40, B: 40, A: 255}

// GreenDetector splits the image into tiles, marks tiles dominated by
// vegetation green, and reports each connected group of marked tiles as one weed.
type GreenDetector struct {
	TileSize int
	MinGreen float64
}

// NewGreenDetector creates a detector with 16px tiles.
func NewGreenDetector() *GreenDetector {
	return &GreenDetector{TileSize: 16, MinGreen: 0.4}
}

// Loaded always reports true.
func (g *GreenDetector) Loaded() bool {
	return true
}

// Detect decodes a JPEG or PNG image and annotates the weeds it finds.
func (g *GreenDetector) Detect(data []byte) (*Detection, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	b := img.Bounds()
	ts := g.TileSize
	cols := (b.Dx() + ts - 1) / ts
	rows := (b.Dy() + ts - 1) / ts

	marked := make([]bool, cols*rows)
	for ty := 0; ty < rows; ty++ {
		for tx := 0; tx < cols; tx++ {
			tile := image.Rect(b.Min.X+tx*ts, b.Min.Y+ty*ts, b.Min.X+(tx+1)*ts, b.Min.Y+(ty+1)*ts).Intersect(b)
			marked[ty*cols+tx] = greenFraction(img, tile) >= g.MinGreen
		}
	}

	var boxes []image.Rectangle
	seen := make([]bool, len(marked))
	for i := range marked {
		if !marked[i] || seen[i] {
			continue
		}
		tiles := floodFill(marked, seen, cols, rows, i)
		box := image.Rectangle{}
		for _, t := range tiles {
			x, y := t%cols, t/cols
			r := image.Rect(b.Min.X+x*ts, b.Min.Y+y*ts, b.Min.X+(x+1)*ts, b.Min.Y+(y+1)*ts)
			box = box.Union(r)
		}
		boxes = append(boxes, box.Intersect(b))
	}

	canvas := image.NewRGBA(b)
	draw.Draw(canvas, b, img, b.Min, draw.Src)
	for _, box := range boxes {
		drawBox(canvas, box, 2)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, canvas, &jpeg.Options{Quality: 85}); err != nil {
		return nil, fmt.Errorf("failed to encode annotated image: %w", err)
	}

	return &Detection{Annotated: buf.Bytes(), Boxes: boxes}, nil
}

func greenFraction(img image.Image, r image.Rectangle) float64 {
	if r.Empty() {
		return 0
	}
	green := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if isGreen(img.At(x, y)) {
				green++
			}
		}
	}
	return float64(green) / float64(r.Dx()*r.Dy())
}

func isGreen(c color.Color) bool {
	r, g, b, _ := c.RGBA()
	r, g, b = r>>8, g>>8, b>>8
	return g > 80 && g > r+30 && g > b+30
}

// floodFill collects the 4-connected marked tiles reachable from start.
func floodFill(marked, seen []bool, cols, rows, start int) []int {
	var tiles []int
	stack := []int{start}
	seen[start] = true
	for len(stack) > 0 {
		t := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		tiles = append(tiles, t)

		x, y := t%cols, t/cols
		for _, n := range [][2]int{{x - 1, y}, {x + 1, y}, {x, y - 1}, {x, y + 1}} {
			if n[0] < 0 || n[0] >= cols || n[1] < 0 || n[1] >= rows {
				continue
			}
			idx := n[1]*cols + n[0]
			if marked[idx] && !seen[idx] {
				seen[idx] = true
				stack = append(stack, idx)
			}
		}
	}
	return tiles
}

func drawBox(img *image.RGBA, r image.Rectangle, width int) {
	for w := 0; w < width; w++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.Set(x, r.Min.Y+w, boxColor)
			img.Set(x, r.Max.Y-1-w, boxColor)
		}
		for y := r.Min.Y; y < r.Max.Y; y++ {
			img.Set(r.Min.X+w, y, boxColor)
			img.Set(r.Max.X-1-w, y, boxColor)
		}
	}
}

// syntheticFrame renders a 640x480 soil image with up to five weed patches,
// standing in for a camera frame when no hardware is attached.
func syntheticFrame(rng *rand.Rand) ([]byte, error) {
	const w, h = 640, 480
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.RGBA{R: 110, G: 82, B: 52, A: 255}}, image.Point{}, draw.Src)

	weed := &image.Uniform{C: color.RGBA{R: 40, G: 160, B: 45, A: 255}}
	for i := rng.IntN(6); i > 0; i-- {
		size := 24 + rng.IntN(40)
		x, y := rng.IntN(w-size), rng.IntN(h-size)
		draw.Draw(img, image.Rect(x, y, x+size, y+size), weed, image.Point{}, draw.Src)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 80}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
