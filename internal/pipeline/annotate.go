package pipeline

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/classtrack/classtrack/internal/detect"
)

var (
	colorRecognized = color.RGBA{0, 200, 0, 255}
	colorUnknown    = color.RGBA{220, 0, 0, 255}
	colorIdleText   = color.RGBA{100, 100, 100, 255}
	colorWhite      = color.RGBA{255, 255, 255, 255}
)

// toRGBA returns the frame as a drawable RGBA image.
func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	dst := image.NewRGBA(img.Bounds())
	draw.Draw(dst, dst.Bounds(), img, img.Bounds().Min, draw.Src)
	return dst
}

// downscale resizes the frame by factor for faster detection. The caller maps
// detected boxes back with the exact inverse factor.
func downscale(img image.Image, factor float64) image.Image {
	if factor >= 1 {
		return img
	}
	bounds := img.Bounds()
	w := int(float64(bounds.Dx()) * factor)
	h := int(float64(bounds.Dy()) * factor)
	if w < 1 || h < 1 {
		return img
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, bounds, draw.Src, nil)
	return dst
}

// encodeJPEG serializes a frame for the face service and the video stream.
func encodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
		return nil, fmt.Errorf("encoding frame: %w", err)
	}
	return buf.Bytes(), nil
}

// drawBox renders a face rectangle with a filled label bar underneath,
// clipped to the frame.
func drawBox(dst *image.RGBA, box detect.Box, col color.RGBA, label string) {
	rect := box.Rect().Intersect(dst.Bounds())
	if rect.Empty() {
		return
	}

	const border = 2
	// Four border strips.
	fill(dst, image.Rect(rect.Min.X, rect.Min.Y, rect.Max.X, rect.Min.Y+border), col)
	fill(dst, image.Rect(rect.Min.X, rect.Max.Y-border, rect.Max.X, rect.Max.Y), col)
	fill(dst, image.Rect(rect.Min.X, rect.Min.Y, rect.Min.X+border, rect.Max.Y), col)
	fill(dst, image.Rect(rect.Max.X-border, rect.Min.Y, rect.Max.X, rect.Max.Y), col)

	if label == "" {
		return
	}
	bar := image.Rect(rect.Min.X, rect.Max.Y-18, rect.Max.X, rect.Max.Y).Intersect(dst.Bounds())
	fill(dst, bar, col)
	drawText(dst, label, rect.Min.X+4, rect.Max.Y-5, colorWhite)
}

// drawText renders a small label at the given baseline position.
func drawText(dst *image.RGBA, text string, x, y int, col color.RGBA) {
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

func fill(dst *image.RGBA, rect image.Rectangle, col color.RGBA) {
	draw.Draw(dst, rect.Intersect(dst.Bounds()), image.NewUniform(col), image.Point{}, draw.Src)
}

// placeholderFrame is shown while attendance is stopped.
func placeholderFrame() *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, 640, 480))
	fill(dst, dst.Bounds(), color.RGBA{0, 0, 0, 255})
	drawText(dst, "Attendance Stopped", 250, 240, colorIdleText)
	drawText(dst, "Start a session to resume", 230, 260, colorIdleText)
	return dst
}
