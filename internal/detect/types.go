package detect

import "image"

// Box is a face bounding box in source-frame pixel coordinates.
type Box struct {
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
	Left   int `json:"left"`
}

// Scale multiplies all coordinates by f. Detection runs on a downscaled
// frame; Scale(1/f) with the exact inverse factor maps boxes back to full
// resolution so the rendered rectangles stay aligned.
func (b Box) Scale(f float64) Box {
	return Box{
		Top:    int(float64(b.Top) * f),
		Right:  int(float64(b.Right) * f),
		Bottom: int(float64(b.Bottom) * f),
		Left:   int(float64(b.Left) * f),
	}
}

// Rect converts the box to an image.Rectangle for drawing.
func (b Box) Rect() image.Rectangle {
	return image.Rect(b.Left, b.Top, b.Right, b.Bottom)
}

// Face is one detected face: its location plus the embedding computed for it.
type Face struct {
	Box       Box
	Embedding []float32
}
