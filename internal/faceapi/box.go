package faceapi

import "errors"

// Box is a face bounding box in pixel coordinates, top-left corner plus size.
// All boxes handed out by this package are normalized to this form.
type Box struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// ErrInvalidFacialArea is returned when the server response carries a facial
// area in neither of the two supported shapes.
var ErrInvalidFacialArea = errors.New("facial area has neither x/y/w/h nor x1/y1/x2/y2 coordinates")

// facialArea is the wire form of a detected face region. The detection
// server reports either a top-left + size quadruple or two corner points,
// depending on the backend. Pointers distinguish absent from zero.
type facialArea struct {
	X *int `json:"x,omitempty"`
	Y *int `json:"y,omitempty"`
	W *int `json:"w,omitempty"`
	H *int `json:"h,omitempty"`

	X1 *int `json:"x1,omitempty"`
	Y1 *int `json:"y1,omitempty"`
	X2 *int `json:"x2,omitempty"`
	Y2 *int `json:"y2,omitempty"`
}

// toBox normalizes either wire shape to top-left + size.
func (fa facialArea) toBox() (Box, error) {
	if fa.X != nil && fa.Y != nil && fa.W != nil && fa.H != nil {
		return Box{X: *fa.X, Y: *fa.Y, W: *fa.W, H: *fa.H}, nil
	}
	if fa.X1 != nil && fa.Y1 != nil && fa.X2 != nil && fa.Y2 != nil {
		return Box{
			X: *fa.X1,
			Y: *fa.Y1,
			W: max(0, *fa.X2-*fa.X1),
			H: max(0, *fa.Y2-*fa.Y1),
		}, nil
	}
	return Box{}, ErrInvalidFacialArea
}

// ClampTo clamps the box to an image of the given size so that the box lies
// inside the image and width/height stay at least 1.
func (b Box) ClampTo(width, height int) Box {
	b.X = max(0, min(b.X, width-1))
	b.Y = max(0, min(b.Y, height-1))
	b.W = max(1, min(b.W, width-b.X))
	b.H = max(1, min(b.H, height-b.Y))
	return b
}
