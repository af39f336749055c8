package volume

import "fmt"

// IndexError reports a coordinate outside the volume.
type IndexError struct {
	Axis  string // "x", "y" or "d"
	Index int
	Size  int
}

// Error implements the error interface.
func (e *IndexError) Error() string {
	return fmt.Sprintf("volume: %s index %d out of range [0, %d)", e.Axis, e.Index, e.Size)
}

func (v *Volume) checkBounds(x, y, d int) {
	switch {
	case x < 0 || x >= v.width:
		panic(&IndexError{Axis: "x", Index: x, Size: v.width})
	case y < 0 || y >= v.height:
		panic(&IndexError{Axis: "y", Index: y, Size: v.height})
	case d < 0 || d >= v.depth:
		panic(&IndexError{Axis: "d", Index: d, Size: v.depth})
	}
}
