package tensor

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedLayout is returned for an axis convention other than
// ChannelsFirst or ChannelsLast.
var ErrUnsupportedLayout = errors.New("unsupported dimension ordering")

// Layout selects where the channel axis sits in a 4D image tensor.
type Layout int

// Supported layouts.
const (
	// ChannelsFirst is NCHW ("th" ordering).
	ChannelsFirst Layout = iota
	// ChannelsLast is NHWC ("tf" ordering).
	ChannelsLast
)

// ParseLayout accepts "th"/"channels_first"/"nchw" and "tf"/"channels_last"/"nhwc".
func ParseLayout(s string) (Layout, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "th", "channels_first", "nchw":
		return ChannelsFirst, nil
	case "tf", "channels_last", "nhwc":
		return ChannelsLast, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedLayout, s)
	}
}

// Validate reports ErrUnsupportedLayout for values outside the enum.
func (l Layout) Validate() error {
	switch l {
	case ChannelsFirst, ChannelsLast:
		return nil
	default:
		return fmt.Errorf("%w: %d", ErrUnsupportedLayout, int(l))
	}
}

// String returns the layout name.
func (l Layout) String() string {
	switch l {
	case ChannelsFirst:
		return "channels_first"
	case ChannelsLast:
		return "channels_last"
	default:
		return fmt.Sprintf("Layout(%d)", int(l))
	}
}

// ChannelAxis returns the index of the channel axis in a 4D tensor.
func (l Layout) ChannelAxis() int {
	if l == ChannelsLast {
		return 3
	}
	return 1
}

// SpatialAxes returns the indices of the height and width axes.
func (l Layout) SpatialAxes() (h, w int) {
	if l == ChannelsLast {
		return 1, 2
	}
	return 2, 3
}

// Shape builds a 4D shape in this layout.
func (l Layout) Shape(batch, channels, height, width int) Shape {
	if l == ChannelsLast {
		return Shape{batch, height, width, channels}
	}
	return Shape{batch, channels, height, width}
}

// Channels returns the channel count of a 4D shape in this layout.
func (l Layout) Channels(s Shape) int {
	return s[l.ChannelAxis()]
}

// Spatial returns the height and width of a 4D shape in this layout.
func (l Layout) Spatial(s Shape) (height, width int) {
	h, w := l.SpatialAxes()
	return s[h], s[w]
}

// ToNCHW returns the permutation turning this layout into NCHW,
// or nil when no permutation is needed.
func (l Layout) ToNCHW() []int {
	if l == ChannelsLast {
		return []int{0, 3, 1, 2}
	}
	return nil
}

// FromNCHW returns the permutation turning NCHW into this layout,
// or nil when no permutation is needed.
func (l Layout) FromNCHW() []int {
	if l == ChannelsLast {
		return []int{0, 2, 3, 1}
	}
	return nil
}

// Check verifies that s is a 4D shape.
func (l Layout) Check(s Shape) error {
	if len(s) != 4 {
		return fmt.Errorf("expected 4D %s shape, got %dD %v", l, len(s), s)
	}
	return nil
}
