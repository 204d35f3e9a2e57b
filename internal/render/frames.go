package render

import "fmt"

// FrameID identifies one rendered frame of a section.
type FrameID struct {
	Index    int // one-based position in the animation
	Timestep int
	Name     string
}

// FrameName is prefix + zero-padded (t+1) + ".png".
func FrameName(prefix string, t int) string {
	return fmt.Sprintf("%s%03d.png", prefix, t+1)
}

// Frames lists the frames of timesteps [0, count) in generation order.
// The slice can be walked any number of times.
func Frames(prefix string, count int) []FrameID {
	frames := make([]FrameID, count)
	for t := range frames {
		frames[t] = FrameID{Index: t + 1, Timestep: t, Name: FrameName(prefix, t)}
	}
	return frames
}

// FrameError wraps a rendering failure with the frame it happened on.
type FrameError struct {
	Section string
	Frame   FrameID
	Wrapped error
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("render: %s frame %d (t=%d): %v", e.Section, e.Frame.Index, e.Frame.Timestep, e.Wrapped)
}

func (e *FrameError) Unwrap() error {
	return e.Wrapped
}
