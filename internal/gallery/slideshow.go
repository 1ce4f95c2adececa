package gallery

import (
	"errors"
	"path/filepath"
	"time"
)

// ErrEmpty is returned by the slideshow when the gallery has no images
var ErrEmpty = errors.New("gallery is empty")

const (
	// MinInterval is the fastest slideshow tick
	MinInterval = 500 * time.Millisecond
	// MaxSpeed is the top of the speed scale
	MaxSpeed = 10

	baseInterval = 3500 * time.Millisecond
	speedStep    = 300 * time.Millisecond
)

// Interval converts a speed in 1..MaxSpeed into a tick interval
func Interval(speed int) time.Duration {
	d := baseInterval - time.Duration(speed)*speedStep
	if d < MinInterval {
		return MinInterval
	}
	return d
}

// SpeedFor is the inverse of Interval, clamped to 1..MaxSpeed
func SpeedFor(d time.Duration) int {
	speed := int((baseInterval - d + speedStep/2) / speedStep)
	switch {
	case speed < 1:
		return 1
	case speed > MaxSpeed:
		return MaxSpeed
	default:
		return speed
	}
}

// Slide is one slideshow frame. Position is 1-based and Total comes from
// the scan made for this frame.
type Slide struct {
	Name     string
	Path     string
	Position int
	Total    int
}

// Slideshow cycles through the gallery. Each Next rescans the folder, so
// files added or deleted while it runs are picked up on the next tick.
type Slideshow struct {
	folder string
	next   int
}

// NewSlideshow starts a slideshow at the first image
func NewSlideshow(folder string) *Slideshow {
	return &Slideshow{folder: folder}
}

// Next returns the current frame and advances the cursor, wrapping around
// at the end. When the gallery shrank below the cursor it wraps to the
// start.
func (s *Slideshow) Next() (Slide, error) {
	names, err := List(s.folder)
	if err != nil {
		return Slide{}, err
	}
	if len(names) == 0 {
		s.next = 0
		return Slide{}, ErrEmpty
	}

	i := s.next % len(names)
	s.next = (i + 1) % len(names)

	return Slide{
		Name:     names[i],
		Path:     filepath.Join(s.folder, names[i]),
		Position: i + 1,
		Total:    len(names),
	}, nil
}

// Reset moves the cursor back to the first image
func (s *Slideshow) Reset() {
	s.next = 0
}
