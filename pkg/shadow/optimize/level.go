package optimize

import (
	"fmt"
	"strings"
)

// Level selects how much work the offline optimizer does. Each level
// includes everything below it.
type Level int

const (
	// None generates shadows per surface without any optimization.
	None Level = iota
	// MergeSurfaces combines all shadow casters of a light into one
	// surface but still builds the volume without the optimizer.
	MergeSurfaces
	// CullOccluded drops triangles hidden entirely behind closer ones and
	// merges coplanar caps.
	CullOccluded
	// ClipOccluders keeps only the visible fragments of partly hidden
	// triangles.
	ClipOccluders
	// ClipSils fragments silhouette quads and cancels matched pairs.
	ClipSils
	// SilOptimize also merges coplanar silhouette triangles.
	SilOptimize
)

// DefaultLevel is the level used when none is configured.
const DefaultLevel = ClipSils

var levelNames = [...]string{
	None:          "none",
	MergeSurfaces: "merge_surfaces",
	CullOccluded:  "cull_occluded",
	ClipOccluders: "clip_occluders",
	ClipSils:      "clip_sils",
	SilOptimize:   "sil_optimize",
}

func (l Level) String() string {
	if l < 0 || int(l) >= len(levelNames) {
		return fmt.Sprintf("Level(%d)", int(l))
	}
	return levelNames[l]
}

// ParseLevel accepts a level name or its number.
func ParseLevel(s string) (Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range levelNames {
		if s == name || s == fmt.Sprint(i) {
			return Level(i), nil
		}
	}
	return 0, fmt.Errorf("unknown optimization level %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Level) UnmarshalText(b []byte) error {
	v, err := ParseLevel(string(b))
	if err != nil {
		return err
	}
	*l = v
	return nil
}

// Offline reports whether the level runs the occluder optimizer.
func (l Level) Offline() bool {
	return l >= CullOccluded
}

// Valid reports whether l names one of the defined levels.
func (l Level) Valid() bool {
	return l >= None && l <= SilOptimize
}
