package config

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"

	"github.com/Faultbox/shadowvol/internal/logger"
)

// ErrInvalid wraps every problem Validate reports.
var ErrInvalid = errors.New("invalid config")

// Validate checks the settings for values the compiler cannot use. All
// problems are reported together.
func (c *Config) Validate() error {
	var err error
	invalid := func(format string, args ...any) {
		err = multierr.Append(err, fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...)))
	}

	s := c.Shadow
	if !s.Level.Valid() {
		invalid("shadow.level %s", s.Level)
	}
	limits := []struct {
		name  string
		value int
	}{
		{"shadow.max_verts", s.MaxVerts},
		{"shadow.max_indexes", s.MaxIndexes},
		{"shadow.max_clip_sil_edges", s.MaxClipSilEdges},
		{"shadow.max_unique_verts", s.MaxUniqueVerts},
		{"shadow.workers", s.Workers},
	}
	for _, l := range limits {
		if l.value < 0 {
			invalid("%s is negative (%d)", l.name, l.value)
		}
	}

	if c.Output.Dir == "" {
		invalid("output.dir is empty")
	}
	if c.Output.Preview && c.Output.PreviewSize <= 0 {
		invalid("output.preview_size %d", c.Output.PreviewSize)
	}

	if _, lerr := logger.ParseLevel(c.Logging.Level); lerr != nil {
		invalid("logging.level: %v", lerr)
	}
	return err
}
