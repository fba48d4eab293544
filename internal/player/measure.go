package player

import (
	"context"

	"github.com/olivier-w/sharepreview/internal/loudness"
)

// MeasureFile decodes the file at path in its native format and returns its
// integrated loudness. loudness.ErrTooQuiet is passed through unwrapped.
func MeasureFile(ctx context.Context, path string) (float64, error) {
	src, err := Open(path)
	if err != nil {
		return 0, err
	}
	defer src.Close()
	return loudness.Measure(ctx, src, src.SampleRate(), src.ChannelCount())
}
