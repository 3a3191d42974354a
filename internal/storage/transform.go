package storage

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/h2non/bimg"
	"github.com/petermazzocco/snapgram/internal/backend"
)

const (
	maxDimension = 4000
)

var gravities = map[string]bimg.Gravity{
	"center": bimg.GravityCentre,
	"top":    bimg.GravityNorth,
	"bottom": bimg.GravitySouth,
	"left":   bimg.GravityWest,
	"right":  bimg.GravityEast,
	"smart":  bimg.GravitySmart,
}

// Transform crops data to the requested box anchored at the gravity and
// encodes it as JPEG.
func Transform(data []byte, opts backend.PreviewOptions) ([]byte, error) {
	gravity, ok := gravities[opts.Gravity]
	if !ok {
		return nil, fmt.Errorf("unknown gravity %q", opts.Gravity)
	}
	return bimg.NewImage(data).Process(bimg.Options{
		Width:   opts.Width,
		Height:  opts.Height,
		Crop:    true,
		Gravity: gravity,
		Quality: opts.Quality,
		Type:    bimg.JPEG,
	})
}

// ParsePreviewOptions reads width, height, gravity and quality from q,
// falling back to def for absent values.
func ParsePreviewOptions(q url.Values, def backend.PreviewOptions) (backend.PreviewOptions, error) {
	opts := def

	var err error
	if opts.Width, err = intParam(q, "width", def.Width, 1, maxDimension); err != nil {
		return opts, err
	}
	if opts.Height, err = intParam(q, "height", def.Height, 1, maxDimension); err != nil {
		return opts, err
	}
	if opts.Quality, err = intParam(q, "quality", def.Quality, 1, 100); err != nil {
		return opts, err
	}
	if g := q.Get("gravity"); g != "" {
		if _, ok := gravities[g]; !ok {
			return opts, fmt.Errorf("gravity %q: %w", g, backend.ErrInvalidInput)
		}
		opts.Gravity = g
	}
	return opts, nil
}

func intParam(q url.Values, name string, def, lo, hi int) (int, error) {
	raw := q.Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < lo || n > hi {
		return 0, fmt.Errorf("%s %q out of range [%d, %d]: %w", name, raw, lo, hi, backend.ErrInvalidInput)
	}
	return n, nil
}
