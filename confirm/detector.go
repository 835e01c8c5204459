// bird-finder - locate and confirm small moving subjects in camera frames
//  Copyright (C) 2026, The Cacophony Project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package confirm

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"
)

// Detection is the result of scoring a crop. Score is in [0,1].
type Detection struct {
	Score float64
}

// Detector scores how likely a crop is to contain a bird.
type Detector interface {
	Detect(ctx context.Context, crop *Crop) (Detection, error)
}

const (
	HeuristicDetectorName = "heuristic"
	NoopDetectorName      = "noop"
)

// NewDetector returns the detector registered under name.
func NewDetector(name string) (Detector, error) {
	switch name {
	case HeuristicDetectorName, "":
		return HeuristicDetector{}, nil
	case NoopDetectorName:
		return NoopDetector{}, nil
	}
	return nil, fmt.Errorf("unknown detector %q", name)
}

// NoopDetector scores everything 0.
type NoopDetector struct{}

func (NoopDetector) Detect(ctx context.Context, crop *Crop) (Detection, error) {
	return Detection{}, nil
}

// luminanceScale maps the luminance standard deviation to a score.
const luminanceScale = 64.0

// HeuristicDetector scores a crop by the spread of its luminance. Flat
// sky or foliage scores low, a contrasting subject scores high.
type HeuristicDetector struct{}

func (HeuristicDetector) Detect(ctx context.Context, crop *Crop) (Detection, error) {
	if crop == nil || crop.Image == nil {
		return Detection{}, nil
	}
	bounds := crop.Image.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= 0 || height <= 0 {
		return Detection{}, nil
	}
	if err := ctx.Err(); err != nil {
		return Detection{}, err
	}

	var sum, sumSq float64
	addLuma := func(l float64) {
		sum += l
		sumSq += l * l
	}
	switch img := crop.Image.(type) {
	case *image.Gray:
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			row := img.Pix[img.PixOffset(bounds.Min.X, y):img.PixOffset(bounds.Max.X, y)]
			for _, v := range row {
				addLuma(float64(v))
			}
		}
	case *image.RGBA:
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			row := img.Pix[img.PixOffset(bounds.Min.X, y):img.PixOffset(bounds.Max.X, y)]
			for i := 0; i+3 < len(row); i += 4 {
				addLuma(luminance(row[i], row[i+1], row[i+2]))
			}
		}
	default:
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				c := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
				addLuma(luminance(c.R, c.G, c.B))
			}
		}
	}

	n := float64(width * height)
	if n < 1 {
		n = 1
	}
	mean := sum / n
	variance := math.Max(sumSq/n-mean*mean, 0)
	score := math.Sqrt(variance) / luminanceScale
	return Detection{Score: math.Min(math.Max(score, 0), 1)}, nil
}

func luminance(r, g, b uint8) float64 {
	return 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
}
