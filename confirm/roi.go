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
	"image"
	"image/draw"
	"math"

	"github.com/TheCacophonyProject/bird-finder/finder"
)

// DefaultROIFrac is the ROI side as a fraction of the shorter view side.
const DefaultROIFrac = 0.35

// SquareFromOffset returns the ROI square centred on the normalised view
// offset (ox, oy). The square may be cut short at the right and bottom
// edges of the view.
func SquareFromOffset(viewW, viewH int, ox, oy, frac float64) image.Rectangle {
	if viewW <= 0 || viewH <= 0 {
		return image.Rectangle{}
	}
	side := int(float64(minInt(viewW, viewH)) * frac)
	cx := int(float64(viewW) * ox)
	cy := int(float64(viewH) * oy)
	left := clampInt(cx-side/2, 0, viewW-1)
	top := clampInt(cy-side/2, 0, viewH-1)
	right := minInt(left+side, viewW)
	bottom := minInt(top+side, viewH)
	return image.Rect(left, top, right, bottom)
}

// Crop is a region of the preview image sent to a Detector.
type Crop struct {
	Image image.Image
	// Rect is the region in view coordinates.
	Rect   image.Rectangle
	Center finder.Point
	ViewW  int
	ViewH  int
}

// CropFromPreview cuts a side x side view pixel square centred on center
// out of src, which holds the whole view at its own resolution. It returns
// nil when the geometry is degenerate.
func CropFromPreview(src image.Image, viewW, viewH int, center finder.Point, side int) *Crop {
	if src == nil || viewW <= 0 || viewH <= 0 || side <= 0 {
		return nil
	}
	center = center.Clamp()
	cx := round(center.X * float64(viewW))
	cy := round(center.Y * float64(viewH))
	half := side / 2
	left := clampInt(cx-half, 0, viewW-1)
	top := clampInt(cy-half, 0, viewH-1)
	rectW := minInt(side, viewW-left)
	rectH := minInt(side, viewH-top)
	if rectW <= 0 || rectH <= 0 {
		return nil
	}
	roi := image.Rect(left, top, left+rectW, top+rectH)

	bounds := src.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()
	if srcW <= 0 || srcH <= 0 {
		return nil
	}
	scaleX := float64(srcW) / float64(viewW)
	scaleY := float64(srcH) / float64(viewH)
	cropLeft := clampInt(round(float64(roi.Min.X)*scaleX), 0, maxInt(srcW-1, 0))
	cropTop := clampInt(round(float64(roi.Min.Y)*scaleY), 0, maxInt(srcH-1, 0))
	cropW := minInt(srcW-cropLeft, maxInt(1, round(float64(roi.Dx())*scaleX)))
	cropH := minInt(srcH-cropTop, maxInt(1, round(float64(roi.Dy())*scaleY)))
	if cropW <= 0 || cropH <= 0 {
		return nil
	}
	r := image.Rect(cropLeft, cropTop, cropLeft+cropW, cropTop+cropH).Add(bounds.Min)

	return &Crop{
		Image:  subImage(src, r),
		Rect:   roi,
		Center: center,
		ViewW:  viewW,
		ViewH:  viewH,
	}
}

type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

func subImage(src image.Image, r image.Rectangle) image.Image {
	if s, ok := src.(subImager); ok {
		return s.SubImage(r)
	}
	dst := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(dst, dst.Bounds(), src, r.Min, draw.Src)
	return dst
}

func round(v float64) int {
	return int(math.Floor(v + 0.5))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
