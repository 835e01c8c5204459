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

package finder

const (
	// StaticSceneThreshold is used when the difference variance is too low
	// for a histogram split to mean anything.
	StaticSceneThreshold = 16
	staticSceneVariance  = 20.0
)

// ChooseThreshold picks the binarisation threshold for a difference map.
func ChooseThreshold(stats *DiffStats) int {
	if stats.Variance < staticSceneVariance {
		return StaticSceneThreshold
	}
	return OtsuThreshold(&stats.Histogram, stats.Total)
}

// OtsuThreshold splits hist where the between class variance is highest
// and returns the lowest delta on the foreground side of the split, so it
// can be used with Binarize like the fixed threshold. This is one above
// the textbook Otsu index, which belongs to the background class. The
// first maximum wins. StaticSceneThreshold is returned when no split is
// possible.
func OtsuThreshold(hist *[256]int, total int) int {
	if total <= 0 {
		return StaticSceneThreshold
	}

	var sum float64
	for t, count := range hist {
		sum += float64(t) * float64(count)
	}

	var sumB float64
	var wB int
	maxVar := 0.0
	threshold := StaticSceneThreshold
	for t, count := range hist {
		wB += count
		if wB == 0 {
			continue
		}
		wF := total - wB
		if wF == 0 {
			break
		}
		sumB += float64(t) * float64(count)
		mB := sumB / float64(wB)
		mF := (sum - sumB) / float64(wF)
		between := float64(wB) * float64(wF) * (mB - mF) * (mB - mF)
		if between > maxVar {
			maxVar = between
			threshold = t + 1
		}
	}
	return threshold
}

// Binarize marks every delta at or above threshold and returns the number
// of marked pixels.
func Binarize(deltas []uint8, threshold int, mask []bool) int {
	onCount := 0
	for i, d := range deltas {
		on := int(d) >= threshold
		mask[i] = on
		if on {
			onCount++
		}
	}
	return onCount
}
