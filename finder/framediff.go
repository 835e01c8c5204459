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

// DiffStats holds the per pixel absolute differences between two
// luminance frames along with their histogram and summary statistics.
// The buffers are reused between calls to AnalyzeDiff.
type DiffStats struct {
	Deltas    []uint8
	Histogram [256]int
	Total     int
	Mean      float64
	// Variance is the population variance. It is not clamped so can be
	// very slightly negative due to floating point error.
	Variance float64
}

// AnalyzeDiff fills stats with the absolute difference between current and
// previous. Both frames must be the same length.
func AnalyzeDiff(current, previous []byte, stats *DiffStats) {
	n := len(current)
	if len(previous) < n {
		n = len(previous)
	}
	if cap(stats.Deltas) < n {
		stats.Deltas = make([]uint8, n)
	}
	stats.Deltas = stats.Deltas[:n]
	stats.Histogram = [256]int{}
	stats.Total = n
	stats.Mean = 0
	stats.Variance = 0
	if n == 0 {
		return
	}

	var sum, sumSq int64
	for i := 0; i < n; i++ {
		delta := absDiff(current[i], previous[i])
		stats.Deltas[i] = delta
		stats.Histogram[delta]++
		sum += int64(delta)
		sumSq += int64(delta) * int64(delta)
	}

	stats.Mean = float64(sum) / float64(n)
	stats.Variance = float64(sumSq)/float64(n) - stats.Mean*stats.Mean
}

func absDiff(a, b uint8) uint8 {
	if a > b {
		return a - b
	}
	return b - a
}
