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

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnalyzeDiff(t *testing.T) {
	previous := []byte{10, 10, 200, 0}
	current := []byte{10, 14, 100, 255}

	var stats DiffStats
	AnalyzeDiff(current, previous, &stats)

	assert.Equal(t, []uint8{0, 4, 100, 255}, stats.Deltas)
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 1, stats.Histogram[0])
	assert.Equal(t, 1, stats.Histogram[4])
	assert.Equal(t, 1, stats.Histogram[100])
	assert.Equal(t, 1, stats.Histogram[255])
	assert.InDelta(t, 89.75, stats.Mean, 1e-9)
	sumSq := 0.0 + 16 + 10000 + 65025
	assert.InDelta(t, sumSq/4-89.75*89.75, stats.Variance, 1e-9)
}

func TestAnalyzeDiffIdenticalFrames(t *testing.T) {
	frame := []byte{1, 2, 3, 4, 5, 6}

	var stats DiffStats
	AnalyzeDiff(frame, frame, &stats)

	assert.Equal(t, 6, stats.Histogram[0])
	assert.Equal(t, 0.0, stats.Mean)
	assert.Equal(t, 0.0, stats.Variance)
}

func TestAnalyzeDiffReusesBuffers(t *testing.T) {
	var stats DiffStats
	AnalyzeDiff([]byte{0, 0, 0}, []byte{9, 9, 9}, &stats)
	assert.Equal(t, 3, stats.Histogram[9])

	AnalyzeDiff([]byte{1}, []byte{1}, &stats)
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 0, stats.Histogram[9])
	assert.Equal(t, 1, stats.Histogram[0])
	assert.Len(t, stats.Deltas, 1)
}

func TestAnalyzeDiffEmpty(t *testing.T) {
	var stats DiffStats
	AnalyzeDiff(nil, nil, &stats)
	assert.Equal(t, 0, stats.Total)
}
