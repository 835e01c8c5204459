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
	"github.com/stretchr/testify/require"
)

func fillRect(mask []bool, width, x0, y0, w, h int) {
	for y := y0; y < y0+h; y++ {
		for x := x0; x < x0+w; x++ {
			mask[y*width+x] = true
		}
	}
}

func TestLargestQualifyingBlobWins(t *testing.T) {
	width, height := 100, 100
	mask := make([]bool, width*height)
	fillRect(mask, width, 5, 5, 10, 10)   // 100 px
	fillRect(mask, width, 50, 50, 10, 20) // 200 px

	blob := LargestBlob(mask, width, height, 0.005, 0.05)
	require.NotNil(t, blob)
	assert.Equal(t, 200, blob.Area)
	cx, cy := blob.Centroid()
	assert.InDelta(t, 54.5, cx, 1e-9)
	assert.InDelta(t, 59.5, cy, 1e-9)
}

func TestBlobOutsideRangeIgnored(t *testing.T) {
	width, height := 100, 100
	mask := make([]bool, width*height)
	fillRect(mask, width, 0, 0, 40, 40)  // 16% too big
	fillRect(mask, width, 60, 60, 2, 2)  // 0.04% too small
	fillRect(mask, width, 70, 10, 10, 10) // 1%

	blob := LargestBlob(mask, width, height, 0.008, 0.15)
	require.NotNil(t, blob)
	assert.Equal(t, 100, blob.Area)

	assert.Nil(t, LargestBlob(mask, width, height, 0.02, 0.15))
}

func TestBlobRangeIsInclusive(t *testing.T) {
	width, height := 10, 10
	mask := make([]bool, width*height)
	fillRect(mask, width, 0, 0, 5, 2) // 10 px = 0.1

	blob := LargestBlob(mask, width, height, 0.1, 0.1)
	require.NotNil(t, blob)
	assert.Equal(t, 10, blob.Area)
}

func TestBlobTieFirstFoundWins(t *testing.T) {
	width, height := 20, 20
	mask := make([]bool, width*height)
	fillRect(mask, width, 12, 2, 3, 3)
	fillRect(mask, width, 2, 12, 3, 3)

	blob := LargestBlob(mask, width, height, 0, 1)
	require.NotNil(t, blob)
	cx, cy := blob.Centroid()
	assert.InDelta(t, 13.0, cx, 1e-9)
	assert.InDelta(t, 3.0, cy, 1e-9)
}

func TestBlobDiagonalNeighboursConnect(t *testing.T) {
	width, height := 5, 5
	mask := make([]bool, width*height)
	for i := 0; i < 5; i++ {
		mask[i*width+i] = true
	}

	blob := LargestBlob(mask, width, height, 0, 1)
	require.NotNil(t, blob)
	assert.Equal(t, 5, blob.Area)
	assert.Equal(t, int64(10), blob.SumX)
	assert.Equal(t, int64(10), blob.SumY)
}

func TestBlobEmptyMask(t *testing.T) {
	mask := make([]bool, 16)
	assert.Nil(t, LargestBlob(mask, 4, 4, 0, 1))
	assert.Nil(t, LargestBlob(nil, 0, 0, 0, 1))
	assert.Nil(t, LargestBlob(mask, 5, 5, 0, 1))
}

func TestBlobScratchReuse(t *testing.T) {
	var scratch blobScratch
	width, height := 10, 10
	mask := make([]bool, width*height)
	fillRect(mask, width, 1, 1, 3, 3)

	first := scratch.largest(mask, width, height, 0, 1)
	second := scratch.largest(mask, width, height, 0, 1)
	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.Equal(t, *first, *second)
}
