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

// Blob is a connected group of changed pixels. The centroid is
// SumX/Area, SumY/Area.
type Blob struct {
	Area int
	SumX int64
	SumY int64
}

// Centroid returns the blob centre in pixel coordinates.
func (b *Blob) Centroid() (float64, float64) {
	return float64(b.SumX) / float64(b.Area), float64(b.SumY) / float64(b.Area)
}

var (
	neighboursX = [8]int{-1, 0, 1, -1, 1, -1, 0, 1}
	neighboursY = [8]int{-1, -1, -1, 0, 0, 1, 1, 1}
)

// blobScratch holds the visited and queue buffers so the engine doesn't
// allocate them on every frame.
type blobScratch struct {
	visited []byte
	queue   []int
}

func (s *blobScratch) ensure(n int) {
	if cap(s.visited) < n {
		s.visited = make([]byte, n)
		s.queue = make([]int, n)
	}
	s.visited = s.visited[:n]
	s.queue = s.queue[:n]
	for i := range s.visited {
		s.visited[i] = 0
	}
}

// LargestBlob flood fills the 8-connected components of mask and returns
// the largest one whose share of the frame lies within [minFrac, maxFrac].
// Ties go to the component found first in scan order. Returns nil when
// nothing qualifies.
func LargestBlob(mask []bool, width, height int, minFrac, maxFrac float64) *Blob {
	return new(blobScratch).largest(mask, width, height, minFrac, maxFrac)
}

func (s *blobScratch) largest(mask []bool, width, height int, minFrac, maxFrac float64) *Blob {
	total := width * height
	if width <= 0 || height <= 0 || len(mask) < total {
		return nil
	}
	s.ensure(total)
	visited := s.visited
	queue := s.queue

	var best Blob
	for index := 0; index < total; index++ {
		if !mask[index] || visited[index] != 0 {
			continue
		}
		head, tail := 0, 0
		queue[tail] = index
		tail++
		visited[index] = 1

		var area int
		var sumX, sumY int64
		for head < tail {
			current := queue[head]
			head++
			y := current / width
			x := current % width
			area++
			sumX += int64(x)
			sumY += int64(y)
			for i := range neighboursX {
				nx := x + neighboursX[i]
				ny := y + neighboursY[i]
				if nx < 0 || ny < 0 || nx >= width || ny >= height {
					continue
				}
				ni := ny*width + nx
				if !mask[ni] || visited[ni] != 0 {
					continue
				}
				visited[ni] = 1
				queue[tail] = ni
				tail++
			}
		}

		frac := float64(area) / float64(total)
		if frac >= minFrac && frac <= maxFrac && area > best.Area {
			best = Blob{Area: area, SumX: sumX, SumY: sumY}
		}
	}

	if best.Area == 0 {
		return nil
	}
	return &best
}
