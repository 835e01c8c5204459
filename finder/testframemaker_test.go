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

import "time"

const (
	testWidth  = 40
	testHeight = 30
)

// testFrameMaker plays synthetic luminance frames into an engine while
// driving its clock forward one analysis interval per frame.
type testFrameMaker struct {
	engine        *Engine
	width         int
	height        int
	rowStride     int
	BackgroundVal byte
	BlockVal      byte
	blockX        int
	blockY        int
	blockSize     int
	blockShown    bool
	now           time.Time
}

func makeTestFrameMaker(engine *Engine) *testFrameMaker {
	tfm := &testFrameMaker{
		engine:        engine,
		width:         testWidth,
		height:        testHeight,
		rowStride:     testWidth,
		BackgroundVal: 50,
		BlockVal:      200,
		blockX:        10,
		blockY:        10,
		blockSize:     10,
		now:           time.Date(2026, 5, 1, 6, 0, 0, 0, time.UTC),
	}
	engine.nowFunc = func() time.Time { return tfm.now }
	return tfm
}

// AddStillFrames plays frames of plain background.
func (tfm *testFrameMaker) AddStillFrames(frames int) *testFrameMaker {
	for i := 0; i < frames; i++ {
		tfm.PlayFrame(tfm.makeFrame(false))
	}
	return tfm
}

// AddBlockFrames plays frames where the block alternately appears and
// disappears, so every difference map shows the same block.
func (tfm *testFrameMaker) AddBlockFrames(frames int) *testFrameMaker {
	for i := 0; i < frames; i++ {
		tfm.blockShown = !tfm.blockShown
		tfm.PlayFrame(tfm.makeFrame(tfm.blockShown))
	}
	return tfm
}

// AddFlashFrames plays frames where the whole view changes brightness.
func (tfm *testFrameMaker) AddFlashFrames(frames int) *testFrameMaker {
	for i := 0; i < frames; i++ {
		frame := tfm.makeFrame(false)
		for j := range frame.Data {
			frame.Data[j] = tfm.BackgroundVal + byte(100+i%2*50)
		}
		tfm.PlayFrame(frame)
	}
	return tfm
}

// Wait moves the clock forward without playing a frame.
func (tfm *testFrameMaker) Wait(d time.Duration) *testFrameMaker {
	tfm.now = tfm.now.Add(d)
	return tfm
}

func (tfm *testFrameMaker) PlayFrame(frame Plane) {
	tfm.engine.Analyze(frame)
	tfm.now = tfm.now.Add(MinAnalysisInterval)
}

func (tfm *testFrameMaker) makeFrame(withBlock bool) Plane {
	data := make([]byte, tfm.rowStride*tfm.height)
	for y := 0; y < tfm.height; y++ {
		for x := 0; x < tfm.rowStride; x++ {
			if x >= tfm.width {
				data[y*tfm.rowStride+x] = 0xff
				continue
			}
			data[y*tfm.rowStride+x] = tfm.BackgroundVal
		}
	}
	if withBlock {
		for y := tfm.blockY; y < tfm.blockY+tfm.blockSize; y++ {
			for x := tfm.blockX; x < tfm.blockX+tfm.blockSize; x++ {
				data[y*tfm.rowStride+x] = tfm.BlockVal
			}
		}
	}
	return Plane{
		Data:        data,
		Width:       tfm.width,
		Height:      tfm.height,
		RowStride:   tfm.rowStride,
		PixelStride: 1,
	}
}
