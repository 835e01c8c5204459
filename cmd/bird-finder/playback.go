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

package main

import (
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/TheCacophonyProject/go-cptv/cptvframe"
	"github.com/TheCacophonyProject/lepton3"
	pkgerrors "github.com/pkg/errors"

	"github.com/TheCacophonyProject/bird-finder/finder"
)

// playbackCamera describes the Lepton 3 frames in a raw dump.
type playbackCamera struct{}

func (playbackCamera) ResX() int { return lepton3.FrameCols }
func (playbackCamera) ResY() int { return lepton3.FrameRows }
func (playbackCamera) FPS() int  { return lepton3.FramesHz }

type playbackResults struct {
	frames   int
	results  int
	locks    int
	lockedAt []int
}

func (r *playbackResults) String() string {
	return fmt.Sprintf("frames: %d results: %d locks: %d first lock frames: %v",
		r.frames, r.results, r.locks, r.lockedAt)
}

// runPlayback feeds a file of raw Lepton 3 frames, as written by leptond,
// through the finder at the camera frame rate on a simulated clock.
func runPlayback(conf *Config, filename string) (*playbackResults, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "opening playback file")
	}
	defer file.Close()
	return playback(conf, file)
}

func playback(conf *Config, r io.Reader) (*playbackResults, error) {
	results := new(playbackResults)
	locked := false
	listener := finder.ListenerFunc(func(result *finder.Result) {
		results.results++
		if result != nil && !locked {
			results.locks++
			results.lockedAt = append(results.lockedAt, results.frames)
		}
		locked = result != nil
	})

	now := time.Time{}
	frameInterval := time.Second / lepton3.FramesHz
	engine := finder.NewEngineWithClock(conf.Finder, finder.Inline, listener, func() time.Time { return now })
	engine.SetViewSize(conf.ViewWidth, conf.ViewHeight)

	camera := playbackCamera{}
	raw := lepton3.NewRawFrame()
	frame := cptvframe.NewFrame(camera)
	luma := make([]byte, camera.ResX()*camera.ResY())
	for {
		if _, err := io.ReadFull(r, raw); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return results, nil
			}
			return nil, pkgerrors.Wrap(err, "reading playback frame")
		}
		if err := lepton3.ParseRawFrame(raw, frame); err != nil {
			return nil, pkgerrors.Wrapf(err, "parsing frame %d", results.frames)
		}
		results.frames++
		now = now.Add(frameInterval)

		normalise(frame, luma)
		engine.Analyze(finder.TightPlane(luma, camera.ResX(), camera.ResY()))
	}
}

// normalise stretches the thermal values of frame over 0-255.
func normalise(frame *cptvframe.Frame, out []byte) {
	valMin, valMax := uint16(math.MaxUint16), uint16(0)
	for _, row := range frame.Pix {
		for _, val := range row {
			valMin = minUint16(valMin, val)
			valMax = maxUint16(valMax, val)
		}
	}
	span := float64(valMax) - float64(valMin)
	i := 0
	for _, row := range frame.Pix {
		for _, val := range row {
			if span > 0 {
				out[i] = uint8(math.Round(float64(val-valMin) * 255 / span))
			} else {
				out[i] = 0
			}
			i++
		}
	}
}

func maxUint16(a, b uint16) uint16 {
	if a > b {
		return a
	}
	return b
}

func minUint16(a, b uint16) uint16 {
	if a < b {
		return a
	}
	return b
}
