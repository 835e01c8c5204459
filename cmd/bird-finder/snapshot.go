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
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/nfnt/resize"
	pkgerrors "github.com/pkg/errors"

	"github.com/TheCacophonyProject/bird-finder/finder"
)

const (
	snapshotName          = "still.png"
	thumbnailName         = "still-thumb.png"
	thumbnailSize         = 96
	allowedSnapshotPeriod = 500 * time.Millisecond
)

// FrameSource supplies the most recently analysed frame.
type FrameSource interface {
	RecentFrame() *finder.LumaFrame
}

func newSnapshotter(dir string, source FrameSource) *snapshotter {
	return &snapshotter{
		dir:     dir,
		source:  source,
		nowFunc: time.Now,
	}
}

// snapshotter writes the latest analysed frame and a thumbnail of it as
// PNG files.
type snapshotter struct {
	mu           sync.Mutex
	dir          string
	source       FrameSource
	previousTime time.Time
	nowFunc      func() time.Time
}

func (s *snapshotter) take() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.nowFunc()
	if now.Sub(s.previousTime) < allowedSnapshotPeriod {
		return nil
	}

	f := s.source.RecentFrame()
	if f == nil {
		return errors.New("no frames yet")
	}
	img := lumaImage(f)
	if err := writePNG(filepath.Join(s.dir, snapshotName), img); err != nil {
		return err
	}
	thumb := resize.Thumbnail(thumbnailSize, thumbnailSize, img, resize.Bilinear)
	if err := writePNG(filepath.Join(s.dir, thumbnailName), thumb); err != nil {
		return err
	}

	// the time will be changed only if the attempt is successful
	s.previousTime = now
	return nil
}

func writePNG(filename string, img image.Image) error {
	out, err := os.Create(filename)
	if err != nil {
		return pkgerrors.Wrap(err, "creating snapshot")
	}
	defer out.Close()
	return pkgerrors.Wrapf(png.Encode(out, img), "encoding %s", filename)
}
