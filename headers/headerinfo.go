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

// Package headers parses the description a frame producer sends ahead of
// its frames.
package headers

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v1"
)

// Header keys sent by frame producers.
const (
	XResolution = "ResX"
	YResolution = "ResY"
	FPS         = "FPS"
	FrameSize   = "FrameSize"
	RowStride   = "RowStride"
	PixelStride = "PixelStride"
	Brand       = "Brand"
	Model       = "Model"
)

// HeaderInfo describes the luminance frames that follow the header.
type HeaderInfo struct {
	resX        int
	resY        int
	fps         int
	framesize   int
	rowStride   int
	pixelStride int
	brand       string
	model       string
}

// ResX implements cptvframe.CameraSpec.
func (h *HeaderInfo) ResX() int {
	return h.resX
}

// ResY implements cptvframe.CameraSpec.
func (h *HeaderInfo) ResY() int {
	return h.resY
}

// FPS implements cptvframe.CameraSpec.
func (h *HeaderInfo) FPS() int {
	return h.fps
}

// FrameSize returns the number of bytes in each frame. When not sent it
// is derived from the strides.
func (h *HeaderInfo) FrameSize() int {
	return h.framesize
}

// RowStride is the number of bytes between the start of each row.
func (h *HeaderInfo) RowStride() int {
	return h.rowStride
}

// PixelStride is the number of bytes between samples in a row.
func (h *HeaderInfo) PixelStride() int {
	return h.pixelStride
}

// Model returns the camera model.
func (h *HeaderInfo) Model() string {
	return h.model
}

// Brand returns the camera brand.
func (h *HeaderInfo) Brand() string {
	return h.brand
}

func (h *HeaderInfo) String() string {
	return fmt.Sprintf("%s %s %dx%d@%dfps stride %d/%d", h.brand, h.model, h.resX, h.resY, h.fps, h.rowStride, h.pixelStride)
}

// ReadHeaderInfo reads a YAML header terminated by a blank line.
func ReadHeaderInfo(reader *bufio.Reader) (*HeaderInfo, error) {
	var buf bytes.Buffer
	for {
		line, err := reader.ReadString(byte('\n'))
		if err != nil {
			return nil, errors.Wrap(err, "reading header")
		}
		if strings.TrimSpace(line) == "" {
			break
		}
		buf.WriteString(line)
	}
	h := make(map[string]interface{})
	if err := yaml.Unmarshal(buf.Bytes(), &h); err != nil {
		return nil, errors.Wrap(err, "parsing header")
	}

	info := &HeaderInfo{
		resX:        toInt(h[XResolution]),
		resY:        toInt(h[YResolution]),
		fps:         toInt(h[FPS]),
		framesize:   toInt(h[FrameSize]),
		rowStride:   toInt(h[RowStride]),
		pixelStride: toInt(h[PixelStride]),
		brand:       toStr(h[Brand]),
		model:       toStr(h[Model]),
	}
	if info.resX <= 0 || info.resY <= 0 {
		return nil, errors.New("header is missing the frame resolution")
	}
	if info.pixelStride <= 0 {
		info.pixelStride = 1
	}
	if info.rowStride <= 0 {
		info.rowStride = info.resX * info.pixelStride
	}
	if info.framesize <= 0 {
		info.framesize = info.rowStride * info.resY
	}
	return info, nil
}

func toInt(v interface{}) int {
	out, ok := v.(int)
	if !ok {
		return 0
	}
	return out
}

func toStr(v interface{}) string {
	out, ok := v.(string)
	if !ok {
		return ""
	}
	return out
}
