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

// Plane is a luminance plane as delivered by a frame source. Rows may be
// padded (RowStride > Width) and samples may be interleaved
// (PixelStride > 1).
type Plane struct {
	Data        []byte
	Width       int
	Height      int
	RowStride   int
	PixelStride int
}

// TightPlane wraps a packed width x height luminance buffer.
func TightPlane(data []byte, width, height int) Plane {
	return Plane{
		Data:        data,
		Width:       width,
		Height:      height,
		RowStride:   width,
		PixelStride: 1,
	}
}

// ExtractLuma copies the plane into a packed width*height buffer, reusing
// out when it is big enough. Rows missing from a short buffer are left
// zeroed.
func ExtractLuma(p Plane, out []byte) []byte {
	width, height := p.Width, p.Height
	if width < 0 || height < 0 {
		width, height = 0, 0
	}
	n := width * height
	if cap(out) < n {
		out = make([]byte, n)
	}
	out = out[:n]
	for i := range out {
		out[i] = 0
	}

	rowStride := p.RowStride
	if rowStride <= 0 {
		rowStride = width
	}
	pixelStride := p.PixelStride
	if pixelStride <= 0 {
		pixelStride = 1
	}

	if pixelStride == 1 {
		for row := 0; row < height; row++ {
			rowStart := row * rowStride
			if rowStart+width > len(p.Data) {
				break
			}
			copy(out[row*width:(row+1)*width], p.Data[rowStart:rowStart+width])
		}
		return out
	}

	for row := 0; row < height; row++ {
		rowStart := row * rowStride
		available := len(p.Data) - rowStart
		if available <= 0 {
			break
		}
		if available > rowStride {
			available = rowStride
		}
		src := p.Data[rowStart : rowStart+available]
		dst := out[row*width : (row+1)*width]
		for column, srcIndex := 0, 0; column < width && srcIndex < len(src); column, srcIndex = column+1, srcIndex+pixelStride {
			dst[column] = src[srcIndex]
		}
	}
	return out
}
