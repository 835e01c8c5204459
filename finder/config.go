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
	"errors"
	"time"
)

const (
	// MinAnalysisInterval is the shortest gap between analysed frames.
	MinAnalysisInterval = 100 * time.Millisecond
	// MinDispatchInterval is the shortest gap between two non-nil results.
	MinDispatchInterval = 16 * time.Millisecond
)

type Config struct {
	Profile   Profile `yaml:"profile"`
	MaxWidth  int     `yaml:"max-width"`
	MaxHeight int     `yaml:"max-height"`
	Verbose   bool    `yaml:"verbose"`
	LogEvery  int     `yaml:"log-every"`
}

func DefaultConfig() Config {
	return Config{
		Profile:   Outdoor,
		MaxWidth:  320,
		MaxHeight: 240,
		LogEvery:  50,
	}
}

func (conf *Config) Validate() error {
	if conf.MaxWidth <= 0 || conf.MaxHeight <= 0 {
		return errors.New("max-width and max-height must be positive")
	}
	if conf.LogEvery < 1 {
		return errors.New("log-every must be at least 1")
	}
	return nil
}

// Accepts reports whether frames of the given size can be analysed.
func (conf *Config) Accepts(width, height int) bool {
	return width <= conf.MaxWidth && height <= conf.MaxHeight
}
