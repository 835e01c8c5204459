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

package confirm

import (
	"errors"
	"time"
)

type Config struct {
	GateInterval        time.Duration `yaml:"gate-interval"`
	Detector            string        `yaml:"detector"`
	ROIFrac             float64       `yaml:"roi-frac"`
	// ScoreInputSize scales crops to a fixed square before scoring. Zero
	// scores the crop at its native size, which the heuristic detector
	// needs for its luminance spread to be exact.
	ScoreInputSize      uint          `yaml:"score-input-size"`
	ConfidenceThreshold float64       `yaml:"confidence-threshold"`
	OverlayTTL          time.Duration `yaml:"overlay-ttl"`
	Timeout             time.Duration `yaml:"timeout"`
}

func DefaultConfig() Config {
	return Config{
		GateInterval:        DefaultGateInterval,
		Detector:            HeuristicDetectorName,
		ROIFrac:             DefaultROIFrac,
		ConfidenceThreshold: DefaultConfidenceThreshold,
		OverlayTTL:          DefaultOverlayTTL,
		Timeout:             2 * time.Second,
	}
}

func (conf *Config) Validate() error {
	if conf.GateInterval < 0 {
		return errors.New("gate-interval can't be negative")
	}
	if conf.ROIFrac <= 0 || conf.ROIFrac > 1 {
		return errors.New("roi-frac must be between 0 and 1")
	}
	if conf.ConfidenceThreshold < MinConfidenceThreshold || conf.ConfidenceThreshold > MaxConfidenceThreshold {
		return errors.New("confidence-threshold must be between 0.3 and 0.8")
	}
	if conf.OverlayTTL <= 0 {
		return errors.New("overlay-ttl must be positive")
	}
	if conf.Timeout <= 0 {
		return errors.New("timeout must be positive")
	}
	if _, err := NewDetector(conf.Detector); err != nil {
		return err
	}
	return nil
}
