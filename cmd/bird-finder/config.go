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
	"io/ioutil"

	goconfig "github.com/TheCacophonyProject/go-config"
	"github.com/TheCacophonyProject/window"
	pkgerrors "github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"

	"github.com/TheCacophonyProject/bird-finder/autofire"
	"github.com/TheCacophonyProject/bird-finder/confirm"
	"github.com/TheCacophonyProject/bird-finder/finder"
	"github.com/TheCacophonyProject/bird-finder/overlayfeed"
	"github.com/TheCacophonyProject/bird-finder/shutter"
	"github.com/TheCacophonyProject/bird-finder/throttle"
	"github.com/TheCacophonyProject/bird-finder/zoomassist"
)

type Config struct {
	FrameInput  string                   `yaml:"frame-input"`
	GyroInput   string                   `yaml:"gyro-input"`
	OutputDir   string                   `yaml:"output-dir"`
	PrefsFile   string                   `yaml:"prefs-file"`
	ViewWidth   int                      `yaml:"view-width"`
	ViewHeight  int                      `yaml:"view-height"`
	MaxZoom     float64                  `yaml:"max-zoom"`
	Finder      finder.Config            `yaml:"finder"`
	Confirm     confirm.Config           `yaml:"confirm"`
	AutoFire    autofire.Config          `yaml:"autofire"`
	PerchAssist zoomassist.Config        `yaml:"perch-assist"`
	Throttler   throttle.ThrottlerConfig `yaml:"throttler"`
	Shutter     shutter.Config           `yaml:"shutter"`
	OverlayFeed overlayfeed.Config       `yaml:"overlay-feed"`
}

func (conf *Config) Validate() error {
	if conf.ViewWidth <= 0 || conf.ViewHeight <= 0 {
		return errors.New("view-width and view-height must be positive")
	}
	if conf.MaxZoom < 1 {
		return errors.New("max-zoom must be at least 1")
	}
	if err := conf.Finder.Validate(); err != nil {
		return err
	}
	if err := conf.Confirm.Validate(); err != nil {
		return err
	}
	if err := conf.AutoFire.Validate(); err != nil {
		return err
	}
	if err := conf.PerchAssist.Validate(); err != nil {
		return err
	}
	if err := conf.Throttler.Validate(); err != nil {
		return err
	}
	if err := conf.Shutter.Validate(); err != nil {
		return err
	}
	return nil
}

func defaultConfig() Config {
	return Config{
		FrameInput:  "/var/run/bird-finder-frames",
		GyroInput:   "/var/run/bird-finder-gyro",
		OutputDir:   "/var/spool/bird-finder",
		PrefsFile:   "/var/lib/bird-finder/prefs.yaml",
		ViewWidth:   1280,
		ViewHeight:  960,
		MaxZoom:     4,
		Finder:      finder.DefaultConfig(),
		Confirm:     confirm.DefaultConfig(),
		AutoFire:    autofire.DefaultConfig(),
		PerchAssist: zoomassist.DefaultConfig(),
		Throttler:   throttle.DefaultThrottlerConfig(),
		Shutter:     shutter.DefaultConfig(),
		OverlayFeed: overlayfeed.DefaultConfig(),
	}
}

func ParseConfigFile(filename string) (*Config, error) {
	buf, err := ioutil.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return ParseConfig(buf)
}

func ParseConfig(buf []byte) (*Config, error) {
	conf := defaultConfig()
	if err := yaml.Unmarshal(buf, &conf); err != nil {
		return nil, err
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return &conf, nil
}

// DeviceConfig is what bird-finder takes from the shared device
// configuration directory.
type DeviceConfig struct {
	ID     int
	Name   string
	Window *window.Window
}

func ParseDeviceConfig(configDir string) (*DeviceConfig, error) {
	configRW, err := goconfig.New(configDir)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "loading %s", configDir)
	}

	var deviceConfig goconfig.Device
	if err := configRW.Unmarshal(goconfig.DeviceKey, &deviceConfig); err != nil {
		return nil, err
	}
	windowLocationConfig := goconfig.DefaultWindowLocation()
	if err := configRW.Unmarshal(goconfig.LocationKey, &windowLocationConfig); err != nil {
		return nil, err
	}
	windowsConfig := goconfig.DefaultWindows()
	if err := configRW.Unmarshal(goconfig.WindowsKey, &windowsConfig); err != nil {
		return nil, err
	}

	w, err := window.New(
		windowsConfig.StartRecording,
		windowsConfig.StopRecording,
		float64(windowLocationConfig.Latitude),
		float64(windowLocationConfig.Longitude))
	if err != nil {
		return nil, pkgerrors.Wrap(err, "building scan window")
	}

	return &DeviceConfig{
		ID:     deviceConfig.ID,
		Name:   deviceConfig.Name,
		Window: w,
	}, nil
}
