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
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"net"
	"os"

	goconfig "github.com/TheCacophonyProject/go-config"
	arg "github.com/alexflint/go-arg"
	"github.com/coreos/go-systemd/daemon"

	"github.com/TheCacophonyProject/bird-finder/finder"
	"github.com/TheCacophonyProject/bird-finder/headers"
	"github.com/TheCacophonyProject/bird-finder/prefs"
	"github.com/TheCacophonyProject/bird-finder/shutter"
	"github.com/TheCacophonyProject/bird-finder/throttle"
)

const (
	// Buffers in flight: one being read, one waiting and one being analysed.
	inFlight = 3

	sdNotifySecs = 5
)

var (
	version = "<not set>"

	frameLogIntervalFirstMin = 15
	frameLogInterval         = 60 * 5
)

type Args struct {
	ConfigFile string `arg:"-c,--config" help:"path to configuration file"`
	ConfigDir  string `arg:"-d,--config-dir" help:"path to the device configuration directory"`
	Timestamps bool   `arg:"-t,--timestamps" help:"include timestamps in log output"`
	Verbose    bool   `arg:"-v,--verbose" help:"log finder statistics"`
	Playback   string `arg:"-p,--playback" help:"run a raw lepton3 frame dump through the finder and exit"`
}

func (Args) Version() string {
	return version
}

func procArgs() Args {
	var args Args
	args.ConfigFile = "/etc/bird-finder.yaml"
	args.ConfigDir = goconfig.DefaultConfigDir
	arg.MustParse(&args)
	return args
}

func main() {
	err := runMain()
	if err != nil {
		log.Fatal(err)
	}
}

func runMain() error {
	args := procArgs()
	if !args.Timestamps {
		log.SetFlags(0) // Removes default timestamp flag
	}

	log.Printf("running version: %s", version)
	conf, err := ParseConfigFile(args.ConfigFile)
	if err != nil {
		return err
	}
	if args.Verbose {
		conf.Finder.Verbose = true
	}
	logConfig(conf)

	if args.Playback != "" {
		results, err := runPlayback(conf, args.Playback)
		if err != nil {
			return err
		}
		log.Print(results)
		return nil
	}

	device, err := ParseDeviceConfig(args.ConfigDir)
	if err != nil {
		return err
	}
	log.Printf("device name: %s", device.Name)

	store, err := prefs.Open(conf.PrefsFile)
	if err != nil {
		return err
	}
	log.Printf("preferences: %+v", store.Get())

	release, err := shutter.New(conf.Shutter)
	if err != nil {
		return err
	}

	a, err := newApp(conf, store, release, throttle.DbusEventQueue{})
	if err != nil {
		return err
	}
	a.window = device.Window
	a.snapshots = newSnapshotter(conf.OutputDir, a.engine)
	defer a.close()

	log.Print("starting d-bus service")
	if err := startService(a); err != nil {
		return err
	}

	go a.run(context.Background())

	for {
		// Set up listener for frames sent by the camera.
		os.Remove(conf.FrameInput)
		listener, err := net.Listen("unixpacket", conf.FrameInput)
		if err != nil {
			return err
		}
		log.Print("waiting for camera connection")

		conn, err := listener.Accept()
		if err != nil {
			log.Printf("socket accept failed: %v", err)
			continue
		}

		// Prevent concurrent connections.
		listener.Close()

		err = handleConn(conn, conf, a)
		log.Printf("camera connection ended with: %v", err)
		conn.Close()
	}
}

func handleConn(conn net.Conn, conf *Config, a *app) error {
	reader := bufio.NewReader(conn)
	header, err := headers.ReadHeaderInfo(reader)
	if err != nil {
		return err
	}
	log.Printf("connection from %s", header)
	if !conf.Finder.Accepts(header.ResX(), header.ResY()) {
		return fmt.Errorf("frames of %dx%d are larger than %dx%d",
			header.ResX(), header.ResY(), conf.Finder.MaxWidth, conf.Finder.MaxHeight)
	}

	fps := header.FPS()
	if fps < 1 {
		fps = 1
	}

	spentFrames := make(chan []byte, inFlight)
	for i := 0; i < inFlight; i++ {
		spentFrames <- make([]byte, header.FrameSize())
	}
	latest := finder.NewLatestFrame()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go analyse(ctx, a, latest, spentFrames)

	// A new connection never diffs against the last one's frames.
	a.engine.Reset()

	log.Print("reading frames")
	totalFrames := 0
	notifyCount := 0
	for {
		frame := <-spentFrames
		if _, err := io.ReadFull(reader, frame); err != nil {
			return err
		}
		totalFrames++

		if totalFrames%(frameLogIntervalFirstMin*fps) == 0 &&
			totalFrames <= 60*fps || totalFrames%(frameLogInterval*fps) == 0 {
			log.Printf("%d frames for this connection", totalFrames)
		}

		if notifyCount++; notifyCount >= sdNotifySecs*fps {
			daemon.SdNotify(false, "WATCHDOG=1")
			notifyCount = 0
		}

		plane := finder.Plane{
			Data:        frame,
			Width:       header.ResX(),
			Height:      header.ResY(),
			RowStride:   header.RowStride(),
			PixelStride: header.PixelStride(),
		}
		if dropped := latest.Offer(plane); dropped != nil {
			spentFrames <- dropped.Data
		}
	}
}

func analyse(ctx context.Context, a *app, latest *finder.LatestFrame, spentFrames chan<- []byte) {
	for {
		select {
		case <-ctx.Done():
			return
		case plane := <-latest.Frames():
			a.analyse(plane)
			spentFrames <- plane.Data
		}
	}
}

func logConfig(conf *Config) {
	log.Printf("frame input: %s", conf.FrameInput)
	log.Printf("gyro input: %s", conf.GyroInput)
	log.Printf("output dir: %s", conf.OutputDir)
	log.Printf("view: %dx%d", conf.ViewWidth, conf.ViewHeight)
	log.Printf("finder: %+v", conf.Finder)
	log.Printf("confirm: %+v", conf.Confirm)
	log.Printf("autofire: %+v", conf.AutoFire)
	log.Printf("perch assist: %+v", conf.PerchAssist)
	log.Printf("throttler: %+v", conf.Throttler)
	if conf.Shutter.Pin != "" {
		log.Printf("shutter: %+v", conf.Shutter)
	}
	if conf.OverlayFeed.Listen != "" {
		log.Printf("overlay feed: %s", conf.OverlayFeed.Listen)
	}
}
