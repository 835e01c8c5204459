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
	"context"
	"image"
	"log"
	"sync"
	"time"

	"github.com/TheCacophonyProject/window"

	"github.com/TheCacophonyProject/bird-finder/autofire"
	"github.com/TheCacophonyProject/bird-finder/confirm"
	"github.com/TheCacophonyProject/bird-finder/finder"
	"github.com/TheCacophonyProject/bird-finder/loglimiter"
	"github.com/TheCacophonyProject/bird-finder/overlayfeed"
	"github.com/TheCacophonyProject/bird-finder/prefs"
	"github.com/TheCacophonyProject/bird-finder/shutter"
	"github.com/TheCacophonyProject/bird-finder/throttle"
	"github.com/TheCacophonyProject/bird-finder/zoomassist"
)

const (
	dispatchQueueSize   = 16
	overlayPollInterval = 100 * time.Millisecond
	birdConfirmedEvent  = "birdConfirmed"
)

// app connects the finder engine to confirmation, auto-fire, zoom assist
// and the overlay feed.
type app struct {
	conf       *Config
	engine     *finder.Engine
	dispatcher *finder.SerialDispatcher
	confirmer  *confirm.Confirmer
	autoFire   *autofire.StateMachine
	perch      *zoomassist.PerchAssist
	shutter    *shutter.Release
	hub        *overlayfeed.Hub
	prefs      *prefs.Store
	events     throttle.EventQueue
	window     *window.Window
	snapshots  *snapshotter

	shutterThrottle *throttle.Throttler
	eventThrottle   *throttle.Throttler

	mu       sync.Mutex
	zoom     float64
	inWindow bool

	nowFunc func() time.Time
	log     *loglimiter.LogLimiter
}

func newApp(conf *Config, store *prefs.Store, release *shutter.Release, events throttle.EventQueue) (*app, error) {
	a := &app{
		conf:       conf,
		dispatcher: finder.NewSerialDispatcher(dispatchQueueSize),
		perch:      zoomassist.NewPerchAssist(conf.PerchAssist),
		shutter:    release,
		hub:        overlayfeed.NewHub(),
		prefs:      store,
		events:     events,
		zoom:       1,
		inWindow:   true,
		nowFunc:    time.Now,
		log:        loglimiter.New(time.Minute),
	}

	a.engine = finder.NewEngine(conf.Finder, a.dispatcher, finder.ListenerFunc(a.onResult))
	a.engine.SetViewSize(conf.ViewWidth, conf.ViewHeight)

	confirmer, err := confirm.NewConfirmer(conf.Confirm, confirm.ListenerFunc(a.onConfirmation))
	if err != nil {
		return nil, err
	}
	a.confirmer = confirmer
	a.autoFire = autofire.New(conf.AutoFire, a.engine.Gate(), a.fire)

	throttleEvents := throttle.ThrottledEventRecorder{Events: events}
	a.shutterThrottle = throttle.NewThrottler("shutter", conf.Throttler, throttleEvents)
	a.eventThrottle = throttle.NewThrottler(birdConfirmedEvent, conf.Throttler, throttleEvents)

	a.applyPrefs(store.Get())
	store.Subscribe(a.applyPrefs)
	return a, nil
}

// run starts the background workers. It returns straight away.
func (a *app) run(ctx context.Context) {
	go a.dispatcher.Run(ctx)
	if a.conf.AutoFire.Enabled {
		go a.autoFire.Run(ctx)
	}
	go a.watchOverlay(ctx)
	if a.conf.OverlayFeed.Listen != "" {
		go func() {
			if err := a.hub.ListenAndServe(ctx, a.conf.OverlayFeed.Listen); err != nil {
				log.Printf("overlay feed stopped: %v", err)
			}
		}()
	}
	if a.conf.GyroInput != "" {
		go func() {
			if err := listenGyro(ctx, a.conf.GyroInput, a.engine.Gate()); err != nil {
				log.Printf("gyro input stopped: %v", err)
			}
		}()
	}
}

func (a *app) close() {
	a.confirmer.Close()
}

func (a *app) applyPrefs(p prefs.Prefs) {
	if a.engine.ApplyProfile(p.Profile) {
		log.Printf("finder profile changed to %s", p.Profile.Label())
	}
	a.confirmer.SetThreshold(p.ConfidenceThreshold)
	if !p.FinderEnabled {
		a.engine.Reset()
	}
}

// analyse runs one frame through the engine unless the finder is turned
// off or the device is outside its scan window.
func (a *app) analyse(plane finder.Plane) {
	if !a.prefs.Get().FinderEnabled {
		return
	}
	if !a.checkWindow() {
		return
	}
	a.engine.Analyze(plane)
}

func (a *app) checkWindow() bool {
	if a.window == nil {
		return true
	}
	active := a.window.Active()

	a.mu.Lock()
	changed := active != a.inWindow
	a.inWindow = active
	a.mu.Unlock()

	if changed {
		if active {
			log.Print("scan window started")
		} else {
			log.Print("outside of scan window, finder paused")
			a.engine.Reset()
		}
	}
	return active
}

// onResult runs on the dispatcher goroutine for every finder result.
func (a *app) onResult(result *finder.Result) {
	a.hub.OnResult(result)
}

// submitConfirmation asks the confirmer to score the area around p using
// the most recent frame. Only auto-fire and long presses confirm, so the
// confirmer gate is never held by the finder itself.
func (a *app) submitConfirmation(p finder.Point) {
	viewW, viewH := a.engine.ViewSize()
	req := confirm.Request{
		Point: p,
		ViewW: viewW,
		ViewH: viewH,
	}
	if frame := a.engine.RecentFrame(); frame != nil {
		req.Preview = lumaImage(frame)
	}
	if _, err := a.confirmer.Submit(req); err != nil {
		a.log.Printf("confirmation not started: %v", err)
	}
}

// onConfirmation is called by the confirmer for pending and scored ROIs.
// It must not call back into the confirmer.
func (a *app) onConfirmation(c confirm.Confirmation) {
	a.hub.OnConfirmation(c)

	now := a.nowFunc()
	a.mu.Lock()
	target, zoom := a.perch.OnHud(c.Overlay.Hud, a.zoom, a.conf.MaxZoom, now)
	if zoom {
		log.Printf("perch assist: zoom %.2f -> %.2f", a.zoom, target)
		a.zoom = target
	}
	a.mu.Unlock()

	if c.Overlay.Pending || c.Overlay.Hud != confirm.Green {
		return
	}
	if !a.eventThrottle.Allow() {
		return
	}
	details := map[string]interface{}{
		"id":    c.ID,
		"x":     c.Point.X,
		"y":     c.Point.Y,
		"score": *c.Score(),
	}
	if err := a.events.Queue(birdConfirmedEvent, details, now); err != nil {
		a.log.Printf("could not queue %s event: %v", birdConfirmedEvent, err)
	}
}

func (a *app) watchOverlay(ctx context.Context) {
	ticker := time.NewTicker(overlayPollInterval)
	defer ticker.Stop()
	visible := false
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			visible = a.checkOverlay(visible)
		}
	}
}

// checkOverlay tells the feed and perch assist when the overlay expires.
func (a *app) checkOverlay(wasVisible bool) bool {
	visible := a.confirmer.Overlay().Visible(a.nowFunc())
	if wasVisible && !visible {
		a.perch.Clear()
		a.hub.OverlayCleared()
	}
	return visible
}

// tap arms auto-fire at p and returns the point to focus on, which is the
// finder marker when p lands on it.
func (a *app) tap(p finder.Point) finder.Point {
	viewW, viewH := a.engine.ViewSize()
	target, snapped := finder.FocusTarget(p, a.engine.LastResult(), viewW, viewH)
	if snapped {
		log.Printf("tap snapped to finder at (%.3f, %.3f)", target.X, target.Y)
	}
	if a.conf.AutoFire.Enabled && a.prefs.Get().AutoFireEnabled {
		a.autoFire.Tap(p, a.nowFunc())
	}
	return target
}

// longPress disarms auto-fire and confirms the subject at p.
func (a *app) longPress(p finder.Point) {
	p = a.autoFire.LongPress(p)
	log.Printf("long press confirm at (%.3f, %.3f)", p.X, p.Y)
	a.submitConfirmation(p)
}

// fire is called by auto-fire. It confirms the subject at p and releases
// the shutter.
func (a *app) fire(p finder.Point) {
	a.submitConfirmation(p)
	if !a.prefs.Get().AutoFireEnabled {
		return
	}
	if !a.shutterThrottle.Allow() {
		a.log.Print("shutter release throttled")
		return
	}
	log.Printf("releasing shutter at (%.3f, %.3f)", p.X, p.Y)
	if err := a.shutter.Fire(); err != nil {
		log.Printf("shutter release failed: %v", err)
	}
}

func (a *app) currentZoom() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.zoom
}

// lumaImage wraps a luminance frame as a grey image without copying.
func lumaImage(frame *finder.LumaFrame) *image.Gray {
	return &image.Gray{
		Pix:    frame.Pix,
		Stride: frame.Width,
		Rect:   image.Rect(0, 0, frame.Width, frame.Height),
	}
}
