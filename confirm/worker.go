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
	"context"
	"image"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nfnt/resize"
	"github.com/pkg/errors"

	"github.com/TheCacophonyProject/bird-finder/finder"
	"github.com/TheCacophonyProject/bird-finder/loglimiter"
)

// Request asks for the subject at Point to be confirmed. Preview holds the
// whole view at any resolution.
type Request struct {
	Point   finder.Point
	ViewW   int
	ViewH   int
	Preview image.Image
}

// Confirmation is delivered once when the ROI is first shown (Pending) and
// again when it has been scored.
type Confirmation struct {
	ID      string
	Point   finder.Point
	Overlay OverlayState
}

// Score returns the detector score or nil while pending.
func (c *Confirmation) Score() *float64 {
	return c.Overlay.Score
}

// Listener receives confirmation updates. It must not call back into the
// Confirmer.
type Listener interface {
	OnConfirmation(c Confirmation)
}

// ListenerFunc adapts a function to a Listener.
type ListenerFunc func(c Confirmation)

func (f ListenerFunc) OnConfirmation(c Confirmation) {
	f(c)
}

// NewConfirmer creates a confirmer using the detector named in conf.
func NewConfirmer(conf Config, listener Listener) (*Confirmer, error) {
	detector, err := NewDetector(conf.Detector)
	if err != nil {
		return nil, err
	}
	return NewConfirmerWithDetector(conf, detector, listener), nil
}

// NewConfirmerWithDetector creates a confirmer with a specific detector.
func NewConfirmerWithDetector(conf Config, detector Detector, listener Listener) *Confirmer {
	ctx, cancel := context.WithCancel(context.Background())
	return &Confirmer{
		conf:     conf,
		gate:     NewGate(conf.GateInterval),
		overlay:  NewOverlay(conf.OverlayTTL, conf.ConfidenceThreshold),
		detector: detector,
		listener: listener,
		ctx:      ctx,
		cancel:   cancel,
		nowFunc:  time.Now,
		log:      loglimiter.New(time.Minute),
	}
}

// Confirmer runs a detector over the ROI around a requested point. Requests
// are limited by a Gate. Only the newest request is scored; an older one
// still running is cancelled and its result dropped.
type Confirmer struct {
	conf     Config
	gate     *Gate
	overlay  *Overlay
	detector Detector
	listener Listener

	// mu serialises job replacement and delivery so a listener never sees
	// an older job's result after a newer job's pending state.
	mu        sync.Mutex
	latestID  string
	cancelJob context.CancelFunc
	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
	nowFunc   func() time.Time
	log       *loglimiter.LogLimiter
}

// Overlay returns the overlay updated by this confirmer.
func (c *Confirmer) Overlay() *Overlay {
	return c.overlay
}

// SetThreshold changes the confidence threshold used for the HUD.
func (c *Confirmer) SetThreshold(threshold float64) {
	c.overlay.SetThreshold(ClampThreshold(threshold))
}

// Submit shows a pending ROI for req and starts scoring it in the
// background. It returns the gate decision; nothing happens when the
// request is rejected or the view geometry is unknown.
func (c *Confirmer) Submit(req Request) (Decision, error) {
	if req.ViewW <= 0 || req.ViewH <= 0 {
		return Decision{}, errors.New("view size unknown")
	}
	decision := c.gate.TryAcquire(c.nowFunc())
	if !decision.Accepted {
		return decision, nil
	}

	point := req.Point.Clamp()
	rect := SquareFromOffset(req.ViewW, req.ViewH, point.X, point.Y, c.conf.ROIFrac)
	id := uuid.New().String()

	c.mu.Lock()
	if c.cancelJob != nil {
		c.cancelJob()
	}
	ctx, cancel := context.WithTimeout(c.ctx, c.conf.Timeout)
	c.latestID = id
	c.cancelJob = cancel
	pending := c.overlay.Show(rect, nil)
	c.deliver(Confirmation{ID: id, Point: point, Overlay: pending})
	c.mu.Unlock()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer cancel()
		c.score(ctx, id, point, rect, req)
	}()
	return decision, nil
}

func (c *Confirmer) score(ctx context.Context, id string, point finder.Point, rect image.Rectangle, req Request) {
	side := minInt(rect.Dx(), rect.Dy())
	crop := CropFromPreview(req.Preview, req.ViewW, req.ViewH, point, side)
	if crop == nil {
		c.log.Print("confirm: no preview to crop")
		return
	}
	if size := c.conf.ScoreInputSize; size > 0 {
		crop.Image = resize.Resize(size, size, crop.Image, resize.Bilinear)
	}

	detection, err := c.detector.Detect(ctx, crop)
	if err != nil {
		if ctx.Err() == context.Canceled {
			return
		}
		c.log.Print(errors.Wrap(err, "confirm: detector failed").Error())
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if id != c.latestID {
		log.Printf("confirm: dropping stale result %s", id)
		return
	}
	score := detection.Score
	scored := c.overlay.Show(rect, &score)
	c.deliver(Confirmation{ID: id, Point: point, Overlay: scored})
}

func (c *Confirmer) deliver(confirmation Confirmation) {
	if c.listener != nil {
		c.listener.OnConfirmation(confirmation)
	}
}

// Close cancels any running detection and waits for it to finish.
func (c *Confirmer) Close() {
	c.cancel()
	c.wg.Wait()
}
