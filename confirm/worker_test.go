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
	"errors"
	"image"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheCacophonyProject/bird-finder/finder"
)

type confirmationRecorder struct {
	mu     sync.Mutex
	got    []Confirmation
	scored chan Confirmation
}

func newConfirmationRecorder() *confirmationRecorder {
	return &confirmationRecorder{scored: make(chan Confirmation, 10)}
}

func (r *confirmationRecorder) OnConfirmation(c Confirmation) {
	r.mu.Lock()
	r.got = append(r.got, c)
	r.mu.Unlock()
	if !c.Overlay.Pending {
		r.scored <- c
	}
}

func (r *confirmationRecorder) all() []Confirmation {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Confirmation(nil), r.got...)
}

func (r *confirmationRecorder) waitScored(t *testing.T) Confirmation {
	select {
	case c := <-r.scored:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("no scored confirmation")
	}
	return Confirmation{}
}

type scriptedDetector struct {
	calls   int32
	release chan struct{}
	scores  []float64
	err     error
}

func (d *scriptedDetector) Detect(ctx context.Context, crop *Crop) (Detection, error) {
	call := atomic.AddInt32(&d.calls, 1)
	if call == 1 && d.release != nil {
		<-d.release
	}
	if d.err != nil {
		return Detection{}, d.err
	}
	return Detection{Score: d.scores[call-1]}, nil
}

type sizeRecordingDetector struct {
	sizes chan image.Rectangle
}

func (d *sizeRecordingDetector) Detect(ctx context.Context, crop *Crop) (Detection, error) {
	d.sizes <- crop.Image.Bounds()
	return Detection{Score: 0.5}, nil
}

func testRequest() Request {
	return Request{
		Point:   finder.Point{X: 0.5, Y: 0.5},
		ViewW:   400,
		ViewH:   300,
		Preview: grayImage(200, 150, func(x, y int) uint8 { return uint8(x) }),
	}
}

func TestConfirmerScoresRequest(t *testing.T) {
	recorder := newConfirmationRecorder()
	c, err := NewConfirmer(DefaultConfig(), recorder)
	require.NoError(t, err)
	defer c.Close()

	decision, err := c.Submit(testRequest())
	require.NoError(t, err)
	require.True(t, decision.Accepted)

	scored := recorder.waitScored(t)
	require.NotNil(t, scored.Score())
	assert.True(t, *scored.Score() > 0)

	got := recorder.all()
	require.Len(t, got, 2)
	assert.True(t, got[0].Overlay.Pending)
	assert.Equal(t, got[0].ID, got[1].ID)
	assert.Equal(t, SquareFromOffset(400, 300, 0.5, 0.5, DefaultROIFrac), got[1].Overlay.Rect)
}

func TestConfirmerGateRejects(t *testing.T) {
	recorder := newConfirmationRecorder()
	detector := &scriptedDetector{scores: []float64{0.5, 0.5}}
	c := NewConfirmerWithDetector(DefaultConfig(), detector, recorder)
	now := time.Unix(1000, 0)
	c.nowFunc = func() time.Time { return now }
	defer c.Close()

	decision, err := c.Submit(testRequest())
	require.NoError(t, err)
	assert.True(t, decision.Accepted)
	recorder.waitScored(t)

	now = now.Add(time.Second)
	decision, err = c.Submit(testRequest())
	require.NoError(t, err)
	assert.False(t, decision.Accepted)
	assert.Equal(t, time.Second, decision.SinceLast)
	assert.Len(t, recorder.all(), 2)
}

func TestConfirmerDropsStaleResult(t *testing.T) {
	recorder := newConfirmationRecorder()
	detector := &scriptedDetector{
		release: make(chan struct{}),
		scores:  []float64{0.1, 0.9},
	}
	conf := DefaultConfig()
	conf.GateInterval = 0
	c := NewConfirmerWithDetector(conf, detector, recorder)

	_, err := c.Submit(testRequest())
	require.NoError(t, err)
	// Wait for the first job to be blocked in the detector.
	require.Eventually(t, func() bool { return atomic.LoadInt32(&detector.calls) == 1 }, 2*time.Second, time.Millisecond)

	_, err = c.Submit(testRequest())
	require.NoError(t, err)
	latest := recorder.waitScored(t)
	assert.Equal(t, 0.9, *latest.Score())

	close(detector.release)
	c.Close()

	got := recorder.all()
	require.Len(t, got, 3)
	first := got[0].ID
	for _, confirmation := range got {
		if confirmation.ID == first {
			assert.True(t, confirmation.Overlay.Pending)
		}
	}
	overlay := c.Overlay().Current(time.Now())
	require.NotNil(t, overlay)
	assert.Equal(t, 0.9, *overlay.Score)
}

func TestConfirmerDetectorFailureStaysPending(t *testing.T) {
	recorder := newConfirmationRecorder()
	detector := &scriptedDetector{err: errors.New("model not loaded")}
	c := NewConfirmerWithDetector(DefaultConfig(), detector, recorder)

	_, err := c.Submit(testRequest())
	require.NoError(t, err)
	require.Eventually(t, func() bool { return atomic.LoadInt32(&detector.calls) == 1 }, 2*time.Second, time.Millisecond)
	c.Close()

	got := recorder.all()
	require.Len(t, got, 1)
	assert.True(t, got[0].Overlay.Pending)
	overlay := c.Overlay().Current(time.Now())
	require.NotNil(t, overlay)
	assert.True(t, overlay.Pending)
}

func TestConfirmerWithoutPreview(t *testing.T) {
	recorder := newConfirmationRecorder()
	detector := &scriptedDetector{scores: []float64{0.5}}
	c := NewConfirmerWithDetector(DefaultConfig(), detector, recorder)

	req := testRequest()
	req.Preview = nil
	_, err := c.Submit(req)
	require.NoError(t, err)
	c.Close()

	assert.Len(t, recorder.all(), 1)
	assert.Equal(t, int32(0), atomic.LoadInt32(&detector.calls))
}

func TestConfirmerNeedsViewSize(t *testing.T) {
	c := NewConfirmerWithDetector(DefaultConfig(), NoopDetector{}, nil)
	defer c.Close()

	req := testRequest()
	req.ViewW = 0
	_, err := c.Submit(req)
	assert.Error(t, err)
}

func TestConfirmerThresholdClamped(t *testing.T) {
	c := NewConfirmerWithDetector(DefaultConfig(), NoopDetector{}, nil)
	defer c.Close()

	c.SetThreshold(0.95)
	assert.Equal(t, MaxConfidenceThreshold, c.Overlay().Threshold())
}

func TestConfigValidate(t *testing.T) {
	conf := DefaultConfig()
	require.NoError(t, conf.Validate())

	conf.Detector = "magic"
	assert.Error(t, conf.Validate())

	conf = DefaultConfig()
	conf.ConfidenceThreshold = 0.9
	assert.Error(t, conf.Validate())
}

func TestConfirmerScoresCropAtNativeSize(t *testing.T) {
	recorder := newConfirmationRecorder()
	c, err := NewConfirmer(DefaultConfig(), recorder)
	require.NoError(t, err)
	defer c.Close()

	// A 320x240 frame shown on a 1280x960 view gives an 84x84 crop.
	preview := grayImage(320, 240, func(x, y int) uint8 {
		if (x+y)%2 == 0 {
			return 100
		}
		return 156
	})
	req := Request{
		Point:   finder.Point{X: 0.5, Y: 0.5},
		ViewW:   1280,
		ViewH:   960,
		Preview: preview,
	}
	_, err = c.Submit(req)
	require.NoError(t, err)
	scored := recorder.waitScored(t)

	rect := SquareFromOffset(1280, 960, 0.5, 0.5, DefaultROIFrac)
	crop := CropFromPreview(preview, 1280, 960, req.Point, minInt(rect.Dx(), rect.Dy()))
	require.NotNil(t, crop)
	expected, err := HeuristicDetector{}.Detect(context.Background(), crop)
	require.NoError(t, err)

	require.NotNil(t, scored.Score())
	assert.InDelta(t, 0.4375, expected.Score, 1e-3)
	assert.InDelta(t, expected.Score, *scored.Score(), 1e-9)
	assert.Equal(t, Green, scored.Overlay.Hud)
}

func TestConfirmerScaledInput(t *testing.T) {
	recorder := newConfirmationRecorder()
	sizes := make(chan image.Rectangle, 1)
	detector := &sizeRecordingDetector{sizes: sizes}
	conf := DefaultConfig()
	conf.ScoreInputSize = 32
	c := NewConfirmerWithDetector(conf, detector, recorder)
	defer c.Close()

	_, err := c.Submit(testRequest())
	require.NoError(t, err)
	recorder.waitScored(t)
	bounds := <-sizes
	assert.Equal(t, 32, bounds.Dx())
	assert.Equal(t, 32, bounds.Dy())
}
