package detection

import (
	"math"
	"testing"

	"github.com/idkit/card-scanner/internal/vision"
)

func quadAt(x, y, w, h float64) vision.Quad {
	return vision.Quad{
		{X: x, Y: y},
		{X: x + w, Y: y},
		{X: x + w, Y: y + h},
		{X: x, Y: y + h},
	}
}

func TestTracker_FirstDetectionUnsmoothed(t *testing.T) {
	tr := NewTracker(DefaultTrackerConfig())
	q := quadAt(10, 10, 160, 100)

	out, found := tr.Update(Result{Found: true, Corners: q, Score: 1})
	if !found {
		t.Fatal("first detection not reported")
	}
	if out.Corners != q {
		t.Errorf("first detection should pass through unsmoothed: got %v", out.Corners)
	}
}

func TestTracker_SmoothsSubsequentDetections(t *testing.T) {
	cfg := DefaultTrackerConfig()
	tr := NewTracker(cfg)

	first := quadAt(0, 0, 160, 100)
	second := quadAt(10, 10, 160, 100)
	tr.Update(Result{Found: true, Corners: first})
	out, _ := tr.Update(Result{Found: true, Corners: second})

	// alpha weighs history: 0.8*0 + 0.2*10 = 2
	if math.Abs(out.Corners[0].X-2) > 1e-9 || math.Abs(out.Corners[0].Y-2) > 1e-9 {
		t.Errorf("smoothed TL: got %v, want (2, 2)", out.Corners[0])
	}
}

func TestTracker_GracePeriodRetention(t *testing.T) {
	cfg := DefaultTrackerConfig()
	tr := NewTracker(cfg)

	q := quadAt(20, 20, 160, 100)
	tr.Update(Result{Found: true, Corners: q})

	// Every failure inside the budget still reports the retained corners.
	for i := 0; i < cfg.MaxFailures; i++ {
		out, found := tr.Update(Result{})
		if !found {
			t.Fatalf("failure %d inside grace period dropped the track", i+1)
		}
		if out.Corners != q {
			t.Fatalf("failure %d returned wrong corners: %v", i+1, out.Corners)
		}
	}

	// Exceeding the budget clears all retained state.
	if _, found := tr.Update(Result{}); found {
		t.Error("track survived past the failure budget")
	}

	// The next real detection starts a fresh track, unsmoothed.
	fresh := quadAt(100, 100, 160, 100)
	out, found := tr.Update(Result{Found: true, Corners: fresh})
	if !found || out.Corners != fresh {
		t.Errorf("post-reset detection: found=%v corners=%v", found, out.Corners)
	}
}

func TestTracker_AreaMovingAverage(t *testing.T) {
	cfg := DefaultTrackerConfig()
	tr := NewTracker(cfg)

	if tr.AreaHint() != 0 {
		t.Errorf("initial area hint: got %v, want 0", tr.AreaHint())
	}

	tr.Update(Result{Found: true, Corners: quadAt(0, 0, 100, 60)})
	if got := tr.AreaHint(); got != 6000 {
		t.Errorf("first area: got %v, want 6000", got)
	}

	// Second frame blends: corners smooth toward the new quad first, so the
	// averaged area uses the smoothed geometry.
	tr.Update(Result{Found: true, Corners: quadAt(0, 0, 200, 120)})
	smoothedArea := 120.0 * 72.0 // 0.8*100+0.2*200 by 0.8*60+0.2*120
	want := cfg.AreaAlpha*6000 + (1-cfg.AreaAlpha)*smoothedArea
	if got := tr.AreaHint(); math.Abs(got-want) > 1e-6 {
		t.Errorf("averaged area: got %v, want %v", got, want)
	}

	tr.ResetSizeTracking()
	if tr.AreaHint() != 0 {
		t.Errorf("area hint after size reset: got %v, want 0", tr.AreaHint())
	}
}

func TestTracker_Reset(t *testing.T) {
	tr := NewTracker(DefaultTrackerConfig())
	tr.Update(Result{Found: true, Corners: quadAt(5, 5, 160, 100)})
	tr.Reset()

	if tr.AreaHint() != 0 {
		t.Errorf("area hint after reset: got %v, want 0", tr.AreaHint())
	}
	if _, found := tr.Update(Result{}); found {
		t.Error("reset tracker retained a track through a failed frame")
	}
}
