package compositor

import (
	"math"
	"reflect"
	"sync"
	"testing"

	"captioner/internal/animation"
	"captioner/internal/caption"
)

func fixedMeasurer() Measurer {
	return MeasurerFunc(func(text string, _ float64) (float64, float64) {
		return float64(len(text)) * 10, 40
	})
}

func mustGroup(t *testing.T, words ...caption.Word) caption.Group {
	t.Helper()
	g, err := caption.NewGroup(words)
	if err != nil {
		t.Fatalf("NewGroup: %v", err)
	}
	return g
}

func testGroups(t *testing.T) []caption.Group {
	return []caption.Group{
		mustGroup(t, caption.Word{Text: "ab", Start: 0, End: 0.5}, caption.Word{Text: "cde", Start: 0.6, End: 1.0}),
		mustGroup(t, caption.Word{Text: "fg", Start: 2.0, End: 3.0}),
	}
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Frame = Size{Width: 200, Height: 100}
	cfg.Margin = 10
	cfg.WordSpacing = 20
	cfg.Measurer = fixedMeasurer()
	return cfg
}

func TestRenderEmptyInGaps(t *testing.T) {
	c := New(testGroups(t), testConfig())
	for _, ts := range []float64{-1, 1.5, 1.0001, 3.5, math.NaN()} {
		layout := c.Render(ts)
		if !layout.Empty() || layout.Group != -1 {
			t.Errorf("Render(%v) = group %d with %d items, want empty", ts, layout.Group, len(layout.Items))
		}
	}
}

func TestRenderBoundariesInclusive(t *testing.T) {
	c := New(testGroups(t), testConfig())
	tests := []struct {
		t     float64
		group int
	}{{0, 0}, {1.0, 0}, {2.0, 1}, {3.0, 1}, {0.55, 0}}
	for _, tt := range tests {
		if got := c.Render(tt.t).Group; got != tt.group {
			t.Errorf("Render(%v).Group = %d, want %d", tt.t, got, tt.group)
		}
	}
}

func TestRenderLayout(t *testing.T) {
	tests := []struct {
		anchor Anchor
		y      float64
	}{{AnchorBottom, 50}, {AnchorTop, 10}, {AnchorCenter, 30}}
	for _, tt := range tests {
		t.Run(tt.anchor.String(), func(t *testing.T) {
			cfg := testConfig()
			cfg.Anchor = tt.anchor
			layout := New(testGroups(t), cfg).Render(0.7)
			if len(layout.Items) != 2 {
				t.Fatalf("expected 2 items, got %d", len(layout.Items))
			}
			if layout.Items[0].X != 65 || layout.Items[1].X != 105 {
				t.Fatalf("x positions = %v, %v; want 65, 105", layout.Items[0].X, layout.Items[1].X)
			}
			for _, item := range layout.Items {
				if item.Y != tt.y {
					t.Fatalf("y = %v, want %v", item.Y, tt.y)
				}
			}
		})
	}
}

func TestRenderBounceScalesLine(t *testing.T) {
	cfg := testConfig()
	cfg.Animation.Kind = animation.KindBounce
	c := New(testGroups(t), cfg)

	layout := c.Render(0)
	first := layout.Items[0]
	if math.Abs(first.Width-16) > 1e-9 || math.Abs(first.Height-32) > 1e-9 {
		t.Fatalf("scaled size = %vx%v, want 16x32", first.Width, first.Height)
	}
	// Scaled words stay vertically centred on the unscaled line.
	if math.Abs(first.Y-(50+4)) > 1e-9 {
		t.Fatalf("scaled y = %v, want 54", first.Y)
	}

	settled := c.Render(0.5).Items[0]
	if settled.Width != 20 || settled.Y != 50 {
		t.Fatalf("settled placement = %+v", settled)
	}
}

func TestRenderUnorderedGroupsFallsBackToScan(t *testing.T) {
	groups := []caption.Group{
		mustGroup(t, caption.Word{Text: "a", Start: 0, End: 2}),
		mustGroup(t, caption.Word{Text: "b", Start: 1, End: 3}),
	}
	c := New(groups, testConfig())
	if got := c.Find(1.5); got != 0 {
		t.Fatalf("Find(1.5) = %d, want first containing group 0", got)
	}
	if got := c.Find(2.5); got != 1 {
		t.Fatalf("Find(2.5) = %d, want 1", got)
	}
}

func TestRenderAppliesTextCase(t *testing.T) {
	cfg := testConfig()
	cfg.TextCase = CaseUpper
	layout := New(testGroups(t), cfg).Render(2.5)
	if layout.Items[0].Text != "FG" || layout.Items[0].Word.Text != "fg" {
		t.Fatalf("unexpected text %q (word %q)", layout.Items[0].Text, layout.Items[0].Word.Text)
	}
	if got := CaseTitle.Apply("hello world"); got != "Hello World" {
		t.Fatalf("title case = %q", got)
	}
}

func TestRenderUsesHandleCache(t *testing.T) {
	cfg := testConfig()
	cfg.Cache = NewHandleCache(16)
	c := New(testGroups(t), cfg)
	c.Render(0.7)
	c.Render(0.8)
	stats := c.CacheStats()
	if stats.Misses != 2 || stats.Hits != 2 || stats.Entries != 2 {
		t.Fatalf("unexpected cache stats %+v", stats)
	}
}

func TestRenderMeasuresEachWordOnce(t *testing.T) {
	tests := []struct {
		name  string
		kind  animation.Kind
		times []float64
	}{
		{"static repeated", animation.KindNone, []float64{0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5}},
		{"bounce frames", animation.KindBounce, []float64{0, 0.04, 0.08, 0.12, 0.16, 0.2, 0.5, 0.9}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var mu sync.Mutex
			calls := 0
			cfg := testConfig()
			cfg.Animation.Kind = tt.kind
			cfg.Cache = NewHandleCache(64)
			cfg.Measurer = MeasurerFunc(func(text string, _ float64) (float64, float64) {
				mu.Lock()
				calls++
				mu.Unlock()
				return float64(len(text)) * 10, 40
			})
			c := New(testGroups(t), cfg)
			for _, ts := range tt.times {
				if layout := c.Render(ts); len(layout.Items) != 2 {
					t.Fatalf("Render(%v) returned %d items", ts, len(layout.Items))
				}
			}
			if calls != 2 {
				t.Fatalf("measurer called %d times, want 2", calls)
			}
			if stats := c.CacheStats(); stats.Measured != 2 {
				t.Fatalf("unexpected cache stats %+v", stats)
			}
		})
	}
}

func TestHandleCacheMeasureClearsWhenFull(t *testing.T) {
	calls := 0
	m := MeasurerFunc(func(string, float64) (float64, float64) {
		calls++
		return 1, 1
	})
	cache := NewHandleCache(2)
	for _, text := range []string{"a", "b", "a", "c", "a"} {
		cache.Measure(m, text, 10)
	}
	// "c" clears {a, b}, so the last "a" is measured again.
	if calls != 4 {
		t.Fatalf("measurer called %d times, want 4", calls)
	}
	if cache.Measure(m, "a", 12); calls != 5 {
		t.Fatal("a different font size should be measured separately")
	}
}

func TestRenderFadeShowsMarkerGroup(t *testing.T) {
	cfg := testConfig()
	cfg.Animation.Kind = animation.KindFade
	groups := []caption.Group{mustGroup(t, caption.Word{Text: "*", Start: 4.0, End: 4.0})}
	layout := RenderFrame(groups, 4.0, cfg)
	if len(layout.Items) != 1 || !layout.Items[0].State.Visible() {
		t.Fatalf("marker group not visible at its instant: %+v", layout.Items)
	}
}

func TestHandleCacheClearsWhenFull(t *testing.T) {
	cache := NewHandleCache(2)
	build := func() Handle { return Handle{} }
	for _, text := range []string{"a", "b", "c"} {
		cache.Get(HandleKey{Text: text}, build)
	}
	if stats := cache.Stats(); stats.Entries != 1 || stats.Misses != 3 {
		t.Fatalf("unexpected stats after overflow %+v", stats)
	}
	cache.Reset()
	if stats := cache.Stats(); stats != (CacheStats{}) {
		t.Fatalf("reset left %+v", stats)
	}
}

func TestRenderConcurrent(t *testing.T) {
	cfg := testConfig()
	cfg.Animation.Kind = animation.KindColor
	c := New(testGroups(t), cfg)

	times := make([]float64, 200)
	want := make([]Layout, len(times))
	for i := range times {
		times[i] = float64(len(times)-i) * 0.017
		want[i] = c.Render(times[i])
	}

	var wg sync.WaitGroup
	got := make([]Layout, len(times))
	for i := range times {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i] = c.Render(times[i])
		}(i)
	}
	wg.Wait()
	for i := range times {
		if !reflect.DeepEqual(stripHandles(got[i]), stripHandles(want[i])) {
			t.Fatalf("concurrent render differs at t=%v", times[i])
		}
	}
}

func stripHandles(l Layout) Layout {
	items := make([]Placement, len(l.Items))
	copy(items, l.Items)
	for i := range items {
		items[i].Handle = Handle{}
	}
	l.Items = items
	return l
}

func TestRenderFrameMatchesCompositor(t *testing.T) {
	groups := testGroups(t)
	cfg := testConfig()
	a := RenderFrame(groups, 0.7, cfg)
	b := New(groups, cfg).Render(0.7)
	if !reflect.DeepEqual(stripHandles(a), stripHandles(b)) {
		t.Fatal("RenderFrame and Compositor.Render disagree")
	}
}

func TestEstimateMeasurer(t *testing.T) {
	m := NewEstimateMeasurer(0)
	w, h := m.Measure("ab", 10)
	if math.Abs(w-12) > 1e-9 || math.Abs(h-12) > 1e-9 {
		t.Fatalf("Measure(ab) = %v x %v", w, h)
	}
	wide, _ := m.Measure("日本", 10)
	if math.Abs(wide-24) > 1e-9 {
		t.Fatalf("wide glyphs measured %v, want 24", wide)
	}
	if w, _ := m.Measure("  ", 10); w != 0 {
		t.Fatalf("blank text width = %v", w)
	}
}

func TestParseAnchorAndCase(t *testing.T) {
	if a, err := ParseAnchor("Top"); err != nil || a != AnchorTop {
		t.Fatalf("ParseAnchor(Top) = %v, %v", a, err)
	}
	if _, err := ParseAnchor("left"); err == nil {
		t.Fatal("expected error for unsupported anchor")
	}
	if c, err := ParseTextCase("title"); err != nil || c != CaseTitle {
		t.Fatalf("ParseTextCase(title) = %v, %v", c, err)
	}
}
