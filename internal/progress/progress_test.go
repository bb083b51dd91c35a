package progress

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type recordingDisplay struct {
	mu     sync.Mutex
	opened []*Run
}

func (d *recordingDisplay) Open(run *Run) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.opened = append(d.opened, run)
}

func (d *recordingDisplay) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.opened)
}

// recordingHandle collects submitted statuses
type recordingHandle struct {
	mu       sync.Mutex
	statuses []Status
}

func (h *recordingHandle) Submit(status Status) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.statuses = append(h.statuses, status)
}

func (h *recordingHandle) Finish() { h.Submit(QuitStatus) }

func (h *recordingHandle) progresses() []int {
	h.mu.Lock()
	defer h.mu.Unlock()
	var result []int
	for _, s := range h.statuses {
		result = append(result, s.Progress)
	}
	return result
}

func TestToProgress(t *testing.T) {
	tests := []struct {
		dividend, divisor float64
		want              int
	}{
		{0, 100, 0},
		{1, 3, 33},
		{2, 3, 67},
		{150, 100, 100},
		{-5, 100, 0},
		{5, 0, 100},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ToProgress(tt.dividend, tt.divisor), "%v/%v", tt.dividend, tt.divisor)
	}
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 0, Percent(-3))
	assert.Equal(t, 43, Percent(42.6))
	assert.Equal(t, 100, Percent(250))
}

func TestRun_AcceptsCompleteOnce(t *testing.T) {
	s := NewService(nil)
	run := s.StartRun(Options{Title: "t"})

	var seen []int
	run.Subscribe(func(status Status) { seen = append(seen, status.Progress) })
	run.Submit(Status{Progress: 40})
	run.Finish()
	run.Submit(Status{Progress: 60})
	run.Finish()

	assert.Equal(t, []int{0, 40, 100}, seen)
	assert.True(t, run.Finished())
	select {
	case <-run.Done():
	default:
		t.Fatal("done channel not closed")
	}
}

func TestRun_ClampsProgress(t *testing.T) {
	run := NewService(nil).StartRun(Options{})

	run.Submit(Status{Progress: -1})
	assert.Equal(t, 0, run.Last().Progress)
	run.Submit(Status{Progress: 120})
	assert.Equal(t, 100, run.Last().Progress)
	assert.True(t, run.Finished())
}

func TestService_InitialStatus(t *testing.T) {
	run := NewService(nil).StartRun(Options{Initial: &Status{Progress: 5, Description: "start"}})

	assert.Equal(t, Status{Progress: 5, Description: "start"}, run.Last())
}

func TestService_DisplayDeferred(t *testing.T) {
	display := &recordingDisplay{}
	s := NewService(display, WithDelay(20*time.Millisecond))

	quick := s.Start(Options{Title: "quick"})
	quick.Finish()
	slow := s.Start(Options{Title: "slow"})

	require.Eventually(t, func() bool { return display.count() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, 1, display.count())
	assert.Equal(t, "slow", display.opened[0].Options().Title)
	slow.Finish()
}

func TestHandler(t *testing.T) {
	handle := &recordingHandle{}
	h := NewHandler(handle, ValuesOfMinMax(4, 0, 80), func(progress, count int) string {
		return "deleted"
	})

	for i := 0; i < 6; i++ {
		h.Done()
	}

	assert.Equal(t, []int{20, 40, 60, 80, 80, 80}, handle.progresses())
	assert.Equal(t, 4, h.Count())
	assert.Equal(t, "deleted", handle.statuses[0].Description)
}

func TestHandler_NoSteps(t *testing.T) {
	handle := &recordingHandle{}
	h := NewHandler(handle, ValuesOfMinMax(0, 80, 100), nil)

	h.Done()

	assert.Empty(t, handle.progresses())
}

func TestHandler_ConcurrentDoneIsMonotonic(t *testing.T) {
	handle := &recordingHandle{}
	h := NewHandler(handle, ValuesOfMinMax(50, 20, 100), nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.Done()
		}()
	}
	wg.Wait()

	progresses := handle.progresses()
	require.Len(t, progresses, 50)
	for i := 1; i < len(progresses); i++ {
		assert.GreaterOrEqual(t, progresses[i], progresses[i-1])
	}
	assert.Equal(t, 100, progresses[len(progresses)-1])
}

func TestFinishProgress(t *testing.T) {
	errBoom := errors.New("boom")

	handle := &recordingHandle{}
	require.NoError(t, FinishProgress(handle, func() error { return nil }))
	assert.Equal(t, []int{100}, handle.progresses())

	handle = &recordingHandle{}
	require.ErrorIs(t, FinishProgress(handle, func() error { return errBoom }), errBoom)
	assert.Equal(t, []int{100}, handle.progresses())
}

func TestFinishProgressOnError(t *testing.T) {
	errBoom := errors.New("boom")

	handle := &recordingHandle{}
	require.NoError(t, FinishProgressOnError(handle, func() error { return nil }))
	assert.Empty(t, handle.progresses())

	handle = &recordingHandle{}
	require.ErrorIs(t, FinishProgressOnError(handle, func() error { return errBoom }), errBoom)
	assert.Equal(t, []int{100}, handle.progresses())
}

func TestFormatStatus(t *testing.T) {
	text := FormatStatus(Options{Title: "Import"}, Status{Progress: 50, Description: "half"})

	assert.Contains(t, text, "*Import*")
	assert.Contains(t, text, "50%")
	assert.Contains(t, text, "half")
	assert.Contains(t, FormatStatus(Options{Mode: ModeIndeterminate}, Status{Progress: 10}), "working")
}

func TestLogDisplay(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	run := NewService(nil).StartRun(Options{Title: "sync"})

	NewLogDisplay(zap.New(core)).Open(run)
	run.Submit(Status{Progress: 50, Description: "half"})
	run.Finish()

	entries := logs.All()
	require.Len(t, entries, 4)
	assert.Equal(t, "progress started", entries[0].Message)
	var progresses []int64
	for _, e := range entries[1:] {
		assert.Equal(t, "sync", e.ContextMap()["title"])
		progresses = append(progresses, e.ContextMap()["progress"].(int64))
	}
	assert.Equal(t, []int64{0, 50, 100}, progresses)
}

func TestRun_SubscribeDuringSubmitsKeepsOrder(t *testing.T) {
	for attempt := 0; attempt < 50; attempt++ {
		run := NewService(nil).StartRun(Options{})
		var (
			mu   sync.Mutex
			seen []int
		)
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := 1; p <= Complete; p++ {
				run.Submit(Status{Progress: p})
			}
		}()
		run.Subscribe(func(status Status) {
			mu.Lock()
			defer mu.Unlock()
			seen = append(seen, status.Progress)
		})
		wg.Wait()

		mu.Lock()
		require.NotEmpty(t, seen)
		assert.IsNonDecreasing(t, seen)
		assert.Equal(t, Complete, seen[len(seen)-1])
		mu.Unlock()
	}
}
