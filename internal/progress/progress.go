package progress

import (
	"math"
	"sync"
	"time"
)

// Complete is the progress value that ends a run
const Complete = 100

// DefaultDelay is how long a run may take before its display is opened
const DefaultDelay = 500 * time.Millisecond

// Mode tells a display whether the progress value is meaningful
type Mode string

const (
	ModeDeterminate   Mode = "determinate"
	ModeIndeterminate Mode = "indeterminate"
)

// Status is a single progress report. Progress is in [0, 100].
type Status struct {
	Progress    int
	Description string
}

// QuitStatus ends a run
var QuitStatus = Status{Progress: Complete}

// Options configure a run
type Options struct {
	Title   string
	Mode    Mode
	Initial *Status // submitted right after the run is started
}

// Handle is the producer side of a run
type Handle interface {
	// Submit reports a new status
	Submit(status Status)
	// Finish submits QuitStatus
	Finish()
}

// Tracker starts progress runs
type Tracker interface {
	Start(opts Options) Handle
}

// Run is one tracked operation. It accepts statuses until the first one
// reaching 100; everything submitted afterwards is ignored.
type Run struct {
	opts Options

	// deliver orders the calls to subscribers, mu guards the fields below
	deliver     sync.Mutex
	mu          sync.Mutex
	last        Status
	finished    bool
	done        chan struct{}
	subscribers []func(Status)
	onFinish    []func()
}

func newRun(opts Options) *Run {
	return &Run{opts: opts, done: make(chan struct{})}
}

// Options returns the options the run was started with
func (r *Run) Options() Options {
	return r.opts
}

// Submit implements Handle. Subscribers are called synchronously.
func (r *Run) Submit(status Status) {
	status.Progress = clamp(status.Progress)

	r.deliver.Lock()
	r.mu.Lock()
	if r.finished {
		r.mu.Unlock()
		r.deliver.Unlock()
		return
	}
	r.last = status
	subscribers := r.subscribers
	var onFinish []func()
	if status.Progress >= Complete {
		r.finished = true
		onFinish = r.onFinish
		r.onFinish = nil
		close(r.done)
	}
	r.mu.Unlock()

	for _, fn := range subscribers {
		fn(status)
	}
	r.deliver.Unlock()

	for _, fn := range onFinish {
		fn()
	}
}

// Finish implements Handle
func (r *Run) Finish() {
	r.Submit(QuitStatus)
}

// Subscribe registers fn for all future statuses and replays the last one.
// fn sees every status after the replay in submission order and must not
// submit to the run itself.
func (r *Run) Subscribe(fn func(Status)) {
	r.deliver.Lock()
	defer r.deliver.Unlock()
	r.mu.Lock()
	last := r.last
	r.subscribers = append(r.subscribers, fn)
	r.mu.Unlock()
	fn(last)
}

// Last returns the most recent status
func (r *Run) Last() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

// Finished reports whether the run reached 100
func (r *Run) Finished() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.finished
}

// Done is closed once the run reached 100
func (r *Run) Done() <-chan struct{} {
	return r.done
}

func (r *Run) whenFinished(fn func()) {
	r.mu.Lock()
	if !r.finished {
		r.onFinish = append(r.onFinish, fn)
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()
	fn()
}

// Display renders a run. Open is called at most once per run and only if
// the run is still in progress after the delay.
type Display interface {
	Open(run *Run)
}

// ServiceOption configures a Service
type ServiceOption func(*Service)

// WithDelay sets how long a run may take before it is displayed
func WithDelay(delay time.Duration) ServiceOption {
	return func(s *Service) {
		if delay >= 0 {
			s.delay = delay
		}
	}
}

// Service starts runs and hands long running ones to a display
type Service struct {
	display Display
	delay   time.Duration
}

// NewService creates a Service. display may be nil.
func NewService(display Display, opts ...ServiceOption) *Service {
	s := &Service{display: display, delay: DefaultDelay}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start implements Tracker
func (s *Service) Start(opts Options) Handle {
	run := s.StartRun(opts)
	return run
}

// StartRun starts a run and returns it for callers that want to observe it
func (s *Service) StartRun(opts Options) *Run {
	run := newRun(opts)
	if s.display != nil {
		timer := time.AfterFunc(s.delay, func() {
			if !run.Finished() {
				s.display.Open(run)
			}
		})
		run.whenFinished(func() { timer.Stop() })
	}
	if opts.Initial != nil {
		run.Submit(*opts.Initial)
	}
	return run
}

// Percent rounds value and clamps it to [0, 100]
func Percent(value float64) int {
	if math.IsNaN(value) {
		return 0
	}
	return clamp(int(math.Round(math.Max(-1, math.Min(101, value)))))
}

// ToProgress returns dividend as percentage of divisor.
// A divisor of 0 means there is nothing to do and yields 100.
func ToProgress(dividend, divisor float64) int {
	if divisor == 0 {
		return Complete
	}
	return Percent(100 * dividend / divisor)
}

func clamp(progress int) int {
	return max(0, min(Complete, progress))
}
