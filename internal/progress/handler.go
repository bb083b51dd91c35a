package progress

import "sync"

// HandlerValues map the completed steps of a sub operation onto a progress range
type HandlerValues struct {
	Offset float64
	Steps  int
	Factor float64
}

// ValuesOfMinMax spreads steps evenly over [minValue, maxValue]
func ValuesOfMinMax(steps int, minValue, maxValue int) HandlerValues {
	values := HandlerValues{Offset: float64(minValue), Steps: steps}
	if steps > 0 {
		values.Factor = float64(maxValue-minValue) / float64(steps)
	}
	return values
}

// LabelFactory describes the status after count steps are done
type LabelFactory func(progress, count int) string

// Handler submits a status to a Handle every time a step is done.
// It is safe for concurrent use.
type Handler struct {
	handle Handle
	values HandlerValues
	label  LabelFactory

	mu    sync.Mutex
	count int
}

// NewHandler creates a Handler. A handler without steps never submits.
func NewHandler(handle Handle, values HandlerValues, label LabelFactory) *Handler {
	return &Handler{handle: handle, values: values, label: label}
}

// Done marks one more step as done. The count saturates at Steps.
func (h *Handler) Done() {
	if h.values.Steps <= 0 {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count = min(h.count+1, h.values.Steps)
	progress := Percent(h.values.Offset + float64(h.count)*h.values.Factor)
	status := Status{Progress: progress}
	if h.label != nil {
		status.Description = h.label(progress, h.count)
	}
	// submitted under the lock to keep the reported values ordered
	h.handle.Submit(status)
}

// Count returns the number of steps done
func (h *Handler) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.count
}

// FinishProgress runs fn and finishes handle on every exit path
func FinishProgress(handle Handle, fn func() error) error {
	defer handle.Finish()
	return fn()
}

// FinishProgressOnError runs fn and finishes handle only if fn fails.
// The error is returned unchanged.
func FinishProgressOnError(handle Handle, fn func() error) error {
	if err := fn(); err != nil {
		handle.Finish()
		return err
	}
	return nil
}
