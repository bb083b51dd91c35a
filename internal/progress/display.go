package progress

import (
	"fmt"
	"strings"

	"gitlab_helper/internal/logger"

	"go.uber.org/zap"
)

// LogDisplay writes every status of a displayed run to the log
type LogDisplay struct {
	log *zap.Logger
}

// NewLogDisplay creates a LogDisplay. A nil logger means the global one.
func NewLogDisplay(log *zap.Logger) *LogDisplay {
	if log == nil {
		log = logger.GetLogger()
	}
	return &LogDisplay{log: log}
}

// Open implements Display
func (d *LogDisplay) Open(run *Run) {
	opts := run.Options()
	d.log.Info("progress started", zap.String("title", opts.Title), zap.String("mode", string(opts.Mode)))
	run.Subscribe(func(status Status) {
		d.log.Info("progress",
			zap.String("title", opts.Title),
			zap.Int("progress", status.Progress),
			zap.String("description", status.Description))
	})
}

const barWidth = 20

// FormatStatus renders a status as one line text with a progress bar
func FormatStatus(opts Options, status Status) string {
	var sb strings.Builder
	if opts.Title != "" {
		sb.WriteString("*" + opts.Title + "*\n")
	}
	if opts.Mode == ModeIndeterminate && status.Progress < Complete {
		sb.WriteString("working...")
	} else {
		filled := status.Progress * barWidth / Complete
		sb.WriteString(fmt.Sprintf("`%s%s` %d%%",
			strings.Repeat("█", filled), strings.Repeat("░", barWidth-filled), status.Progress))
	}
	if status.Description != "" {
		sb.WriteString(" " + status.Description)
	}
	return sb.String()
}
