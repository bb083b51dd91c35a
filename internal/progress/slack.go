package progress

import (
	"context"
	"time"

	"gitlab_helper/internal/logger"

	"github.com/slack-go/slack"
	"go.uber.org/zap"
)

// SlackClient is the part of *slack.Client used by SlackDisplay
type SlackClient interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
	UpdateMessageContext(ctx context.Context, channelID, timestamp string, options ...slack.MsgOption) (string, string, string, error)
}

// SlackDisplay posts a message for a run and keeps updating it until the run completes.
// Statuses arriving faster than Slack accepts them are coalesced to the latest one.
type SlackDisplay struct {
	api     SlackClient
	channel string
	timeout time.Duration
}

// NewSlackDisplay creates a display posting to channel
func NewSlackDisplay(api SlackClient, channel string) *SlackDisplay {
	return &SlackDisplay{api: api, channel: channel, timeout: 10 * time.Second}
}

// Open implements Display
func (d *SlackDisplay) Open(run *Run) {
	updates := make(chan Status, 1)
	run.Subscribe(func(status Status) {
		for {
			select {
			case updates <- status:
				return
			default:
			}
			// drop the stale status nobody rendered yet
			select {
			case <-updates:
			default:
			}
		}
	})
	go d.render(run, updates)
}

func (d *SlackDisplay) render(run *Run, updates <-chan Status) {
	var timestamp string
	opts := run.Options()
	for {
		var status Status
		select {
		case status = <-updates:
		case <-run.Done():
			status = run.Last()
		}
		timestamp = d.show(opts, timestamp, status)
		if status.Progress >= Complete {
			return
		}
	}
}

// show posts the first message of a run and updates it afterwards. It returns
// the timestamp identifying the message.
func (d *SlackDisplay) show(opts Options, timestamp string, status Status) string {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	text := slack.MsgOptionText(FormatStatus(opts, status), false)
	if timestamp == "" {
		_, ts, err := d.api.PostMessageContext(ctx, d.channel, text)
		if err != nil {
			logger.Named("progress").Error("failed to post progress message", zap.Error(err))
			return ""
		}
		return ts
	}
	if _, _, _, err := d.api.UpdateMessageContext(ctx, d.channel, timestamp, text); err != nil {
		logger.Named("progress").Error("failed to update progress message", zap.Error(err))
	}
	return timestamp
}
