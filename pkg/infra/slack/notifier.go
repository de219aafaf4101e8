package slack

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/stargazer/pkg/domain/interfaces"
	"github.com/m-mizutani/stargazer/pkg/domain/model"
	"github.com/slack-go/slack"
)

const (
	colorSuccess = "good"
	colorFailure = "danger"
)

type notifier struct {
	webhookURL string
}

var _ interfaces.Notifier = (*notifier)(nil)

// NewNotifier creates a notifier posting run reports to a Slack incoming webhook
func NewNotifier(webhookURL string) *notifier {
	return &notifier{webhookURL: webhookURL}
}

// NotifyRun posts a summary of the run. runErr is nil for a successful run.
func (n *notifier) NotifyRun(ctx context.Context, report *model.RunReport, runErr error) error {
	msg := buildMessage(report, runErr)

	if err := slack.PostWebhookContext(ctx, n.webhookURL, msg); err != nil {
		return goerr.Wrap(err, "failed to post slack webhook", goerr.V("run_id", report.RunID))
	}

	ctxlog.From(ctx).Debug("Posted run report to slack", "run_id", report.RunID)
	return nil
}

func buildMessage(report *model.RunReport, runErr error) *slack.WebhookMessage {
	attachment := slack.Attachment{
		Color: colorSuccess,
		Title: fmt.Sprintf("Stargazer %s run succeeded", report.Mode),
		Fields: []slack.AttachmentField{
			{Title: "Rows added", Value: fmt.Sprintf("%d", report.RowsAdded), Short: true},
			{Title: "Rows total", Value: fmt.Sprintf("%d", report.RowsAfter), Short: true},
			{Title: "Duration", Value: report.Duration.Round(time.Millisecond).String(), Short: true},
			{Title: "Run ID", Value: report.RunID, Short: true},
		},
		Footer: "stargazer",
	}

	if runErr != nil {
		attachment.Color = colorFailure
		attachment.Title = fmt.Sprintf("Stargazer %s run failed", report.Mode)
		attachment.Text = runErr.Error()
	}

	var lines []string
	for _, src := range report.Sources {
		if src.RowsAdded == 0 {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: +%d", src.Source, src.RowsAdded))
	}
	if len(lines) > 0 {
		attachment.Fields = append(attachment.Fields, slack.AttachmentField{
			Title: "New stars",
			Value: strings.Join(lines, "\n"),
		})
	}

	return &slack.WebhookMessage{
		Text:        attachment.Title,
		Attachments: []slack.Attachment{attachment},
	}
}
