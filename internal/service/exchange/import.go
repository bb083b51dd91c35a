package exchange

import (
	"context"
	"fmt"

	"gitlab_helper/internal/gitlab"
	"gitlab_helper/internal/logger"
	"gitlab_helper/internal/model"
	"gitlab_helper/internal/progress"

	"go.uber.org/zap"
)

// progress ranges of the clean phase
const (
	cleanIssuesFrom = 0
	cleanIssuesTo   = 80
	cleanLabelsFrom = 80
	cleanLabelsTo   = 100
)

// ImportOptions select what is removed from the target project before populating it
type ImportOptions struct {
	DeleteOpenIssues   bool `json:"delete_open_issues"`
	DeleteClosedIssues bool `json:"delete_closed_issues"`
	DeleteUnusedLabels bool `json:"delete_unused_labels"`
}

// ImportResult holds what an import created. Labels that already existed are not part of it.
type ImportResult struct {
	Labels []model.Label `json:"labels"`
	Issues []model.Issue `json:"issues"`
}

// Phase is the stage an import is in
type Phase string

const (
	PhaseIdle             Phase = "idle"
	PhaseCleaning         Phase = "cleaning"
	PhasePopulatingLabels Phase = "populating_labels"
	PhasePopulatingIssues Phase = "populating_issues"
	PhaseDone             Phase = "done"
	PhaseErrored          Phase = "errored"
)

// PhaseListener is notified about every phase an import enters
type PhaseListener func(project model.Project, phase Phase)

// ImporterOption configures an Importer
type ImporterOption func(*Importer)

// WithConcurrency bounds the number of concurrent requests of a batch. 0 means unbounded.
func WithConcurrency(n int) ImporterOption {
	return func(im *Importer) {
		if n >= 0 {
			im.concurrency = n
		}
	}
}

// WithPhaseListener registers listener for phase changes
func WithPhaseListener(listener PhaseListener) ImporterOption {
	return func(im *Importer) {
		im.listener = listener
	}
}

// Importer writes exchange models into projects
type Importer struct {
	issues      IssueService
	labels      LabelService
	tracker     progress.Tracker
	concurrency int
	listener    PhaseListener
}

func NewImporter(issues IssueService, labels LabelService, tracker progress.Tracker, opts ...ImporterOption) *Importer {
	im := &Importer{issues: issues, labels: labels, tracker: tracker}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// Import cleans project as requested by opts and then creates the labels and
// issues of data. With obtainOrder the issues are created one after another
// in the order of data, otherwise all at once.
//
// A failure stops the import. Changes made before are not rolled back.
func (im *Importer) Import(ctx context.Context, project model.Project, data model.IssueExchangeModel, opts ImportOptions, obtainOrder bool) (*ImportResult, error) {
	im.enter(project, PhaseIdle)

	im.enter(project, PhaseCleaning)
	if err := im.clean(ctx, project, opts); err != nil {
		im.fail(project, err)
		return nil, err
	}

	result, err := im.populate(ctx, project, data, obtainOrder)
	if err != nil {
		im.fail(project, err)
		return nil, err
	}
	im.enter(project, PhaseDone)
	return result, nil
}

func (im *Importer) enter(project model.Project, phase Phase) {
	logger.Named("exchange").Info("import phase",
		zap.Int("project", project.ID),
		zap.String("phase", string(phase)))
	if im.listener != nil {
		im.listener(project, phase)
	}
}

func (im *Importer) fail(project model.Project, err error) {
	logger.Named("exchange").Error("import failed", zap.Int("project", project.ID), zap.Error(err))
	if im.listener != nil {
		im.listener(project, PhaseErrored)
	}
}

func (im *Importer) clean(ctx context.Context, project model.Project, opts ImportOptions) error {
	handle := im.tracker.Start(progress.Options{Title: "Cleaning project...", Mode: progress.ModeDeterminate})
	return progress.FinishProgress(handle, func() error {
		if err := im.deleteIssues(ctx, project, opts, handle); err != nil {
			return err
		}
		return im.deleteUnusedLabels(ctx, project, opts, handle)
	})
}

func (im *Importer) deleteIssues(ctx context.Context, project model.Project, opts ImportOptions, handle progress.Handle) error {
	if !opts.DeleteOpenIssues && !opts.DeleteClosedIssues {
		return nil
	}
	var request gitlab.IssueRequestOptions
	switch {
	case opts.DeleteOpenIssues && opts.DeleteClosedIssues:
	case opts.DeleteOpenIssues:
		request.State = model.IssueStateOpened
	default:
		request.State = model.IssueStateClosed
	}

	handle.Submit(progress.Status{Progress: cleanIssuesFrom, Description: "Fetching issues from project"})
	issues, err := gitlab.Payloads(im.issues.Issues(ctx, project.ID, request))
	if err != nil {
		return fmt.Errorf("failed to fetch issues to delete: %w", err)
	}
	total := len(issues)
	if total == 0 {
		return nil
	}

	handler := progress.NewHandler(handle,
		progress.ValuesOfMinMax(total, cleanIssuesFrom, cleanIssuesTo),
		func(_, count int) string { return fmt.Sprintf("Deleted %d of %d issue(s).", count, total) })
	return forEach(ctx, total, im.concurrency, func(ctx context.Context, i int) error {
		if err := im.issues.Delete(ctx, project.ID, issues[i].IID); err != nil {
			return err
		}
		handler.Done()
		return nil
	})
}

func (im *Importer) deleteUnusedLabels(ctx context.Context, project model.Project, opts ImportOptions, handle progress.Handle) error {
	if !opts.DeleteUnusedLabels {
		return nil
	}

	handle.Submit(progress.Status{Progress: cleanLabelsFrom, Description: "Fetching labels from project"})
	labels, err := gitlab.Payloads(im.labels.LabelsWithCounts(ctx, project.ID))
	if err != nil {
		return fmt.Errorf("failed to fetch labels to delete: %w", err)
	}
	var unused []model.LabelWithCounts
	for _, label := range labels {
		if label.IsProjectLabel && !model.IsLabelUsed(label) {
			unused = append(unused, label)
		}
	}
	total := len(unused)
	if total == 0 {
		return nil
	}

	handler := progress.NewHandler(handle,
		progress.ValuesOfMinMax(total, cleanLabelsFrom, cleanLabelsTo),
		func(_, count int) string { return fmt.Sprintf("Deleted %d of %d label(s).", count, total) })
	return forEach(ctx, total, im.concurrency, func(ctx context.Context, i int) error {
		if err := im.labels.Delete(ctx, project.ID, unused[i].Name); err != nil {
			return err
		}
		handler.Done()
		return nil
	})
}

func (im *Importer) populate(ctx context.Context, project model.Project, data model.IssueExchangeModel, obtainOrder bool) (*ImportResult, error) {
	result := &ImportResult{Labels: []model.Label{}, Issues: []model.Issue{}}
	total := len(data.Labels) + len(data.Issues)
	if total == 0 {
		return result, nil
	}
	progressAfterLabels := progress.ToProgress(float64(len(data.Labels)), float64(total))

	handle := im.tracker.Start(progress.Options{Title: "Importing...", Mode: progress.ModeDeterminate})
	err := progress.FinishProgress(handle, func() error {
		im.enter(project, PhasePopulatingLabels)
		labels, err := im.importLabels(ctx, project, data.Labels, handle, progressAfterLabels)
		if err != nil {
			return err
		}
		result.Labels = labels

		im.enter(project, PhasePopulatingIssues)
		issues, err := im.importIssues(ctx, project, data.Issues, handle, progressAfterLabels, obtainOrder)
		if err != nil {
			return err
		}
		result.Issues = issues
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// importLabels creates the labels that do not exist in the project yet
func (im *Importer) importLabels(ctx context.Context, project model.Project, labels []model.ExchangeLabel, handle progress.Handle, maxProgress int) ([]model.Label, error) {
	existing, err := gitlab.Payloads(im.labels.Labels(ctx, project.ID))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch existing labels: %w", err)
	}
	known := make(map[string]bool, len(existing))
	for _, label := range existing {
		known[label.Name] = true
	}
	var missing []model.ExchangeLabel
	for _, label := range labels {
		if !known[label.Name] {
			known[label.Name] = true
			missing = append(missing, label)
		}
	}
	total := len(missing)
	if total == 0 {
		return []model.Label{}, nil
	}

	handler := progress.NewHandler(handle,
		progress.ValuesOfMinMax(total, 0, maxProgress),
		func(_, count int) string { return fmt.Sprintf("Imported %d of %d label(s)", count, total) })
	created := make([]model.Label, total)
	err = forEach(ctx, total, im.concurrency, func(ctx context.Context, i int) error {
		label, err := im.labels.Create(ctx, project, toLabel(missing[i]))
		if err != nil {
			return err
		}
		created[i] = label
		handler.Done()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (im *Importer) importIssues(ctx context.Context, project model.Project, issues []model.ExchangeIssue, handle progress.Handle, minProgress int, obtainOrder bool) ([]model.Issue, error) {
	total := len(issues)
	if total == 0 {
		return []model.Issue{}, nil
	}
	handler := progress.NewHandler(handle,
		progress.ValuesOfMinMax(total, minProgress, progress.Complete),
		func(_, count int) string { return fmt.Sprintf("Imported %d of %d issue(s)", count, total) })

	created := make([]model.Issue, total)
	if obtainOrder {
		// issues get their iid in creation order
		for i, issue := range issues {
			c, err := im.issues.Create(ctx, project.ID, toIssue(issue))
			if err != nil {
				return nil, err
			}
			created[i] = c
			handler.Done()
		}
		return created, nil
	}

	err := forEach(ctx, total, im.concurrency, func(ctx context.Context, i int) error {
		c, err := im.issues.Create(ctx, project.ID, toIssue(issues[i]))
		if err != nil {
			return err
		}
		created[i] = c
		handler.Done()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}
