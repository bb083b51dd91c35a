package exchange

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"gitlab_helper/internal/gitlab"
	"gitlab_helper/internal/model"

	"golang.org/x/sync/errgroup"
)

// Source is what an export reads from: a project or an existing model
type Source struct {
	projectID int
	model     *model.IssueExchangeModel
}

// ProjectSource exports the issues and labels of a project
func ProjectSource(projectID int) Source {
	return Source{projectID: projectID}
}

// ModelSource re-exports an existing model
func ModelSource(data model.IssueExchangeModel) Source {
	return Source{model: &data}
}

// Exporter creates exchange models
type Exporter struct {
	issues IssueService
	labels LabelService
}

func NewExporter(issues IssueService, labels LabelService) *Exporter {
	return &Exporter{issues: issues, labels: labels}
}

// Export reads issues and labels concurrently. Issues of a project are ordered
// by iid. Only labels referenced by at least one issue are kept.
func (e *Exporter) Export(ctx context.Context, src Source) (*model.IssueExchangeModel, error) {
	var (
		issues []model.ExchangeIssue
		labels []model.ExchangeLabel
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		issues, err = e.exportIssues(gctx, src)
		return err
	})
	g.Go(func() error {
		var err error
		labels, err = e.exportLabels(gctx, src)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &model.IssueExchangeModel{
		Issues: nonNil(issues),
		Labels: onlyLabelsUsedInIssues(labels, issues),
	}, nil
}

func (e *Exporter) exportIssues(ctx context.Context, src Source) ([]model.ExchangeIssue, error) {
	if src.model != nil {
		return src.model.Issues, nil
	}
	issues, err := gitlab.Payloads(e.issues.Issues(ctx, src.projectID, gitlab.IssueRequestOptions{}))
	if err != nil {
		return nil, fmt.Errorf("failed to export issues of project %d: %w", src.projectID, err)
	}
	slices.SortStableFunc(issues, compareIID)

	result := make([]model.ExchangeIssue, 0, len(issues))
	for _, issue := range issues {
		result = append(result, MapIssue(issue))
	}
	return result, nil
}

func (e *Exporter) exportLabels(ctx context.Context, src Source) ([]model.ExchangeLabel, error) {
	if src.model != nil {
		return src.model.Labels, nil
	}
	labels, err := gitlab.Payloads(e.labels.Labels(ctx, src.projectID))
	if err != nil {
		return nil, fmt.Errorf("failed to export labels of project %d: %w", src.projectID, err)
	}
	result := make([]model.ExchangeLabel, 0, len(labels))
	for _, label := range labels {
		result = append(result, MapLabel(label))
	}
	return result, nil
}

// compareIID orders by iid, issues without iid go last
func compareIID(a, b model.Issue) int {
	switch {
	case a.IID == 0 && b.IID == 0:
		return 0
	case a.IID == 0:
		return 1
	case b.IID == 0:
		return -1
	default:
		return cmp.Compare(a.IID, b.IID)
	}
}

func onlyLabelsUsedInIssues(labels []model.ExchangeLabel, issues []model.ExchangeIssue) []model.ExchangeLabel {
	var used []string
	for _, issue := range issues {
		used = append(used, issue.Labels...)
	}
	return model.LabelsByName(used, labels)
}
