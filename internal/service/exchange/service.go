// Package exchange moves the issues and labels of a project to and from the
// portable model.IssueExchangeModel.
package exchange

import (
	"context"
	"iter"

	"gitlab_helper/internal/gitlab"
	"gitlab_helper/internal/model"

	"golang.org/x/sync/errgroup"
)

// IssueService is the part of gitlab.IssuesService used here
type IssueService interface {
	Issues(ctx context.Context, projectID int, opts gitlab.IssueRequestOptions) iter.Seq2[gitlab.DataSet[model.Issue], error]
	Create(ctx context.Context, projectID int, issue model.Issue) (model.Issue, error)
	Delete(ctx context.Context, projectID, iid int) error
}

// LabelService is the part of gitlab.LabelsService used here
type LabelService interface {
	Labels(ctx context.Context, projectID int) iter.Seq2[gitlab.DataSet[model.Label], error]
	LabelsWithCounts(ctx context.Context, projectID int) iter.Seq2[gitlab.DataSet[model.LabelWithCounts], error]
	Create(ctx context.Context, project model.Project, label model.Label) (model.Label, error)
	Delete(ctx context.Context, projectID int, name string) error
}

// forEach runs fn for 0..n-1 concurrently. The first failure cancels the
// context passed to the remaining calls and is returned. Calls that have not
// started by then are skipped.
func forEach(ctx context.Context, n, limit int, fn func(ctx context.Context, i int) error) error {
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(gctx, i)
		})
	}
	return g.Wait()
}
