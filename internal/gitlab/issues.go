package gitlab

import (
	"context"
	"fmt"
	"iter"
	"net/http"
	"net/url"
	"strings"

	"gitlab_helper/internal/model"
)

// IssueRequestOptions filters the issues of a project
type IssueRequestOptions struct {
	State model.IssueState // empty means all states
}

// IssuesService reads and writes the issues of a project
type IssuesService struct {
	client *Client
}

func issuesResource(projectID int) string {
	return fmt.Sprintf("projects/%d/issues", projectID)
}

// Issues streams the issues of a project
func (s *IssuesService) Issues(ctx context.Context, projectID int, opts IssueRequestOptions) iter.Seq2[DataSet[model.Issue], error] {
	params := url.Values{}
	if opts.State != "" {
		params.Set("state", string(opts.State))
	}
	seq := Paginate[apiIssue](ctx, s.client, issuesResource(projectID), &CallOptions{Params: params}, s.client.pageSize)
	return mapSeq(seq, ReduceIssue)
}

// Statistics returns the number of opened and closed issues of a project
func (s *IssuesService) Statistics(ctx context.Context, projectID int) (model.IssuesStatistics, error) {
	stats, err := Call[apiIssuesStatistics](ctx, s.client, fmt.Sprintf("projects/%d/issues_statistics", projectID), "", nil)
	if err != nil {
		return model.IssuesStatistics{}, fmt.Errorf("failed to get issue statistics of project %d: %w", projectID, err)
	}
	return model.IssuesStatistics{
		Closed: stats.Statistics.Counts.Closed,
		Opened: stats.Statistics.Counts.Opened,
	}, nil
}

// Create creates an issue and returns it with the identifiers assigned by the server.
// The state of the given issue is not transferred, new issues are always opened.
func (s *IssuesService) Create(ctx context.Context, projectID int, issue model.Issue) (model.Issue, error) {
	params := url.Values{}
	params.Set("title", issue.Title)
	params.Set("description", issue.Description)
	params.Set("labels", strings.Join(issue.Labels, ","))
	if issue.IssueType != "" {
		params.Set("issue_type", string(issue.IssueType))
	}

	created, err := Call[apiIssue](ctx, s.client, issuesResource(projectID), http.MethodPost, &CallOptions{Params: params})
	if err != nil {
		return model.Issue{}, fmt.Errorf("failed to create issue %q: %w", issue.Title, err)
	}
	return ReduceIssue(created), nil
}

// Delete deletes the issue with the given project scoped iid
func (s *IssuesService) Delete(ctx context.Context, projectID, iid int) error {
	resource := fmt.Sprintf("%s/%d", issuesResource(projectID), iid)
	if _, err := Call[struct{}](ctx, s.client, resource, http.MethodDelete, nil); err != nil {
		return fmt.Errorf("failed to delete issue %d: %w", iid, err)
	}
	return nil
}
