package gitlab

import "gitlab_helper/internal/model"

// The api* types mirror the wide payloads the server sends. The reducers
// below narrow them to the shapes in internal/model and drop everything else.

type apiProjectNamespace struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Path     string `json:"path"`
	Kind     string `json:"kind"`
	FullPath string `json:"full_path"`
	WebURL   string `json:"web_url"`
}

type apiProject struct {
	ID                int                 `json:"id"`
	Name              string              `json:"name"`
	Description       string              `json:"description"`
	NameWithNamespace string              `json:"name_with_namespace"`
	PathWithNamespace string              `json:"path_with_namespace"`
	DefaultBranch     string              `json:"default_branch"`
	WebURL            string              `json:"web_url"`
	Namespace         apiProjectNamespace `json:"namespace"`
}

type apiIssue struct {
	ID          int              `json:"id"`
	IID         int              `json:"iid"`
	ProjectID   int              `json:"project_id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	State       model.IssueState `json:"state"`
	Labels      []string         `json:"labels"`
	IssueType   model.IssueType  `json:"issue_type"`
	WebURL      string           `json:"web_url"`
	CreatedAt   string           `json:"created_at"`
	Author      *apiUser         `json:"author"`
}

type apiLabel struct {
	ID                     int    `json:"id"`
	Name                   string `json:"name"`
	Description            string `json:"description"`
	Color                  string `json:"color"`
	TextColor              string `json:"text_color"`
	Priority               *int   `json:"priority"`
	IsProjectLabel         bool   `json:"is_project_label"`
	Subscribed             bool   `json:"subscribed"`
	OpenIssuesCount        int    `json:"open_issues_count"`
	ClosedIssuesCount      int    `json:"closed_issues_count"`
	OpenMergeRequestsCount int    `json:"open_merge_requests_count"`
}

type apiUser struct {
	ID        int    `json:"id"`
	Username  string `json:"username"`
	Name      string `json:"name"`
	State     string `json:"state"`
	AvatarURL string `json:"avatar_url"`
	WebURL    string `json:"web_url"`
}

type apiIssuesStatistics struct {
	Statistics struct {
		Counts struct {
			All    int `json:"all"`
			Closed int `json:"closed"`
			Opened int `json:"opened"`
		} `json:"counts"`
	} `json:"statistics"`
}

// ReduceProjectNamespace renames full_path to FullPath and drops the rest
func ReduceProjectNamespace(ns apiProjectNamespace) model.ProjectNamespace {
	return model.ProjectNamespace{
		ID:       ns.ID,
		FullPath: ns.FullPath,
	}
}

// ReduceProject converts the snake_case project payload to model.Project
func ReduceProject(p apiProject) model.Project {
	return model.Project{
		ID:                p.ID,
		Name:              p.Name,
		NameWithNamespace: p.NameWithNamespace,
		PathWithNamespace: p.PathWithNamespace,
		WebURL:            p.WebURL,
		Namespace:         ReduceProjectNamespace(p.Namespace),
	}
}

func ReduceIssue(i apiIssue) model.Issue {
	return model.Issue{
		ID:          i.ID,
		IID:         i.IID,
		Title:       i.Title,
		Description: i.Description,
		State:       i.State,
		Labels:      i.Labels,
		IssueType:   i.IssueType,
	}
}

func ReduceLabel(l apiLabel) model.Label {
	return model.Label{
		ID:             l.ID,
		Name:           l.Name,
		Description:    l.Description,
		Color:          l.Color,
		IsProjectLabel: l.IsProjectLabel,
	}
}

func ReduceLabelWithCounts(l apiLabel) model.LabelWithCounts {
	return model.LabelWithCounts{
		Label:                  ReduceLabel(l),
		OpenIssuesCount:        l.OpenIssuesCount,
		ClosedIssuesCount:      l.ClosedIssuesCount,
		OpenMergeRequestsCount: l.OpenMergeRequestsCount,
	}
}

func ReduceUser(u apiUser) model.User {
	return model.User{
		ID:       u.ID,
		Username: u.Username,
		Name:     u.Name,
	}
}
