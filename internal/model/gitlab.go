package model

// IssueState is the state of a GitLab issue
type IssueState string

const (
	IssueStateOpened IssueState = "opened"
	IssueStateClosed IssueState = "closed"
)

// IssueType is the type of a GitLab issue
type IssueType string

const (
	IssueTypeIssue    IssueType = "issue"
	IssueTypeIncident IssueType = "incident"
	IssueTypeTestCase IssueType = "test_case"
)

// ProjectNamespace represents the group containing a project
type ProjectNamespace struct {
	ID       int    `json:"id"`
	FullPath string `json:"fullPath"` // unique path of the group within the GitLab instance
}

// Project represents a GitLab project
type Project struct {
	ID                int              `json:"id"`
	Name              string           `json:"name"`
	NameWithNamespace string           `json:"nameWithNamespace"`
	PathWithNamespace string           `json:"pathWithNamespace"`
	WebURL            string           `json:"webUrl"`
	Namespace         ProjectNamespace `json:"namespace"`
}

// Issue represents a GitLab issue.
// ID and IID are assigned by the server; zero means not assigned yet.
type Issue struct {
	ID          int        `json:"id,omitempty"`
	IID         int        `json:"iid,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	State       IssueState `json:"state"`
	Labels      []string   `json:"labels"`
	IssueType   IssueType  `json:"issue_type"`
}

// IssuesStatistics holds the issue counts of a project
type IssuesStatistics struct {
	Closed int `json:"closed"`
	Opened int `json:"opened"`
}

// Label represents a GitLab project or group label
type Label struct {
	ID             int    `json:"id,omitempty"`
	Name           string `json:"name"`
	Description    string `json:"description,omitempty"`
	Color          string `json:"color"`
	IsProjectLabel bool   `json:"is_project_label"`
}

// LabelWithCounts is a Label together with its usage counters
type LabelWithCounts struct {
	Label
	OpenIssuesCount        int `json:"open_issues_count"`
	ClosedIssuesCount      int `json:"closed_issues_count"`
	OpenMergeRequestsCount int `json:"open_merge_requests_count"`
}

// IsLabelUsed reports whether any issue or merge request refers to the label
func IsLabelUsed(label LabelWithCounts) bool {
	return label.OpenIssuesCount > 0 ||
		label.ClosedIssuesCount > 0 ||
		label.OpenMergeRequestsCount > 0
}

// User represents a GitLab user
type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}
