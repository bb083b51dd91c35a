package model

import "slices"

// ExchangeIssue is the portable form of an issue.
// It never carries server assigned identifiers.
type ExchangeIssue struct {
	Title       string     `json:"title" yaml:"title"`
	Description string     `json:"description" yaml:"description"`
	State       IssueState `json:"state" yaml:"state"`
	Labels      []string   `json:"labels" yaml:"labels"`
	IssueType   IssueType  `json:"issue_type" yaml:"issue_type"`
}

// ExchangeLabel is the portable form of a label
type ExchangeLabel struct {
	Name           string `json:"name" yaml:"name"`
	Description    string `json:"description,omitempty" yaml:"description,omitempty"`
	Color          string `json:"color" yaml:"color"`
	IsProjectLabel bool   `json:"is_project_label" yaml:"is_project_label"`
}

// IssueExchangeModel is the unit of export and import
type IssueExchangeModel struct {
	Issues []ExchangeIssue `json:"issues" yaml:"issues"`
	Labels []ExchangeLabel `json:"labels" yaml:"labels"`
}

// LabelsByName returns the labels whose name is contained in names, keeping the order of labels
func LabelsByName[L Label | ExchangeLabel](names []string, labels []L) []L {
	result := make([]L, 0, len(labels))
	for _, label := range labels {
		if slices.Contains(names, labelName(label)) {
			result = append(result, label)
		}
	}
	return result
}

func labelName[L Label | ExchangeLabel](label L) string {
	switch l := any(label).(type) {
	case Label:
		return l.Name
	case ExchangeLabel:
		return l.Name
	}
	return ""
}
