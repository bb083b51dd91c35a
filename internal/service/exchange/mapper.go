package exchange

import "gitlab_helper/internal/model"

// MapIssue strips the server assigned identifiers of an issue
func MapIssue(issue model.Issue) model.ExchangeIssue {
	return model.ExchangeIssue{
		Title:       issue.Title,
		Description: issue.Description,
		State:       issue.State,
		Labels:      nonNil(issue.Labels),
		IssueType:   issue.IssueType,
	}
}

// MapLabel strips the server assigned identifiers of a label
func MapLabel(label model.Label) model.ExchangeLabel {
	return model.ExchangeLabel{
		Name:           label.Name,
		Description:    label.Description,
		Color:          label.Color,
		IsProjectLabel: label.IsProjectLabel,
	}
}

func toIssue(issue model.ExchangeIssue) model.Issue {
	return model.Issue{
		Title:       issue.Title,
		Description: issue.Description,
		State:       issue.State,
		Labels:      issue.Labels,
		IssueType:   issue.IssueType,
	}
}

func toLabel(label model.ExchangeLabel) model.Label {
	return model.Label{
		Name:           label.Name,
		Description:    label.Description,
		Color:          label.Color,
		IsProjectLabel: label.IsProjectLabel,
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
