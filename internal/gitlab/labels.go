package gitlab

import (
	"context"
	"fmt"
	"iter"
	"net/http"
	"net/url"

	"gitlab_helper/internal/model"
)

// LabelsService reads and writes project and group labels
type LabelsService struct {
	client *Client
}

func labelsResource(projectID int) string {
	return fmt.Sprintf("projects/%d/labels", projectID)
}

// Labels streams the labels available in a project, including inherited group labels
func (s *LabelsService) Labels(ctx context.Context, projectID int) iter.Seq2[DataSet[model.Label], error] {
	seq := Paginate[apiLabel](ctx, s.client, labelsResource(projectID), nil, s.client.pageSize)
	return mapSeq(seq, ReduceLabel)
}

// LabelsWithCounts streams the labels of a project together with their usage counters
func (s *LabelsService) LabelsWithCounts(ctx context.Context, projectID int) iter.Seq2[DataSet[model.LabelWithCounts], error] {
	params := url.Values{}
	params.Set("with_counts", "true")
	seq := Paginate[apiLabel](ctx, s.client, labelsResource(projectID), &CallOptions{Params: params}, s.client.pageSize)
	return mapSeq(seq, ReduceLabelWithCounts)
}

// Create creates label in the given project. Labels that are not project
// labels are created in the group owning the project.
func (s *LabelsService) Create(ctx context.Context, project model.Project, label model.Label) (model.Label, error) {
	var (
		created apiLabel
		err     error
	)
	if label.IsProjectLabel {
		params := url.Values{}
		params.Set("name", label.Name)
		params.Set("color", label.Color)
		if label.Description != "" {
			params.Set("description", label.Description)
		}
		created, err = Call[apiLabel](ctx, s.client, labelsResource(project.ID), http.MethodPost, &CallOptions{Params: params})
	} else {
		body := map[string]string{
			"name":        label.Name,
			"color":       label.Color,
			"description": label.Description,
		}
		resource := fmt.Sprintf("groups/%d/labels", project.Namespace.ID)
		created, err = Call[apiLabel](ctx, s.client, resource, http.MethodPost, &CallOptions{Body: body})
	}
	if err != nil {
		return model.Label{}, fmt.Errorf("failed to create label %q: %w", label.Name, err)
	}
	return ReduceLabel(created), nil
}

// Delete deletes a project label by name
func (s *LabelsService) Delete(ctx context.Context, projectID int, name string) error {
	resource := labelsResource(projectID) + "/" + url.PathEscape(name)
	if _, err := Call[struct{}](ctx, s.client, resource, http.MethodDelete, nil); err != nil {
		return fmt.Errorf("failed to delete label %q: %w", name, err)
	}
	return nil
}
