package gitlab

import (
	"context"
	"fmt"
	"iter"
	"net/url"
	"strconv"

	"gitlab_helper/internal/model"
)

// ProjectsService reads projects
type ProjectsService struct {
	client *Client
}

// GetByID returns a single project
func (s *ProjectsService) GetByID(ctx context.Context, id int) (model.Project, error) {
	project, err := Call[apiProject](ctx, s.client, "projects/"+strconv.Itoa(id), "", nil)
	if err != nil {
		return model.Project{}, fmt.Errorf("failed to get project %d: %w", id, err)
	}
	return ReduceProject(project), nil
}

// List streams the projects the current user is member of, ordered by path.
// An empty search matches every project.
func (s *ProjectsService) List(ctx context.Context, search string) iter.Seq2[DataSet[model.Project], error] {
	params := url.Values{}
	params.Set("search", search)
	params.Set("search_namespaces", "true")
	params.Set("order_by", "path")
	params.Set("membership", "true")
	params.Set("sort", "asc")
	params.Set("simple", "true")

	seq := Paginate[apiProject](ctx, s.client, "projects", &CallOptions{Params: params}, s.client.pageSize)
	return mapSeq(seq, ReduceProject)
}
