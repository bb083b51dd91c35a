package exchange

import (
	"context"
	"iter"
	"sync"
	"time"

	"gitlab_helper/internal/gitlab"
	"gitlab_helper/internal/model"
	"gitlab_helper/internal/progress"
)

func seqOf[T any](items []T, err error) iter.Seq2[gitlab.DataSet[T], error] {
	return func(yield func(gitlab.DataSet[T], error) bool) {
		if err != nil {
			yield(gitlab.DataSet[T]{}, err)
			return
		}
		for i, item := range items {
			if !yield(gitlab.DataSet[T]{Payload: item, Index: i, Total: len(items)}, nil) {
				return
			}
		}
	}
}

type fakeIssues struct {
	mu          sync.Mutex
	issues      []model.Issue
	listErr     error
	createErr   error
	createDelay time.Duration

	fetched     []gitlab.IssueRequestOptions
	deleted     []int
	created     []string
	inFlight    int
	maxInFlight int
	nextIID     int
}

func (f *fakeIssues) Issues(_ context.Context, _ int, opts gitlab.IssueRequestOptions) iter.Seq2[gitlab.DataSet[model.Issue], error] {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetched = append(f.fetched, opts)
	var result []model.Issue
	for _, issue := range f.issues {
		if opts.State == "" || opts.State == issue.State {
			result = append(result, issue)
		}
	}
	return seqOf(result, f.listErr)
}

func (f *fakeIssues) Create(_ context.Context, _ int, issue model.Issue) (model.Issue, error) {
	f.mu.Lock()
	f.inFlight++
	f.maxInFlight = max(f.maxInFlight, f.inFlight)
	f.mu.Unlock()

	time.Sleep(f.createDelay)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.inFlight--
	if f.createErr != nil {
		return model.Issue{}, f.createErr
	}
	f.nextIID++
	f.created = append(f.created, issue.Title)
	issue.IID = f.nextIID
	issue.ID = 1000 + f.nextIID
	issue.State = model.IssueStateOpened
	return issue, nil
}

func (f *fakeIssues) Delete(_ context.Context, _ int, iid int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, iid)
	return nil
}

type fakeLabels struct {
	mu        sync.Mutex
	labels    []model.LabelWithCounts
	listErr   error
	createErr error

	listed  []string
	created []string
	deleted []string
}

func (f *fakeLabels) Labels(context.Context, int) iter.Seq2[gitlab.DataSet[model.Label], error] {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listed = append(f.listed, "labels")
	var result []model.Label
	for _, label := range f.labels {
		result = append(result, label.Label)
	}
	return seqOf(result, f.listErr)
}

func (f *fakeLabels) LabelsWithCounts(context.Context, int) iter.Seq2[gitlab.DataSet[model.LabelWithCounts], error] {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listed = append(f.listed, "labels_with_counts")
	return seqOf(append([]model.LabelWithCounts(nil), f.labels...), f.listErr)
}

func (f *fakeLabels) Create(_ context.Context, _ model.Project, label model.Label) (model.Label, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return model.Label{}, f.createErr
	}
	f.created = append(f.created, label.Name)
	label.ID = 500 + len(f.created)
	return label, nil
}

func (f *fakeLabels) Delete(_ context.Context, _ int, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, name)
	return nil
}

// recordingTracker starts real runs and keeps every status they accepted
type recordingTracker struct {
	service *progress.Service

	mu       sync.Mutex
	titles   []string
	runs     []*progress.Run
	statuses [][]int
}

func newRecordingTracker() *recordingTracker {
	return &recordingTracker{service: progress.NewService(nil)}
}

func (r *recordingTracker) Start(opts progress.Options) progress.Handle {
	run := r.service.StartRun(opts)

	r.mu.Lock()
	index := len(r.runs)
	r.titles = append(r.titles, opts.Title)
	r.runs = append(r.runs, run)
	r.statuses = append(r.statuses, nil)
	r.mu.Unlock()

	run.Subscribe(func(status progress.Status) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.statuses[index] = append(r.statuses[index], status.Progress)
	})
	return run
}
