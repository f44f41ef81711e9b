package store

import (
	"context"
	"sort"
	"sync"

	"caseflow/internal/assessment/models"
	"caseflow/pkg/domain"
	"caseflow/pkg/platform/sentinel"
)

// MemoryProjectStore keeps assessment projects in maps keyed by both project
// and request ID.
type MemoryProjectStore struct {
	mu        sync.RWMutex
	projects  map[domain.AssessmentID]*models.Project
	byRequest map[domain.RequestID]domain.AssessmentID
}

func NewMemoryProjectStore() *MemoryProjectStore {
	return &MemoryProjectStore{
		projects:  make(map[domain.AssessmentID]*models.Project),
		byRequest: make(map[domain.RequestID]domain.AssessmentID),
	}
}

func (s *MemoryProjectStore) Create(_ context.Context, project *models.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byRequest[project.RequestID]; ok {
		return sentinel.ErrConflict
	}
	s.projects[project.ID] = cloneProject(project)
	s.byRequest[project.RequestID] = project.ID
	return nil
}

func (s *MemoryProjectStore) Get(_ context.Context, id domain.AssessmentID) (*models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	project, ok := s.projects[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneProject(project), nil
}

func (s *MemoryProjectStore) GetByRequest(_ context.Context, requestID domain.RequestID) (*models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byRequest[requestID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneProject(s.projects[id]), nil
}

func (s *MemoryProjectStore) Update(_ context.Context, project *models.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[project.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.projects[project.ID] = cloneProject(project)
	return nil
}

// Snapshot implements tx.Snapshotter.
func (s *MemoryProjectStore) Snapshot() any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	projects := make(map[domain.AssessmentID]*models.Project, len(s.projects))
	for id, p := range s.projects {
		projects[id] = cloneProject(p)
	}
	byRequest := make(map[domain.RequestID]domain.AssessmentID, len(s.byRequest))
	for rid, id := range s.byRequest {
		byRequest[rid] = id
	}
	return projectSnapshot{projects: projects, byRequest: byRequest}
}

// Restore implements tx.Snapshotter.
func (s *MemoryProjectStore) Restore(snap any) {
	ps, ok := snap.(projectSnapshot)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects = ps.projects
	s.byRequest = ps.byRequest
}

type projectSnapshot struct {
	projects  map[domain.AssessmentID]*models.Project
	byRequest map[domain.RequestID]domain.AssessmentID
}

func cloneProject(p *models.Project) *models.Project {
	c := *p
	c.Stages = append([]models.Stage(nil), p.Stages...)
	return &c
}

// MemoryTaskStore keeps tasks in a map.
type MemoryTaskStore struct {
	mu    sync.RWMutex
	tasks map[domain.TaskID]*models.Task
}

func NewMemoryTaskStore() *MemoryTaskStore {
	return &MemoryTaskStore{tasks: make(map[domain.TaskID]*models.Task)}
}

func (s *MemoryTaskStore) Create(_ context.Context, task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[task.ID]; ok {
		return sentinel.ErrConflict
	}
	s.tasks[task.ID] = cloneTask(task)
	return nil
}

func (s *MemoryTaskStore) Get(_ context.Context, id domain.TaskID) (*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	task, ok := s.tasks[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneTask(task), nil
}

func (s *MemoryTaskStore) Update(_ context.Context, task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[task.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.tasks[task.ID] = cloneTask(task)
	return nil
}

func (s *MemoryTaskStore) ListByAssessment(_ context.Context, assessmentID domain.AssessmentID) ([]*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Task
	for _, task := range s.tasks {
		if task.AssessmentID == assessmentID {
			out = append(out, cloneTask(task))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StageSequence != out[j].StageSequence {
			return out[i].StageSequence < out[j].StageSequence
		}
		return out[i].Code < out[j].Code
	})
	return out, nil
}

// Snapshot implements tx.Snapshotter.
func (s *MemoryTaskStore) Snapshot() any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := make(map[domain.TaskID]*models.Task, len(s.tasks))
	for id, task := range s.tasks {
		snap[id] = cloneTask(task)
	}
	return snap
}

// Restore implements tx.Snapshotter.
func (s *MemoryTaskStore) Restore(snap any) {
	tasks, ok := snap.(map[domain.TaskID]*models.Task)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = tasks
}

func cloneTask(t *models.Task) *models.Task {
	c := *t
	return &c
}
