package catalog

import (
	"context"
	"errors"
	"sort"
	"sync"
)

var _ catalogRepo = (*repoMock)(nil)

type repoMock struct {
	Definitions map[int]*ExerciseDefinition
	nextID      int
	mutex       sync.Mutex

	// counters used by cache tests
	GetCalls  int
	ListCalls int
}

func newRepoMock() *repoMock {
	return &repoMock{
		Definitions: make(map[int]*ExerciseDefinition),
		nextID:      1,
	}
}

func (r *repoMock) Add(_ context.Context, def ExerciseDefinition) (*ExerciseDefinition, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for _, existing := range r.Definitions {
		if existing.Name == def.Name {
			return nil, errors.New("definition exists already")
		}
	}

	def.ID = r.nextID
	r.nextID++
	r.Definitions[def.ID] = &def
	return &def, nil
}

func (r *repoMock) Get(_ context.Context, id int) (*ExerciseDefinition, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.GetCalls++
	def, ok := r.Definitions[id]
	if !ok {
		return nil, ErrDefinitionNotFound
	}
	return def, nil
}

func (r *repoMock) List(_ context.Context) ([]ExerciseDefinition, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.ListCalls++
	var defs []ExerciseDefinition
	for id := range r.Definitions {
		defs = append(defs, *r.Definitions[id])
	}
	sort.Slice(defs, func(i, j int) bool {
		return defs[i].Name < defs[j].Name
	})
	return defs, nil
}

func (r *repoMock) Update(_ context.Context, def *ExerciseDefinition) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, ok := r.Definitions[def.ID]; !ok {
		return ErrDefinitionNotFound
	}
	r.Definitions[def.ID] = def
	return nil
}

func (r *repoMock) Delete(_ context.Context, id int) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, ok := r.Definitions[id]; !ok {
		return ErrDefinitionNotFound
	}
	delete(r.Definitions, id)
	return nil
}
