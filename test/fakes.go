package test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"virtualwardrobe/models"
	"virtualwardrobe/repository"
	"virtualwardrobe/services"

	"github.com/hibiken/asynq"
)

// FakeItemStore serves wardrobe items from memory.
type FakeItemStore struct {
	Items map[string]models.WardrobeItem
	Err   error
	Calls atomic.Int32
}

func NewFakeItemStore(items ...models.WardrobeItem) *FakeItemStore {
	store := &FakeItemStore{Items: map[string]models.WardrobeItem{}}
	for _, item := range items {
		store.Items[item.ID] = item
	}
	return store
}

func (s *FakeItemStore) FindItem(ctx context.Context, id string) (*models.WardrobeItem, error) {
	s.Calls.Add(1)
	if s.Err != nil {
		return nil, s.Err
	}
	item, ok := s.Items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &item, nil
}

type FakeObject struct {
	Data        []byte
	ContentType string
	Metadata    map[string]string
}

// FakeObjectStore is an in-memory services.ObjectStore.
type FakeObjectStore struct {
	mu         sync.Mutex
	Objects    map[string]FakeObject
	Deleted    []string
	FailDelete error
	FailUpload error
}

func NewFakeObjectStore() *FakeObjectStore {
	return &FakeObjectStore{Objects: map[string]FakeObject{}}
}

func (s *FakeObjectStore) Put(key string, data []byte, contentType string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Objects[key] = FakeObject{Data: data, ContentType: contentType}
}

func (s *FakeObjectStore) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.Objects[key]
	return ok
}

func (s *FakeObjectStore) Stat(ctx context.Context, key string) (*services.ObjectInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.Objects[key]
	if !ok {
		return nil, services.ErrObjectNotFound
	}
	return &services.ObjectInfo{Key: key, ContentType: obj.ContentType, Size: int64(len(obj.Data))}, nil
}

func (s *FakeObjectStore) Download(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.Objects[key]
	if !ok {
		return nil, services.ErrObjectNotFound
	}
	return obj.Data, nil
}

func (s *FakeObjectStore) Upload(ctx context.Context, key string, data []byte, contentType string, metadata map[string]string) error {
	if s.FailUpload != nil {
		return s.FailUpload
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Objects[key] = FakeObject{Data: data, ContentType: contentType, Metadata: metadata}
	return nil
}

func (s *FakeObjectStore) Delete(ctx context.Context, key string) error {
	if s.FailDelete != nil {
		return s.FailDelete
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.Objects, key)
	s.Deleted = append(s.Deleted, key)
	return nil
}

func (s *FakeObjectStore) PresignRead(ctx context.Context, key string) (string, error) {
	return fmt.Sprintf("https://fakebucketurl.com/%s", key), nil
}

// FakeGenerator returns a canned model reply and counts calls.
type FakeGenerator struct {
	Reply string
	Err   error

	mu         sync.Mutex
	calls      int
	LastText   string
	LastImages []models.ImagePart
}

func (g *FakeGenerator) Generate(ctx context.Context, text string, images []models.ImagePart) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	g.LastText = text
	g.LastImages = images
	return g.Reply, g.Err
}

func (g *FakeGenerator) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

// FakeAnalyzer returns fixed attributes.
type FakeAnalyzer struct {
	Attributes *models.ItemAttributes
	Err        error
}

func (a *FakeAnalyzer) AnalyzeItem(ctx context.Context, image []byte, mimeType string) (*models.ItemAttributes, error) {
	return a.Attributes, a.Err
}

// FakeEnqueuer records tasks instead of sending them to redis.
type FakeEnqueuer struct {
	mu    sync.Mutex
	Tasks []*asynq.Task
	Err   error
}

func (e *FakeEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if e.Err != nil {
		return nil, e.Err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Tasks = append(e.Tasks, task)
	return &asynq.TaskInfo{ID: fmt.Sprintf("task-%d", len(e.Tasks)), Type: task.Type()}, nil
}

func (e *FakeEnqueuer) Types() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	types := make([]string, 0, len(e.Tasks))
	for _, task := range e.Tasks {
		types = append(types, task.Type())
	}
	return types
}

// GetReadURL lets the fake stand in for the presigned URL cache.
func (s *FakeObjectStore) GetReadURL(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", nil
	}
	return s.PresignRead(ctx, key)
}

func (s *FakeItemStore) UpdateAnalysis(ctx context.Context, id string, update models.AnalysisUpdate) error {
	if s.Err != nil {
		return s.Err
	}
	item, ok := s.Items[id]
	if !ok {
		return repository.ErrNotFound
	}
	item.AnalysisStatus = update.Status
	item.AnalysisRetryTimes = update.RetryTimes
	item.AnalysisErrorMessage = update.ErrorMessage
	if attrs := update.Attributes; attrs != nil {
		item.Color = &attrs.Color
		item.Pattern = &attrs.Pattern
		item.Material = &attrs.Material
		item.Category = &attrs.Category
	}
	s.Items[id] = item
	return nil
}
