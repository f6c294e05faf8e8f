package service_test

import (
	"context"
	"sync"

	"github.com/okian/tourboard/internal/adapters/repository"
	"github.com/okian/tourboard/internal/domain/model"
)

type failingStore struct {
	err error
}

func (f failingStore) FetchResultFacts(context.Context, repository.FactQuery) ([]model.ResultFact, error) {
	return nil, f.err
}

func (f failingStore) FetchPlayerIdentity(context.Context, []string) (map[string]model.PlayerIdentity, error) {
	return nil, f.err
}

// gatedStore blocks fact reads until release is closed. entered receives
// once per read so tests know a worker holds a job.
type gatedStore struct {
	*repository.MemoryStore

	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGatedStore(m *repository.MemoryStore) *gatedStore {
	return &gatedStore{
		MemoryStore: m,
		entered:     make(chan struct{}, 16),
		release:     make(chan struct{}),
	}
}

func (g *gatedStore) open() {
	g.once.Do(func() {
		select {
		case <-g.release:
		default:
			close(g.release)
		}
	})
}

func (g *gatedStore) FetchResultFacts(ctx context.Context, q repository.FactQuery) ([]model.ResultFact, error) {
	select {
	case g.entered <- struct{}{}:
	default:
	}
	select {
	case <-g.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return g.MemoryStore.FetchResultFacts(ctx, q)
}
