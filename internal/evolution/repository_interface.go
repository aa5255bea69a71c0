package evolution

import "context"

type RepositoryInterface interface {
	CreateEvolution(ctx context.Context, ownerID string, req CreateEvolutionRequest) (*Evolution, error)
	GetEvolution(ctx context.Context, ownerID, id string) (*Evolution, error)
	ListEvolutions(ctx context.Context, ownerID string, f ListFilter) ([]Evolution, error)
	UpdateEvolution(ctx context.Context, ownerID, id string, req UpdateEvolutionRequest) (*Evolution, error)
	DeleteEvolution(ctx context.Context, ownerID, id string) error
}

var _ RepositoryInterface = (*Repository)(nil)
