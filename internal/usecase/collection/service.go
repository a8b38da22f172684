package collection

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/gymdex/internal/domain/collection"
)

// Info describes the search collection.
type Info struct {
	Name      string `json:"name"`
	Index     string `json:"index"`
	Exists    bool   `json:"exists"`
	Documents int    `json:"documents"`
}

// Service manages the listings search collection.
type Service struct {
	repo   Repository
	coll   collection.Collection
	logger *zap.Logger
}

// New creates a collection service.
func New(repo Repository, coll collection.Collection, logger *zap.Logger) *Service {
	return &Service{repo: repo, coll: coll, logger: logger}
}

// Ensure creates the index when missing. recreate drops the existing index
// and its documents first; callers must have confirmed it.
func (s *Service) Ensure(ctx context.Context, recreate bool) error {
	res, err := s.repo.Ensure(ctx, recreate)
	if err != nil {
		return fmt.Errorf("ensure collection %s: %w", s.coll.Name(), err)
	}

	switch {
	case res.Recreated:
		s.logger.Warn("Collection recreated", zap.String("index", s.coll.IndexName()))
	case res.Created:
		s.logger.Info("Collection created", zap.String("index", s.coll.IndexName()))
	default:
		s.logger.Debug("Collection exists", zap.String("index", s.coll.IndexName()))
	}
	return nil
}

// Info reports whether the index exists and how many documents it holds.
func (s *Service) Info(ctx context.Context) (Info, error) {
	info := Info{Name: s.coll.Name(), Index: s.coll.IndexName()}

	exists, err := s.repo.Exists(ctx)
	if err != nil {
		return info, fmt.Errorf("collection info: %w", err)
	}
	info.Exists = exists
	if !exists {
		return info, nil
	}

	n, err := s.repo.Count(ctx)
	if err != nil {
		return info, fmt.Errorf("collection info: %w", err)
	}
	info.Documents = n
	return info, nil
}
