package usecase

import (
	"context"

	"github.com/finassist/qa-engine/internal/core/domain"
	"github.com/finassist/qa-engine/internal/core/index"
)

// BrowseUseCase serves the non-resolving index operations: type-ahead
// suggestions and related-question lookups.
type BrowseUseCase struct {
	index *index.Index
}

func NewBrowseUseCase(idx *index.Index) *BrowseUseCase {
	return &BrowseUseCase{index: idx}
}

func (uc *BrowseUseCase) Suggest(_ context.Context, partial string, limit int) ([]string, error) {
	return uc.index.Suggest(partial, limit), nil
}

func (uc *BrowseUseCase) Related(_ context.Context, entryID string, limit int) ([]domain.FAQEntry, error) {
	return uc.index.Related(entryID, limit)
}
