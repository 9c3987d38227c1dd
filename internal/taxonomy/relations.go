package taxonomy

import (
	"context"

	"github.com/google/uuid"
)

// attach makes categoryID the only parent of subID. Other parents lose the
// reference before the new parent gains it.
func (s *service) attach(ctx context.Context, categoryID, subID uuid.UUID) error {
	if err := s.detach(ctx, subID, categoryID); err != nil {
		return err
	}
	category, err := s.repo.FindCategory(ctx, categoryID)
	if err != nil {
		return err
	}
	if category.SubCategoryIDs.Contains(subID) {
		return nil
	}
	return s.repo.SetSubCategoryIDs(ctx, categoryID, category.SubCategoryIDs.With(subID))
}

// detach pulls subID from every parent except keep.
func (s *service) detach(ctx context.Context, subID uuid.UUID, keep uuid.UUID) error {
	parents, err := s.repo.FindParents(ctx, subID)
	if err != nil {
		return err
	}
	for _, parent := range parents {
		if parent.ID == keep {
			continue
		}
		if err := s.repo.SetSubCategoryIDs(ctx, parent.ID, parent.SubCategoryIDs.Without(subID)); err != nil {
			return err
		}
	}
	return nil
}
