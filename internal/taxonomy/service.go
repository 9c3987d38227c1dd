package taxonomy

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/storage"
	"github.com/angelmondragon/storefront-backend/pkg/workflow"
)

const (
	categoryImagePrefix    = "categories"
	subCategoryImagePrefix = "subcategories"
	placeholderName        = "TEMP"
)

// ServiceParams groups dependencies for the taxonomy service.
type ServiceParams struct {
	Repo    *Repository
	Storage storage.Store
	Logger  *logger.Logger
}

// Service manages the category, subcategory and inner category tree.
type Service interface {
	CreateCategory(ctx context.Context, input CreateCategoryInput) (*models.Category, error)
	CreateSubCategory(ctx context.Context, input CreateSubCategoryInput, image *storage.Upload) (*models.SubCategory, error)
	AttachSubCategory(ctx context.Context, categoryID, subID uuid.UUID) error
	AddInnerCategories(ctx context.Context, subID uuid.UUID, names []string) (*models.SubCategory, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, patch CategoryPatch, image *storage.Upload) (*models.Category, error)
	UpdateSubCategory(ctx context.Context, id uuid.UUID, patch SubCategoryPatch, image *storage.Upload) (*models.SubCategory, error)
	UpdateInnerCategory(ctx context.Context, subID, innerID uuid.UUID, name string) (*models.SubCategory, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error
	DeleteSubCategory(ctx context.Context, categoryID *uuid.UUID, subID uuid.UUID) error
	DeleteInnerCategory(ctx context.Context, subID, innerID uuid.UUID) error

	ListCategories(ctx context.Context) ([]models.Category, error)
	ListWithSubCategories(ctx context.Context) ([]CategoryView, error)
	NavBarCategories(ctx context.Context) ([]CategoryView, error)
	GetCategory(ctx context.Context, id uuid.UUID) (*CategoryView, error)
	ListSubCategories(ctx context.Context) ([]models.SubCategory, error)
	GetSubCategory(ctx context.Context, id uuid.UUID) (*models.SubCategory, error)
}

type service struct {
	repo  *Repository
	store storage.Store
	logg  *logger.Logger
}

// NewService builds a taxonomy service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "taxonomy repo is required")
	}
	if params.Storage == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "blob storage is required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: params.Repo, store: params.Storage, logg: logg}, nil
}

func (s *service) CreateCategory(ctx context.Context, input CreateCategoryInput) (*models.Category, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	category := &models.Category{
		Name:      name,
		ShowInNav: boolOr(input.ShowInNav, true),
		Icon:      input.Icon,
		Color:     input.Color,
	}
	if err := s.repo.CreateCategory(ctx, category); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create category")
	}
	return category, nil
}

// CreateSubCategory writes a placeholder to obtain an id, stores the image
// under it, fills in the record and attaches it. A failure removes the
// uploaded blob and the placeholder.
func (s *service) CreateSubCategory(ctx context.Context, input CreateSubCategoryInput, image *storage.Upload) (*models.SubCategory, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if input.CategoryID != nil {
		if _, err := s.repo.FindCategory(ctx, *input.CategoryID); err != nil {
			return nil, pkgerrors.FromStore(err, "category not found", "load category")
		}
	}

	sub := &models.SubCategory{Name: placeholderName, ShowInNav: true}
	var stored storage.Stored

	err := workflow.Run(ctx,
		workflow.Step{
			Name: "placeholder",
			Do:   func(ctx context.Context) error { return s.repo.CreateSubCategory(ctx, sub) },
			Undo: func(ctx context.Context) error { return s.repo.DeleteSubCategory(ctx, sub.ID) },
		},
		workflow.Step{
			Name: "upload image",
			Do: func(ctx context.Context) error {
				if image == nil {
					return nil
				}
				var err error
				stored, err = storage.PutUpload(ctx, s.store, subCategoryImagePrefix, sub.ID, *image)
				return err
			},
			Undo: func(ctx context.Context) error {
				return storage.DeleteAll(ctx, s.store, stored.Key)
			},
		},
		workflow.Step{
			Name: "fill record",
			Do: func(ctx context.Context) error {
				sub.Name = name
				sub.ShowInNav = boolOr(input.ShowInNav, true)
				sub.InnerCategories = newInnerCategories(input.InnerCategories)
				if stored.Key != "" {
					sub.ImageURL = &stored.URL
					sub.ImageKey = &stored.Key
				}
				return s.repo.SaveSubCategory(ctx, sub)
			},
		},
		workflow.Step{
			Name: "attach to category",
			Do: func(ctx context.Context) error {
				if input.CategoryID == nil {
					return nil
				}
				return s.attach(ctx, *input.CategoryID, sub.ID)
			},
		},
	)
	if err != nil {
		s.logg.WarnErr(s.logg.WithField(ctx, "sub_category_id", sub.ID.String()), "sub-category create rolled back", err)
		return nil, pkgerrors.FromStore(workflow.Cause(err), "category not found", "the sub-category cannot be created")
	}
	return sub, nil
}

func (s *service) AttachSubCategory(ctx context.Context, categoryID, subID uuid.UUID) error {
	if _, err := s.repo.FindCategory(ctx, categoryID); err != nil {
		return pkgerrors.FromStore(err, "category not found", "load category")
	}
	if _, err := s.repo.FindSubCategory(ctx, subID); err != nil {
		return pkgerrors.FromStore(err, "sub-category not found", "load sub-category")
	}
	if err := s.attach(ctx, categoryID, subID); err != nil {
		return pkgerrors.FromStore(err, "category not found", "attach sub-category")
	}
	return nil
}

func (s *service) AddInnerCategories(ctx context.Context, subID uuid.UUID, names []string) (*models.SubCategory, error) {
	sub, err := s.repo.FindSubCategory(ctx, subID)
	if err != nil {
		return nil, pkgerrors.FromStore(err, "sub-category not found", "load sub-category")
	}
	added := newInnerCategories(names)
	if len(added) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "innerCategories must be a non-empty list")
	}
	sub.InnerCategories = append(sub.InnerCategories, added...)
	if err := s.repo.SaveSubCategory(ctx, sub); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save inner categories")
	}
	return sub, nil
}

func (s *service) UpdateCategory(ctx context.Context, id uuid.UUID, patch CategoryPatch, image *storage.Upload) (*models.Category, error) {
	category, err := s.repo.FindCategory(ctx, id)
	if err != nil {
		return nil, pkgerrors.FromStore(err, "category not found", "load category")
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		category.Name = name
	}
	if patch.ShowInNav != nil {
		category.ShowInNav = *patch.ShowInNav
	}
	if patch.Icon != nil {
		category.Icon = patch.Icon
	}
	if patch.Color != nil {
		category.Color = patch.Color
	}

	oldKey := derefString(category.ImageKey)
	var stored storage.Stored
	if image != nil {
		stored, err = storage.PutUpload(ctx, s.store, categoryImagePrefix, category.ID, *image)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upload category image")
		}
		category.ImageURL = &stored.URL
		category.ImageKey = &stored.Key
	}

	if err := s.repo.SaveCategory(ctx, category); err != nil {
		s.dropBlobs(ctx, stored.Key)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update category")
	}
	if stored.Key != "" && oldKey != stored.Key {
		s.dropBlobs(ctx, oldKey)
	}
	return category, nil
}

func (s *service) UpdateSubCategory(ctx context.Context, id uuid.UUID, patch SubCategoryPatch, image *storage.Upload) (*models.SubCategory, error) {
	sub, err := s.repo.FindSubCategory(ctx, id)
	if err != nil {
		return nil, pkgerrors.FromStore(err, "sub-category not found", "load sub-category")
	}
	if patch.CategoryID != nil {
		if _, err := s.repo.FindCategory(ctx, *patch.CategoryID); err != nil {
			return nil, pkgerrors.FromStore(err, "category not found", "load category")
		}
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		sub.Name = name
	}
	if patch.ShowInNav != nil {
		sub.ShowInNav = *patch.ShowInNav
	}

	oldKey := derefString(sub.ImageKey)
	var stored storage.Stored
	if image != nil {
		stored, err = storage.PutUpload(ctx, s.store, subCategoryImagePrefix, sub.ID, *image)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upload sub-category image")
		}
		sub.ImageURL = &stored.URL
		sub.ImageKey = &stored.Key
	}

	if err := s.repo.SaveSubCategory(ctx, sub); err != nil {
		s.dropBlobs(ctx, stored.Key)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update sub-category")
	}
	if patch.CategoryID != nil {
		if err := s.attach(ctx, *patch.CategoryID, sub.ID); err != nil {
			return nil, pkgerrors.FromStore(err, "category not found", "move sub-category")
		}
	}
	if stored.Key != "" && oldKey != stored.Key {
		s.dropBlobs(ctx, oldKey)
	}
	return sub, nil
}

func (s *service) UpdateInnerCategory(ctx context.Context, subID, innerID uuid.UUID, name string) (*models.SubCategory, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	sub, err := s.repo.FindSubCategory(ctx, subID)
	if err != nil {
		return nil, pkgerrors.FromStore(err, "sub-category not found", "load sub-category")
	}
	found := false
	for i := range sub.InnerCategories {
		if sub.InnerCategories[i].ID == innerID {
			sub.InnerCategories[i].Name = name
			found = true
			break
		}
	}
	if !found {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "inner category not found")
	}
	if err := s.repo.SaveSubCategory(ctx, sub); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update inner category")
	}
	return sub, nil
}

// DeleteCategory removes the category together with every subcategory it
// lists. Blob deletes are best-effort and never stop the cascade.
func (s *service) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	category, err := s.repo.FindCategory(ctx, id)
	if err != nil {
		return pkgerrors.FromStore(err, "category not found", "load category")
	}
	subs, err := s.repo.FindSubCategories(ctx, category.SubCategoryIDs)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sub-categories")
	}

	err = workflow.Run(ctx,
		workflow.Step{
			Name: "delete blobs",
			Do: func(ctx context.Context) error {
				keys := []string{derefString(category.ImageKey)}
				for _, sub := range subs {
					keys = append(keys, derefString(sub.ImageKey))
				}
				s.dropBlobs(ctx, keys...)
				return nil
			},
		},
		workflow.Step{
			Name: "delete sub-categories",
			Do: func(ctx context.Context) error {
				return s.repo.DeleteSubCategories(ctx, category.SubCategoryIDs)
			},
		},
		workflow.Step{
			Name: "delete category",
			Do:   func(ctx context.Context) error { return s.repo.DeleteCategory(ctx, category.ID) },
		},
	)
	if err != nil {
		return pkgerrors.FromStore(workflow.Cause(err), "category not found", "delete category")
	}
	return nil
}

func (s *service) DeleteSubCategory(ctx context.Context, categoryID *uuid.UUID, subID uuid.UUID) error {
	sub, err := s.repo.FindSubCategory(ctx, subID)
	if err != nil {
		return pkgerrors.FromStore(err, "sub-category not found", "load sub-category")
	}

	err = workflow.Run(ctx,
		workflow.Step{
			Name: "pull from parent",
			Do: func(ctx context.Context) error {
				if categoryID != nil {
					category, err := s.repo.FindCategory(ctx, *categoryID)
					if err == nil && category.SubCategoryIDs.Contains(sub.ID) {
						if err := s.repo.SetSubCategoryIDs(ctx, category.ID, category.SubCategoryIDs.Without(sub.ID)); err != nil {
							return err
						}
					}
				}
				return s.detach(ctx, sub.ID, uuid.Nil)
			},
		},
		workflow.Step{
			Name: "delete blob",
			Do: func(ctx context.Context) error {
				s.dropBlobs(ctx, derefString(sub.ImageKey))
				return nil
			},
		},
		workflow.Step{
			Name: "delete sub-category",
			Do:   func(ctx context.Context) error { return s.repo.DeleteSubCategory(ctx, sub.ID) },
		},
	)
	if err != nil {
		return pkgerrors.FromStore(workflow.Cause(err), "sub-category not found", "delete sub-category")
	}
	return nil
}

func (s *service) DeleteInnerCategory(ctx context.Context, subID, innerID uuid.UUID) error {
	sub, err := s.repo.FindSubCategory(ctx, subID)
	if err != nil {
		return pkgerrors.FromStore(err, "sub-category not found", "load sub-category")
	}
	kept := make([]models.InnerCategory, 0, len(sub.InnerCategories))
	for _, inner := range sub.InnerCategories {
		if inner.ID != innerID {
			kept = append(kept, inner)
		}
	}
	if len(kept) == len(sub.InnerCategories) {
		return nil
	}
	sub.InnerCategories = kept
	if err := s.repo.SaveSubCategory(ctx, sub); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete inner category")
	}
	return nil
}

func (s *service) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories, err := s.repo.ListCategories(ctx, false)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	return categories, nil
}

func (s *service) ListWithSubCategories(ctx context.Context) ([]CategoryView, error) {
	categories, err := s.repo.ListCategories(ctx, false)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	return s.populate(ctx, categories, false)
}

// NavBarCategories returns the show_in_nav categories, each carrying only its
// show_in_nav subcategories.
func (s *service) NavBarCategories(ctx context.Context) ([]CategoryView, error) {
	categories, err := s.repo.ListCategories(ctx, true)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	return s.populate(ctx, categories, true)
}

func (s *service) GetCategory(ctx context.Context, id uuid.UUID) (*CategoryView, error) {
	category, err := s.repo.FindCategory(ctx, id)
	if err != nil {
		return nil, pkgerrors.FromStore(err, "category not found", "load category")
	}
	views, err := s.populate(ctx, []models.Category{*category}, false)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *service) ListSubCategories(ctx context.Context) ([]models.SubCategory, error) {
	subs, err := s.repo.ListSubCategories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list sub-categories")
	}
	return subs, nil
}

func (s *service) GetSubCategory(ctx context.Context, id uuid.UUID) (*models.SubCategory, error) {
	sub, err := s.repo.FindSubCategory(ctx, id)
	if err != nil {
		return nil, pkgerrors.FromStore(err, "sub-category not found", "load sub-category")
	}
	return sub, nil
}

func (s *service) populate(ctx context.Context, categories []models.Category, navOnly bool) ([]CategoryView, error) {
	views := make([]CategoryView, 0, len(categories))
	for _, category := range categories {
		subs, err := s.repo.FindSubCategories(ctx, category.SubCategoryIDs)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sub-categories")
		}
		if navOnly {
			visible := subs[:0]
			for _, sub := range subs {
				if sub.ShowInNav {
					visible = append(visible, sub)
				}
			}
			subs = visible
		}
		views = append(views, CategoryView{Category: category, SubCategories: subs})
	}
	return views, nil
}

// dropBlobs deletes keys best-effort and logs what could not be removed.
func (s *service) dropBlobs(ctx context.Context, keys ...string) {
	err := storage.DeleteAll(ctx, s.store, keys...)
	for _, failure := range multierr.Errors(err) {
		s.logg.WarnErr(ctx, "blob delete failed", failure)
	}
}

func newInnerCategories(names []string) []models.InnerCategory {
	out := make([]models.InnerCategory, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		out = append(out, models.InnerCategory{ID: uuid.New(), Name: name})
	}
	return out
}

func boolOr(value *bool, fallback bool) bool {
	if value == nil {
		return fallback
	}
	return *value
}

func derefString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
