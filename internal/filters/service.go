package filters

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	dbtypes "github.com/angelmondragon/storefront-backend/pkg/db/types"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/storage"
	"github.com/angelmondragon/storefront-backend/pkg/workflow"
)

const (
	filterImagePrefix = "filters"
	placeholderName   = "TEMP"
)

type ServiceParams struct {
	Repo    *Repository
	Storage storage.Store
	Logger  *logger.Logger
}

// Service manages filters and the groups that own them.
type Service interface {
	CreateFilter(ctx context.Context, input CreateFilterInput, image *storage.Upload) (*models.Filter, error)
	EditFilter(ctx context.Context, id uuid.UUID, patch FilterPatch, image *storage.Upload) (*models.Filter, error)
	DeleteFilter(ctx context.Context, id uuid.UUID) error
	CreateFilterGroup(ctx context.Context, input CreateGroupInput) (*GroupView, error)
	EditFilterGroup(ctx context.Context, id uuid.UUID, input EditGroupInput) (*GroupView, error)
	DeleteFilterGroup(ctx context.Context, id uuid.UUID) error

	FilterGroups(ctx context.Context) ([]GroupView, error)
	AllFilters(ctx context.Context) ([]models.Filter, error)
	CardFilters(ctx context.Context) ([]models.Filter, error)
	UnassignedFilters(ctx context.Context) ([]models.Filter, error)
}

type service struct {
	repo  *Repository
	store storage.Store
	logg  *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "filter repo is required")
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

// CreateFilter writes a placeholder, stores the image under its id and then
// fills in the record. A failure removes the blob and the placeholder.
func (s *service) CreateFilter(ctx context.Context, input CreateFilterInput, image *storage.Upload) (*models.Filter, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}

	filter := &models.Filter{Name: placeholderName}
	var stored storage.Stored

	err := workflow.Run(ctx,
		workflow.Step{
			Name: "placeholder",
			Do:   func(ctx context.Context) error { return s.repo.CreateFilter(ctx, filter) },
			Undo: func(ctx context.Context) error { return s.repo.DeleteFilter(ctx, filter.ID) },
		},
		workflow.Step{
			Name: "upload image",
			Do: func(ctx context.Context) error {
				if image == nil {
					return nil
				}
				var err error
				stored, err = storage.PutUpload(ctx, s.store, filterImagePrefix, filter.ID, *image)
				return err
			},
			Undo: func(ctx context.Context) error { return storage.DeleteAll(ctx, s.store, stored.Key) },
		},
		workflow.Step{
			Name: "fill record",
			Do: func(ctx context.Context) error {
				filter.Name = name
				filter.ShowAsCard = input.ShowAsCard != nil && *input.ShowAsCard
				filter.TagLine = input.TagLine
				if stored.Key != "" {
					filter.ImageURL = &stored.URL
					filter.ImageKey = &stored.Key
				}
				return s.repo.SaveFilter(ctx, filter)
			},
		},
	)
	if err != nil {
		s.logg.WarnErr(s.logg.WithField(ctx, "filter_id", filter.ID.String()), "filter create rolled back", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, workflow.Cause(err), "the filter cannot be created")
	}
	return filter, nil
}

func (s *service) EditFilter(ctx context.Context, id uuid.UUID, patch FilterPatch, image *storage.Upload) (*models.Filter, error) {
	filter, err := s.repo.FindFilter(ctx, id)
	if err != nil {
		return nil, pkgerrors.FromStore(err, "filter not found", "load filter")
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		filter.Name = name
	}
	if patch.ShowAsCard != nil {
		filter.ShowAsCard = *patch.ShowAsCard
	}
	if patch.TagLine != nil {
		filter.TagLine = patch.TagLine
	}

	oldKey := ""
	if filter.ImageKey != nil {
		oldKey = *filter.ImageKey
	}
	var stored storage.Stored
	if image != nil {
		stored, err = storage.PutUpload(ctx, s.store, filterImagePrefix, filter.ID, *image)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upload filter image")
		}
		filter.ImageURL = &stored.URL
		filter.ImageKey = &stored.Key
	}

	if err := s.repo.SaveFilter(ctx, filter); err != nil {
		s.dropBlobs(ctx, stored.Key)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update filter")
	}
	if stored.Key != "" && oldKey != stored.Key {
		s.dropBlobs(ctx, oldKey)
	}
	return filter, nil
}

func (s *service) DeleteFilter(ctx context.Context, id uuid.UUID) error {
	filter, err := s.repo.FindFilter(ctx, id)
	if err != nil {
		return pkgerrors.FromStore(err, "filter not found", "load filter")
	}

	err = workflow.Run(ctx,
		workflow.Step{
			Name: "pull from group",
			Do: func(ctx context.Context) error {
				if filter.FilterGroupID == nil {
					return nil
				}
				group, err := s.repo.FindGroup(ctx, *filter.FilterGroupID)
				if err != nil {
					return nil
				}
				return s.repo.SetGroupFilterIDs(ctx, group.ID, group.FilterIDs.Without(filter.ID))
			},
		},
		workflow.Step{
			Name: "delete blob",
			Do: func(ctx context.Context) error {
				if filter.ImageKey != nil {
					s.dropBlobs(ctx, *filter.ImageKey)
				}
				return nil
			},
		},
		workflow.Step{
			Name: "delete filter",
			Do:   func(ctx context.Context) error { return s.repo.DeleteFilter(ctx, filter.ID) },
		},
	)
	if err != nil {
		return pkgerrors.FromStore(workflow.Cause(err), "filter not found", "delete filter")
	}
	return nil
}

// CreateFilterGroup requires every filter to exist and to be unassigned.
func (s *service) CreateFilterGroup(ctx context.Context, input CreateGroupInput) (*GroupView, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	ids := dbtypes.IDList(input.FilterIDs).Dedupe()
	members, err := s.loadMembers(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, filter := range members {
		if filter.FilterGroupID != nil {
			return nil, pkgerrors.Newf(pkgerrors.CodeConflict, "filter %s already belongs to a group", filter.ID)
		}
	}

	group := &models.FilterGroup{Name: name, FilterIDs: ids}
	err = workflow.Run(ctx,
		workflow.Step{
			Name: "create group",
			Do:   func(ctx context.Context) error { return s.repo.CreateGroup(ctx, group) },
		},
		workflow.Step{
			Name: "assign filters",
			Do:   func(ctx context.Context) error { return s.repo.SetGroup(ctx, ids, &group.ID) },
		},
	)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, workflow.Cause(err), "create filter group")
	}
	return &GroupView{FilterGroup: *group, Filters: members}, nil
}

// EditFilterGroup replaces the membership of a group. Filters held by another
// group are rejected; running the same edit twice changes nothing.
func (s *service) EditFilterGroup(ctx context.Context, id uuid.UUID, input EditGroupInput) (*GroupView, error) {
	group, err := s.repo.FindGroup(ctx, id)
	if err != nil {
		return nil, pkgerrors.FromStore(err, "filter group not found", "load filter group")
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		group.Name = name
	}
	next := dbtypes.IDList(input.FilterIDs).Dedupe()
	members, err := s.loadMembers(ctx, next)
	if err != nil {
		return nil, err
	}
	for _, filter := range members {
		if filter.FilterGroupID != nil && *filter.FilterGroupID != group.ID {
			return nil, pkgerrors.Newf(pkgerrors.CodeConflict, "filter %s belongs to another group", filter.ID)
		}
	}

	toAdd, toRemove := group.FilterIDs.Diff(next)
	group.FilterIDs = next
	err = workflow.Run(ctx,
		workflow.Step{
			Name: "assign added",
			Do:   func(ctx context.Context) error { return s.repo.SetGroup(ctx, toAdd, &group.ID) },
		},
		workflow.Step{
			Name: "release removed",
			Do:   func(ctx context.Context) error { return s.repo.SetGroup(ctx, toRemove, nil) },
		},
		workflow.Step{
			Name: "save group",
			Do:   func(ctx context.Context) error { return s.repo.SaveGroup(ctx, group) },
		},
	)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, workflow.Cause(err), "edit filter group")
	}
	for i := range members {
		members[i].FilterGroupID = &group.ID
	}
	return &GroupView{FilterGroup: *group, Filters: members}, nil
}

func (s *service) DeleteFilterGroup(ctx context.Context, id uuid.UUID) error {
	group, err := s.repo.FindGroup(ctx, id)
	if err != nil {
		return pkgerrors.FromStore(err, "filter group not found", "load filter group")
	}
	err = workflow.Run(ctx,
		workflow.Step{
			Name: "release filters",
			Do:   func(ctx context.Context) error { return s.repo.ClearGroup(ctx, group.ID) },
		},
		workflow.Step{
			Name: "delete group",
			Do:   func(ctx context.Context) error { return s.repo.DeleteGroup(ctx, group.ID) },
		},
	)
	if err != nil {
		return pkgerrors.FromStore(workflow.Cause(err), "filter group not found", "delete filter group")
	}
	return nil
}

func (s *service) FilterGroups(ctx context.Context) ([]GroupView, error) {
	groups, err := s.repo.ListGroups(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list filter groups")
	}
	views := make([]GroupView, 0, len(groups))
	for _, group := range groups {
		members, err := s.repo.FindFilters(ctx, group.FilterIDs)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load group filters")
		}
		views = append(views, GroupView{FilterGroup: group, Filters: members})
	}
	return views, nil
}

func (s *service) AllFilters(ctx context.Context) ([]models.Filter, error) {
	rows, err := s.repo.ListFilters(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list filters")
	}
	return rows, nil
}

func (s *service) CardFilters(ctx context.Context) ([]models.Filter, error) {
	rows, err := s.repo.ListCardFilters(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list card filters")
	}
	return rows, nil
}

func (s *service) UnassignedFilters(ctx context.Context) ([]models.Filter, error) {
	rows, err := s.repo.ListUnassignedFilters(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list unassigned filters")
	}
	return rows, nil
}

// loadMembers resolves ids and fails NotFound when any id is unknown.
func (s *service) loadMembers(ctx context.Context, ids dbtypes.IDList) ([]models.Filter, error) {
	members, err := s.repo.FindFilters(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load filters")
	}
	if len(members) != len(ids) {
		found := make(map[uuid.UUID]struct{}, len(members))
		for _, filter := range members {
			found[filter.ID] = struct{}{}
		}
		for _, id := range ids {
			if _, ok := found[id]; !ok {
				return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "filter %s not found", id)
			}
		}
	}
	return members, nil
}

func (s *service) dropBlobs(ctx context.Context, keys ...string) {
	err := storage.DeleteAll(ctx, s.store, keys...)
	for _, failure := range multierr.Errors(err) {
		s.logg.WarnErr(ctx, "blob delete failed", failure)
	}
}
