package services

import (
	"context"

	"github.com/custodia-labs/stockline/internal/core/domain"
	"github.com/custodia-labs/stockline/internal/core/ports/driven"
	"github.com/custodia-labs/stockline/internal/core/ports/driving"
)

// Verify interface compliance.
var _ driving.CategoryCommands = (*CategoryMutations)(nil)

type categoryInput struct {
	ID      int64                  `json:"id"`
	Payload domain.CategoryPayload `json:"payload"`
}

type bulkCategoryInput struct {
	TempIDs  []int64                  `json:"tempIds"`
	Payloads []domain.CategoryPayload `json:"payloads"`
}

type categoryRollback struct {
	List   EntryState
	Detail EntryState
}

// CategoryMutations applies category writes optimistically.
type CategoryMutations struct {
	env *mutationEnv
	api driven.InventoryAPI

	create     *mutationSpec[categoryInput, domain.Category, categoryRollback]
	bulkCreate *mutationSpec[bulkCategoryInput, []domain.Category, categoryRollback]
	update     *mutationSpec[categoryInput, domain.Category, categoryRollback]
	remove     *mutationSpec[categoryInput, struct{}, categoryRollback]
}

// NewCategoryMutations creates the category controller and registers its
// resume handlers.
func NewCategoryMutations(queries *QueryCache, mutations *MutationCache, online OnlineChecker, api driven.InventoryAPI) *CategoryMutations {
	m := &CategoryMutations{
		env: &mutationEnv{queries: queries, mutations: mutations, online: online},
		api: api,
	}
	m.create = m.createSpec()
	m.bulkCreate = m.bulkCreateSpec()
	m.update = m.updateSpec()
	m.remove = m.deleteSpec()
	registerMutation(m.env, m.create)
	registerMutation(m.env, m.bulkCreate)
	registerMutation(m.env, m.update)
	registerMutation(m.env, m.remove)
	return m
}

func (m *CategoryMutations) capture(id int64) categoryRollback {
	c := m.env.queries
	return categoryRollback{
		List:   c.CaptureKey(domain.CategoriesKey()),
		Detail: c.CaptureKey(domain.CategoryKey(id)),
	}
}

func (m *CategoryMutations) restore(rb categoryRollback) {
	m.env.queries.Restore(rb.List, rb.Detail)
}

func (m *CategoryMutations) patchList(fn func([]domain.Category) []domain.Category) {
	UpdateQueryData(m.env.queries, domain.ByKey(domain.CategoriesKey()), func(_ domain.QueryKey, rows []domain.Category) ([]domain.Category, bool) {
		return fn(rows), true
	})
}

func (m *CategoryMutations) replaceTemporary(tempIDs []int64, created []domain.Category) {
	m.patchList(func(rows []domain.Category) []domain.Category {
		for i, tmp := range tempIDs {
			if i >= len(created) {
				break
			}
			for j := range rows {
				if rows[j].ID == tmp {
					rows[j] = created[i]
				}
			}
		}
		return rows
	})
}

// categoryFilters lists what a category write invalidates. Product pages
// filtered by category and the per-supplier category lists depend on it.
func categoryFilters(id int64) []domain.QueryFilter {
	out := []domain.QueryFilter{
		domain.ByFamily(domain.FamilyCategories),
		domain.ByFamily(domain.FamilyCategoriesBySupplier),
		domain.ProductPagesFilteredByCategory(),
	}
	if id != 0 {
		out = append(out, domain.ByKey(domain.CategoryKey(id)))
	}
	return out
}

var categoryCancel = []domain.QueryFilter{
	domain.ByFamily(domain.FamilyCategories),
	domain.ByFamily(domain.FamilyCategory),
}

// Create adds a category under a temporary id.
func (m *CategoryMutations) Create(ctx context.Context, in domain.CategoryPayload) (domain.MutationResult[domain.Category], error) {
	input := categoryInput{ID: domain.NewTempID(), Payload: in}
	res, err := runMutation(ctx, m.env, m.create, input)
	if err == nil && res.Queued {
		res.Data = domain.Category{ID: input.ID, Name: in.Name}
	}
	return res, err
}

func (m *CategoryMutations) createSpec() *mutationSpec[categoryInput, domain.Category, categoryRollback] {
	return &mutationSpec[categoryInput, domain.Category, categoryRollback]{
		key:     domain.MutationCreateCategory,
		subject: func(in categoryInput) int64 { return in.ID },
		cancel:  categoryCancel,
		prepare: func(in categoryInput) (categoryRollback, error) {
			if err := in.Payload.Validate(); err != nil {
				return categoryRollback{}, err
			}
			rb := m.capture(in.ID)
			m.patchList(func(rows []domain.Category) []domain.Category {
				return append(rows, domain.Category{ID: in.ID, Name: in.Payload.Name})
			})
			return rb, nil
		},
		send: func(ctx context.Context, in categoryInput) (domain.Category, error) {
			return m.api.CreateCategory(ctx, in.Payload)
		},
		rollback: m.restore,
		onSuccess: func(_ context.Context, in categoryInput, _ int64, created domain.Category) {
			m.replaceTemporary([]int64{in.ID}, []domain.Category{created})
		},
		invalidate: func(categoryInput) []domain.QueryFilter { return categoryFilters(0) },
	}
}

// BulkCreate adds several categories in one request.
func (m *CategoryMutations) BulkCreate(ctx context.Context, in []domain.CategoryPayload) (domain.MutationResult[[]domain.Category], error) {
	input := bulkCategoryInput{Payloads: in}
	for range in {
		input.TempIDs = append(input.TempIDs, domain.NewTempID())
	}
	res, err := runMutation(ctx, m.env, m.bulkCreate, input)
	if err == nil && res.Queued {
		for i, p := range in {
			res.Data = append(res.Data, domain.Category{ID: input.TempIDs[i], Name: p.Name})
		}
	}
	return res, err
}

func (m *CategoryMutations) bulkCreateSpec() *mutationSpec[bulkCategoryInput, []domain.Category, categoryRollback] {
	return &mutationSpec[bulkCategoryInput, []domain.Category, categoryRollback]{
		key:    domain.MutationBulkCreateCategory,
		cancel: categoryCancel,
		prepare: func(in bulkCategoryInput) (categoryRollback, error) {
			if len(in.Payloads) == 0 {
				return categoryRollback{}, domain.ErrInvalidInput
			}
			for _, p := range in.Payloads {
				if err := p.Validate(); err != nil {
					return categoryRollback{}, err
				}
			}
			rb := m.capture(0)
			m.patchList(func(rows []domain.Category) []domain.Category {
				for i, p := range in.Payloads {
					rows = append(rows, domain.Category{ID: in.TempIDs[i], Name: p.Name})
				}
				return rows
			})
			return rb, nil
		},
		send: func(ctx context.Context, in bulkCategoryInput) ([]domain.Category, error) {
			return m.api.CreateCategories(ctx, in.Payloads)
		},
		rollback: m.restore,
		onSuccess: func(_ context.Context, in bulkCategoryInput, _ int64, created []domain.Category) {
			m.replaceTemporary(in.TempIDs, created)
		},
		invalidate: func(bulkCategoryInput) []domain.QueryFilter { return categoryFilters(0) },
	}
}

// Update renames a category.
func (m *CategoryMutations) Update(ctx context.Context, id int64, in domain.CategoryPayload) (domain.MutationResult[domain.Category], error) {
	res, err := runMutation(ctx, m.env, m.update, categoryInput{ID: id, Payload: in})
	if err == nil && res.Data.ID == 0 {
		res.Data = domain.Category{ID: id, Name: in.Name}
	}
	return res, err
}

func (m *CategoryMutations) updateSpec() *mutationSpec[categoryInput, domain.Category, categoryRollback] {
	c := m.env.queries
	return &mutationSpec[categoryInput, domain.Category, categoryRollback]{
		key:     domain.MutationUpdateCategory,
		subject: func(in categoryInput) int64 { return in.ID },
		cancel:  categoryCancel,
		prepare: func(in categoryInput) (categoryRollback, error) {
			if err := in.Payload.Validate(); err != nil {
				return categoryRollback{}, err
			}
			rb := m.capture(in.ID)
			row := domain.Category{ID: in.ID, Name: in.Payload.Name}
			m.patchList(func(rows []domain.Category) []domain.Category {
				for i := range rows {
					if rows[i].ID == in.ID {
						rows[i] = row
					}
				}
				return rows
			})
			UpdateQueryData(c, domain.ByKey(domain.CategoryKey(in.ID)), func(_ domain.QueryKey, _ domain.Category) (domain.Category, bool) {
				return row, true
			})
			return rb, nil
		},
		local: func(in categoryInput) (domain.Category, bool) {
			if !domain.IsTempID(in.ID) {
				return domain.Category{}, false
			}
			_, _ = m.env.mutations.replacePausedInput(domain.MutationCreateCategory, in.ID, in)
			return domain.Category{ID: in.ID, Name: in.Payload.Name}, true
		},
		send: func(ctx context.Context, in categoryInput) (domain.Category, error) {
			return m.api.UpdateCategory(ctx, in.ID, in.Payload)
		},
		rollback:   m.restore,
		invalidate: func(in categoryInput) []domain.QueryFilter { return categoryFilters(in.ID) },
	}
}

// Delete removes a category.
func (m *CategoryMutations) Delete(ctx context.Context, id int64) (domain.MutationResult[struct{}], error) {
	return runMutation(ctx, m.env, m.remove, categoryInput{ID: id})
}

func (m *CategoryMutations) deleteSpec() *mutationSpec[categoryInput, struct{}, categoryRollback] {
	c := m.env.queries
	return &mutationSpec[categoryInput, struct{}, categoryRollback]{
		key:     domain.MutationDeleteCategory,
		subject: func(in categoryInput) int64 { return in.ID },
		cancel:  categoryCancel,
		prepare: func(in categoryInput) (categoryRollback, error) {
			rb := m.capture(in.ID)
			m.patchList(func(rows []domain.Category) []domain.Category {
				kept := rows[:0]
				for _, r := range rows {
					if r.ID != in.ID {
						kept = append(kept, r)
					}
				}
				return kept
			})
			c.RemoveQueries(domain.ByKey(domain.CategoryKey(in.ID)))
			return rb, nil
		},
		local: func(in categoryInput) (struct{}, bool) {
			if !domain.IsTempID(in.ID) {
				return struct{}{}, false
			}
			m.env.mutations.discardPaused(domain.MutationCreateCategory, in.ID)
			return struct{}{}, true
		},
		send: func(ctx context.Context, in categoryInput) (struct{}, error) {
			return struct{}{}, m.api.DeleteCategory(ctx, in.ID)
		},
		rollback:   m.restore,
		invalidate: func(in categoryInput) []domain.QueryFilter { return categoryFilters(in.ID) },
	}
}
