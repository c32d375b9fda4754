package services

import (
	"context"

	"github.com/custodia-labs/stockline/internal/core/domain"
	"github.com/custodia-labs/stockline/internal/core/ports/driven"
	"github.com/custodia-labs/stockline/internal/core/ports/driving"
)

// Verify interface compliance.
var _ driving.SupplierCommands = (*SupplierMutations)(nil)

type supplierInput struct {
	ID      int64                 `json:"id"`
	Payload domain.SupplierDetail `json:"payload"`
}

type supplierRollback struct {
	Summaries EntryState
	Details   EntryState
	Detail    EntryState
}

// SupplierMutations applies supplier writes optimistically.
type SupplierMutations struct {
	env *mutationEnv
	api driven.InventoryAPI

	create *mutationSpec[supplierInput, domain.SupplierDetail, supplierRollback]
	update *mutationSpec[supplierInput, domain.SupplierDetail, supplierRollback]
	remove *mutationSpec[supplierInput, struct{}, supplierRollback]
}

// NewSupplierMutations creates the supplier controller and registers its
// resume handlers.
func NewSupplierMutations(queries *QueryCache, mutations *MutationCache, online OnlineChecker, api driven.InventoryAPI) *SupplierMutations {
	m := &SupplierMutations{
		env: &mutationEnv{queries: queries, mutations: mutations, online: online},
		api: api,
	}
	m.create = m.createSpec()
	m.update = m.updateSpec()
	m.remove = m.deleteSpec()
	registerMutation(m.env, m.create)
	registerMutation(m.env, m.update)
	registerMutation(m.env, m.remove)
	return m
}

func (m *SupplierMutations) capture(id int64) supplierRollback {
	c := m.env.queries
	rb := supplierRollback{
		Summaries: c.CaptureKey(domain.SuppliersKey()),
		Details:   c.CaptureKey(domain.SupplierDetailsKey()),
	}
	if id != 0 {
		rb.Detail = c.CaptureKey(domain.SupplierKey(id))
	} else {
		rb.Detail = EntryState{Key: domain.SupplierKey(0)}
	}
	return rb
}

func (m *SupplierMutations) restore(rb supplierRollback) {
	m.env.queries.Restore(rb.Summaries, rb.Details, rb.Detail)
}

// patch rewrites the supplier lists with fn applied to each row.
func (m *SupplierMutations) patch(fn func(rows []domain.SupplierDetail) []domain.SupplierDetail) {
	c := m.env.queries
	UpdateQueryData(c, domain.ByKey(domain.SupplierDetailsKey()), func(_ domain.QueryKey, rows []domain.SupplierDetail) ([]domain.SupplierDetail, bool) {
		return fn(rows), true
	})
	UpdateQueryData(c, domain.ByKey(domain.SuppliersKey()), func(_ domain.QueryKey, rows []domain.Supplier) ([]domain.Supplier, bool) {
		details := make([]domain.SupplierDetail, len(rows))
		for i, s := range rows {
			details[i] = domain.SupplierDetail{ID: s.ID, Name: s.Name, SalesContact1: s.Contact}
		}
		details = fn(details)
		out := make([]domain.Supplier, len(details))
		for i, d := range details {
			out[i] = d.Summary()
		}
		return out, true
	})
}

func supplierFilters(id int64) []domain.QueryFilter {
	out := []domain.QueryFilter{
		domain.ByFamily(domain.FamilySuppliers),
		domain.ByFamily(domain.FamilySupplierDetails),
	}
	if id != 0 {
		out = append(out, domain.ByKey(domain.SupplierKey(id)))
	}
	return out
}

// Create adds a supplier under a temporary id until the server assigns one.
func (m *SupplierMutations) Create(ctx context.Context, in domain.SupplierDetail) (domain.MutationResult[domain.SupplierDetail], error) {
	input := supplierInput{ID: domain.NewTempID(), Payload: in}
	res, err := runMutation(ctx, m.env, m.create, input)
	if err == nil && res.Queued {
		res.Data = in
		res.Data.ID = input.ID
	}
	return res, err
}

func (m *SupplierMutations) createSpec() *mutationSpec[supplierInput, domain.SupplierDetail, supplierRollback] {
	return &mutationSpec[supplierInput, domain.SupplierDetail, supplierRollback]{
		key:     domain.MutationCreateSupplier,
		subject: func(in supplierInput) int64 { return in.ID },
		cancel:  supplierFilters(0),
		prepare: func(in supplierInput) (supplierRollback, error) {
			if err := in.Payload.Validate(); err != nil {
				return supplierRollback{}, err
			}
			rb := m.capture(0)
			row := in.Payload
			row.ID = in.ID
			m.patch(func(rows []domain.SupplierDetail) []domain.SupplierDetail {
				return append(rows, row)
			})
			return rb, nil
		},
		send: func(ctx context.Context, in supplierInput) (domain.SupplierDetail, error) {
			payload := in.Payload
			payload.ID = 0
			return m.api.CreateSupplier(ctx, payload)
		},
		rollback: m.restore,
		onSuccess: func(_ context.Context, _ supplierInput, tempID int64, created domain.SupplierDetail) {
			m.patch(func(rows []domain.SupplierDetail) []domain.SupplierDetail {
				for i := range rows {
					if rows[i].ID == tempID {
						rows[i] = created
					}
				}
				return rows
			})
		},
		invalidate: func(supplierInput) []domain.QueryFilter { return supplierFilters(0) },
	}
}

// Update replaces a supplier record.
func (m *SupplierMutations) Update(ctx context.Context, id int64, in domain.SupplierDetail) (domain.MutationResult[domain.SupplierDetail], error) {
	res, err := runMutation(ctx, m.env, m.update, supplierInput{ID: id, Payload: in})
	if err == nil && res.Data.ID == 0 {
		res.Data = in
		res.Data.ID = id
	}
	return res, err
}

func (m *SupplierMutations) updateSpec() *mutationSpec[supplierInput, domain.SupplierDetail, supplierRollback] {
	c := m.env.queries
	return &mutationSpec[supplierInput, domain.SupplierDetail, supplierRollback]{
		key:     domain.MutationUpdateSupplier,
		subject: func(in supplierInput) int64 { return in.ID },
		cancel:  append(supplierFilters(0), domain.ByFamily(domain.FamilySupplier)),
		prepare: func(in supplierInput) (supplierRollback, error) {
			if err := in.Payload.Validate(); err != nil {
				return supplierRollback{}, err
			}
			rb := m.capture(in.ID)
			row := in.Payload
			row.ID = in.ID
			m.patch(func(rows []domain.SupplierDetail) []domain.SupplierDetail {
				for i := range rows {
					if rows[i].ID == in.ID {
						rows[i] = row
					}
				}
				return rows
			})
			UpdateQueryData(c, domain.ByKey(domain.SupplierKey(in.ID)), func(_ domain.QueryKey, _ domain.SupplierDetail) (domain.SupplierDetail, bool) {
				return row, true
			})
			return rb, nil
		},
		local: func(in supplierInput) (domain.SupplierDetail, bool) {
			if !domain.IsTempID(in.ID) {
				return domain.SupplierDetail{}, false
			}
			_, _ = m.env.mutations.replacePausedInput(domain.MutationCreateSupplier, in.ID, in)
			row := in.Payload
			row.ID = in.ID
			return row, true
		},
		send: func(ctx context.Context, in supplierInput) (domain.SupplierDetail, error) {
			return m.api.UpdateSupplier(ctx, in.ID, in.Payload)
		},
		rollback:   m.restore,
		invalidate: func(in supplierInput) []domain.QueryFilter { return supplierFilters(in.ID) },
	}
}

// Delete removes a supplier. A supplier that only exists locally is dropped
// together with its queued create.
func (m *SupplierMutations) Delete(ctx context.Context, id int64) (domain.MutationResult[struct{}], error) {
	return runMutation(ctx, m.env, m.remove, supplierInput{ID: id})
}

func (m *SupplierMutations) deleteSpec() *mutationSpec[supplierInput, struct{}, supplierRollback] {
	c := m.env.queries
	return &mutationSpec[supplierInput, struct{}, supplierRollback]{
		key:     domain.MutationDeleteSupplier,
		subject: func(in supplierInput) int64 { return in.ID },
		cancel:  append(supplierFilters(0), domain.ByFamily(domain.FamilySupplier)),
		prepare: func(in supplierInput) (supplierRollback, error) {
			rb := m.capture(in.ID)
			m.patch(func(rows []domain.SupplierDetail) []domain.SupplierDetail {
				kept := rows[:0]
				for _, r := range rows {
					if r.ID != in.ID {
						kept = append(kept, r)
					}
				}
				return kept
			})
			c.RemoveQueries(domain.ByKey(domain.SupplierKey(in.ID)))
			return rb, nil
		},
		local: func(in supplierInput) (struct{}, bool) {
			if !domain.IsTempID(in.ID) {
				return struct{}{}, false
			}
			m.env.mutations.discardPaused(domain.MutationCreateSupplier, in.ID)
			return struct{}{}, true
		},
		send: func(ctx context.Context, in supplierInput) (struct{}, error) {
			return struct{}{}, m.api.DeleteSupplier(ctx, in.ID)
		},
		rollback:   m.restore,
		invalidate: func(in supplierInput) []domain.QueryFilter { return supplierFilters(in.ID) },
	}
}
