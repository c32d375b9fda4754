package services

import (
	"context"

	"github.com/custodia-labs/stockline/internal/core/domain"
	"github.com/custodia-labs/stockline/internal/core/ports/driven"
	"github.com/custodia-labs/stockline/internal/core/ports/driving"
)

// Verify interface compliance.
var _ driving.ExchangeRateCommands = (*ExchangeRateMutations)(nil)

// ExchangeRateMutations asks the server to refresh its USD quotes. There is
// no optimistic patch: the new rates are only known after the server replies.
type ExchangeRateMutations struct {
	env   *mutationEnv
	api   driven.InventoryAPI
	force *mutationSpec[struct{}, string, struct{}]
}

// NewExchangeRateMutations creates the exchange rate controller.
func NewExchangeRateMutations(queries *QueryCache, mutations *MutationCache, online OnlineChecker, api driven.InventoryAPI) *ExchangeRateMutations {
	m := &ExchangeRateMutations{
		env: &mutationEnv{queries: queries, mutations: mutations, online: online},
		api: api,
	}
	m.force = &mutationSpec[struct{}, string, struct{}]{
		key: domain.MutationForceExchangeUpdate,
		send: func(ctx context.Context, _ struct{}) (string, error) {
			return m.api.ForceExchangeRateUpdate(ctx)
		},
		// Product prices are derived from the rate.
		invalidate: func(struct{}) []domain.QueryFilter {
			return []domain.QueryFilter{
				domain.ByFamily(domain.FamilyExchangeRates),
				domain.ByFamily(domain.FamilyProducts),
				domain.ByFamily(domain.FamilyAllProducts),
				domain.ByFamily(domain.FamilyProduct),
			}
		},
	}
	registerMutation(m.env, m.force)
	return m
}

// ForceUpdate triggers a server-side refresh and returns the server message.
func (m *ExchangeRateMutations) ForceUpdate(ctx context.Context) (domain.MutationResult[string], error) {
	return runMutation(ctx, m.env, m.force, struct{}{})
}
