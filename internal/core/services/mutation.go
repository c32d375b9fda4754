package services

import (
	"context"
	"errors"
	"fmt"

	json "github.com/goccy/go-json"

	"github.com/custodia-labs/stockline/internal/core/domain"
	"github.com/custodia-labs/stockline/internal/logger"
)

// mutationEnv is what every controller needs to run a write.
type mutationEnv struct {
	queries   *QueryCache
	mutations *MutationCache
	online    OnlineChecker
}

// mutationSpec describes one optimistic write. RB is the controller's
// rollback context: the cache entries prepare touched, captured verbatim.
type mutationSpec[In, Out, RB any] struct {
	key domain.MutationKey

	// subject names the entity targeted or created.
	subject func(In) int64
	// idempotencyKey identifies repeated submissions of the same input.
	idempotencyKey func(In) string

	// cancel lists the query families whose in-flight fetches could
	// overwrite the optimistic patch.
	cancel []domain.QueryFilter
	// prepare captures rollback state and applies the optimistic patch. It
	// must return an error before touching the cache if the patch cannot be
	// computed.
	prepare func(In) (RB, error)
	// local completes the write without the network, for temporary ids.
	local func(In) (Out, bool)
	send  func(context.Context, In) (Out, error)
	// rollback restores exactly what prepare captured.
	rollback  func(RB)
	onSuccess func(ctx context.Context, in In, subject int64, out Out)
	// invalidate lists the queries refreshed once the write settles online.
	invalidate func(In) []domain.QueryFilter
}

func (s *mutationSpec[In, Out, RB]) undo(rb RB) {
	if s.rollback != nil {
		s.rollback(rb)
	}
}

func (s *mutationSpec[In, Out, RB]) filters(in In) []domain.QueryFilter {
	if s.invalidate == nil {
		return nil
	}
	return s.invalidate(in)
}

// settle invalidates filters while online. Offline, the optimistic values
// stay authoritative until the reconnect invalidation.
func (env *mutationEnv) settle(ctx context.Context, filters []domain.QueryFilter) {
	if !env.online.IsOnline() {
		return
	}
	for _, f := range filters {
		if err := env.queries.InvalidateQueries(ctx, f); err != nil {
			logger.Warn("mutations: invalidate after settle: %v", err)
		}
	}
}

// runMutation executes spec for in: prepare, then send (or queue while
// offline), then rollback on failure and invalidate on settle.
func runMutation[In, Out, RB any](ctx context.Context, env *mutationEnv, spec *mutationSpec[In, Out, RB], in In) (domain.MutationResult[Out], error) {
	var res domain.MutationResult[Out]

	unlock := env.mutations.lock(spec.key)
	defer unlock()

	var subject int64
	if spec.subject != nil {
		subject = spec.subject(in)
	}
	var idem string
	if spec.idempotencyKey != nil {
		idem = spec.idempotencyKey(in)
	}
	if err := env.mutations.checkDuplicate(spec.key, idem); err != nil {
		return res, err
	}

	for _, f := range spec.cancel {
		env.queries.CancelQueries(f)
	}
	var rb RB
	if spec.prepare != nil {
		var err error
		if rb, err = spec.prepare(in); err != nil {
			return res, err
		}
	}

	rec, err := env.mutations.begin(spec.key, in, subject, idem)
	if err != nil {
		spec.undo(rb)
		return res, err
	}
	res.RecordID = rec.ID

	if spec.local != nil {
		if out, ok := spec.local(in); ok {
			logger.Debug("mutations: %s completed locally for %d", spec.key, subject)
			env.mutations.succeed(rec.ID)
			res.Data = out
			return res, nil
		}
	}

	if !env.online.IsOnline() {
		env.mutations.pause(rec.ID, func() { spec.undo(rb) })
		logger.Info("mutations: offline, queued %s %s", spec.key, rec.ID)
		res.Queued = true
		return res, nil
	}

	out, err := spec.send(ctx, in)
	if err != nil {
		spec.undo(rb)
		env.mutations.fail(rec.ID, err)
		env.settle(ctx, spec.filters(in))
		return res, fmt.Errorf("%s: %w", spec.key, err)
	}
	if spec.onSuccess != nil {
		spec.onSuccess(ctx, in, subject, out)
	}
	env.mutations.succeed(rec.ID)
	env.settle(ctx, spec.filters(in))
	res.Data = out
	return res, nil
}

// registerMutation installs the resume handler for spec's key. A resumed
// record skips prepare: its optimistic patch is already in the cache, or in
// the restored snapshot.
func registerMutation[In, Out, RB any](env *mutationEnv, spec *mutationSpec[In, Out, RB]) {
	env.mutations.SetMutationDefaults(spec.key, func(ctx context.Context, rec domain.MutationRecord) error {
		var in In
		if err := json.Unmarshal(rec.Input, &in); err != nil {
			return fmt.Errorf("decode %s input: %w", spec.key, err)
		}

		unlock := env.mutations.lock(spec.key)
		defer unlock()

		out, err := spec.send(ctx, in)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			if undo := env.mutations.takeRollback(rec.ID); undo != nil {
				undo()
			}
			env.settle(ctx, spec.filters(in))
			return err
		}
		if spec.onSuccess != nil {
			spec.onSuccess(ctx, in, rec.Subject, out)
		}
		env.settle(ctx, spec.filters(in))
		return nil
	})
}
