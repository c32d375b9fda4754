package services

import (
	"context"

	"github.com/custodia-labs/stockline/internal/core/domain"
	"github.com/custodia-labs/stockline/internal/core/ports/driving"
)

// Verify interface compliance.
var _ driving.MutationQueue = (*MutationQueueService)(nil)

// MutationQueueService exposes the mutation cache to the CLI.
type MutationQueueService struct {
	mutations *MutationCache
	online    OnlineChecker
}

// NewMutationQueueService creates the queue service.
func NewMutationQueueService(mutations *MutationCache, online OnlineChecker) *MutationQueueService {
	return &MutationQueueService{mutations: mutations, online: online}
}

// Records lists unsettled writes.
func (s *MutationQueueService) Records() []domain.MutationRecord {
	return s.mutations.Records()
}

// Flush sends every paused write.
func (s *MutationQueueService) Flush(ctx context.Context) error {
	if !s.online.IsOnline() {
		return domain.ErrOffline
	}
	return s.mutations.ResumePaused(ctx)
}

// Ack dismisses one failed write.
func (s *MutationQueueService) Ack(id string) error {
	return s.mutations.Ack(id)
}

// AckAll dismisses every failed write.
func (s *MutationQueueService) AckAll() int {
	return s.mutations.AckAll()
}
