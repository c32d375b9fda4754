package domain

import (
	"encoding/json"
	"time"
)

// MutationKey names a write operation: entity kind and sub-operation.
type MutationKey string

// Mutation keys.
const (
	MutationCreateProduct       MutationKey = "products/create"
	MutationUpdateProduct       MutationKey = "products/update"
	MutationDeleteProduct       MutationKey = "products/delete"
	MutationBulkDeleteProducts  MutationKey = "products/bulk-delete"
	MutationRelateProduct       MutationKey = "products/relate"
	MutationUnrelateProduct     MutationKey = "products/unrelate"
	MutationBulkUploadProducts  MutationKey = "products/bulk-upload"
	MutationCreateSupplier      MutationKey = "suppliers/create"
	MutationUpdateSupplier      MutationKey = "suppliers/update"
	MutationDeleteSupplier      MutationKey = "suppliers/delete"
	MutationCreateCategory      MutationKey = "categories/create"
	MutationBulkCreateCategory  MutationKey = "categories/bulk-create"
	MutationUpdateCategory      MutationKey = "categories/update"
	MutationDeleteCategory      MutationKey = "categories/delete"
	MutationRegisterSale        MutationKey = "sales/register"
	MutationForceExchangeUpdate MutationKey = "rates/force-update"
)

// MutationStatus is the lifecycle state of a mutation record.
type MutationStatus string

// Mutation statuses. A paused record was submitted while offline and waits
// for reconnect.
const (
	MutationIdle    MutationStatus = "idle"
	MutationPending MutationStatus = "pending"
	MutationPaused  MutationStatus = "paused"
	MutationError   MutationStatus = "error"
	MutationSuccess MutationStatus = "success"
)

// IsOutstanding reports whether the record still has to reach the server.
func (s MutationStatus) IsOutstanding() bool {
	return s == MutationPending || s == MutationPaused
}

// MutationRecord tracks one invocation of a write operation.
type MutationRecord struct {
	ID             string          `json:"id"`
	Key            MutationKey     `json:"key"`
	Status         MutationStatus  `json:"status"`
	Input          json.RawMessage `json:"input,omitempty"`
	Subject        int64           `json:"subject,omitempty"`
	IdempotencyKey string          `json:"idempotencyKey,omitempty"`
	Error          string          `json:"error,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	SubmittedAt    time.Time       `json:"submittedAt,omitempty"`
}
