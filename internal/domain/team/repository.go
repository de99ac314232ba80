package team

import "context"

// UpdateFunc mutates a team aggregate. Returning an error discards every change.
type UpdateFunc func(data *Data) error

// Repository describes team persistence needs from use cases.
//
// Update applies fn to a private copy of the aggregate and stores the result
// only when fn succeeds. Implementations serialize Update calls per team.
type Repository interface {
	Create(ctx context.Context, data Data) error
	Get(ctx context.Context, teamID string) (Data, bool, error)
	Update(ctx context.Context, teamID string, fn UpdateFunc) (Data, bool, error)
}
