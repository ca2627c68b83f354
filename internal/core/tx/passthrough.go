package tx

import "context"

// Passthrough runs callbacks directly without a database.
// Domain service tests use it when rollback behaviour is not under test.
type Passthrough struct{}

var _ ReadOnlyManager = Passthrough{}

func (Passthrough) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (Passthrough) RunInSavepoint(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (Passthrough) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
