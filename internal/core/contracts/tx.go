package contracts

import "context"

// TxManager runs fn inside one storage transaction. Repository calls
// made with the ctx passed to fn join that transaction; fn returning an
// error rolls everything back.
type TxManager interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}
