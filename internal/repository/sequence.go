package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Receipt number sequences. Installments and additional fees each carry their
// own system-wide counter.
const (
	SequenceInstallments   = "installments"
	SequenceAdditionalFees = "additional_fees"
)

// nextSequence atomically increments and returns the named counter. It must
// run inside the same transaction as the insert consuming the number, so a
// rolled-back write also rolls back the allocation.
func nextSequence(ctx context.Context, tx *sqlx.Tx, name string) (int64, error) {
	const query = `INSERT INTO sequences (name, value) VALUES ($1, 1)
        ON CONFLICT (name) DO UPDATE SET value = sequences.value + 1
        RETURNING value`
	var value int64
	if err := tx.GetContext(ctx, &value, query, name); err != nil {
		return 0, fmt.Errorf("next sequence %s: %w", name, err)
	}
	return value, nil
}
