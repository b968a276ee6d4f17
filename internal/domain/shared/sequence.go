package shared

import (
	"context"
	"fmt"
	"time"
)

// SequenceRepository hands out monotonically increasing values per key.
// Next must run in the same database transaction that persists the
// numbered row so that a rolled back insert also rolls back its number.
type SequenceRepository interface {
	Next(ctx context.Context, key string) (int64, error)
}

// DocumentPeriod renders the YYMM component of a document number
func DocumentPeriod(at time.Time) string {
	return at.Format("0601")
}

// SequenceKey returns the counter key for a prefix in the month of at
func SequenceKey(prefix string, at time.Time) string {
	return prefix + "-" + DocumentPeriod(at)
}

// FormatDocumentNumber renders {PREFIX}-{YY}{MM}-{seq:04d}
func FormatDocumentNumber(prefix string, at time.Time, seq int64) string {
	return fmt.Sprintf("%s-%s-%04d", prefix, DocumentPeriod(at), seq)
}

// NextDocumentNumber draws the next value for prefix in the current month
// and formats it.
func NextDocumentNumber(ctx context.Context, seqs SequenceRepository, prefix string, now time.Time) (string, error) {
	seq, err := seqs.Next(ctx, SequenceKey(prefix, now))
	if err != nil {
		return "", fmt.Errorf("failed to allocate %s number: %w", prefix, err)
	}
	return FormatDocumentNumber(prefix, now, seq), nil
}
