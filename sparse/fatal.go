package sparse

import (
	"fmt"

	"go.uber.org/zap"
)

// Fatalf reports a non-recoverable programming error: it logs the message
// and panics. Shape mismatches, unsupported copy pairings and precondition
// violations all come through here; callers are not expected to recover.
func Fatalf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	zap.L().Error(msg)
	panic(msg)
}

// FatalUnsupported reports an unsupported type pairing between two matrix
// handles. Both operands dump their state before the abort so the pairing
// is visible in the log.
func FatalUnsupported[T Float](op string, a, b Matrix[T]) {
	zap.L().Error("unsupported matrix type pairing", zap.String("op", op))
	a.Info()
	b.Info()
	panic(fmt.Sprintf("%s: unsupported matrix type pairing", op))
}
