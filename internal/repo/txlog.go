package repo

import (
	"context"

	"go.uber.org/zap"
)

// RollbackAndLog rolls a transaction back after a failure. The rollback
// outcome and the originating cause are always two distinct facts: a rollback
// failure is logged on its own without masking the cause.
func RollbackAndLog(ctx context.Context, tx Tx, log *zap.Logger, op string, cause error) {
	if rbErr := tx.Rollback(ctx); rbErr != nil {
		log.Error("rollback_error",
			zap.String("op", op),
			zap.NamedError("rollback_error", rbErr),
			zap.NamedError("cause", cause),
		)
		return
	}
	log.Error("transaction_rolled_back",
		zap.String("op", op),
		zap.NamedError("cause", cause),
	)
}
