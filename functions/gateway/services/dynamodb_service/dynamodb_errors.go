package dynamodb_service

import (
	"context"
	"errors"

	dynamodb_types "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	internal_types "github.com/soulpass/api/functions/gateway/types"
)

// translateDynamoErr converts store-level failures that have a stable meaning
// for callers. Deadline expiry becomes a timeout kind so a caller-supplied
// context deadline surfaces as TimeoutError rather than an opaque 500.
func translateDynamoErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return internal_types.WrapDomainError(internal_types.KindTimeout, "store deadline exceeded", err)
	}
	return err
}

func isConditionalCheckFailure(err error) bool {
	var ccf *dynamodb_types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}

// transactCancellationCodes extracts the per-item cancellation codes from a
// failed TransactWriteItems call so the caller can tell which condition
// rejected the transaction. Returns nil when err is not a cancellation.
func transactCancellationCodes(err error) []string {
	var canceled *dynamodb_types.TransactionCanceledException
	if !errors.As(err, &canceled) {
		return nil
	}
	codes := make([]string, len(canceled.CancellationReasons))
	for i, reason := range canceled.CancellationReasons {
		if reason.Code != nil {
			codes[i] = *reason.Code
		}
	}
	return codes
}

const cancellationConditionalCheckFailed = "ConditionalCheckFailed"
