package ddbremote

import (
	"errors"
	"fmt"

	"github.com/acksell/singletable/dynamodb/ddbiface"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
)

const reasonNone = "None"

// translateError maps DynamoDB API errors onto the ddbiface error values,
// keeping the original error in the chain.
func translateError(op string, err error) error {
	if err == nil {
		return nil
	}

	var cancelled *types.TransactionCanceledException
	if errors.As(err, &cancelled) {
		tce := &ddbiface.TransactionCanceledError{Index: -1, Reason: "unknown"}
		for i, reason := range cancelled.CancellationReasons {
			if reason.Code != nil && *reason.Code != reasonNone {
				tce.Index = i
				tce.Reason = *reason.Code
				break
			}
		}
		return fmt.Errorf("%s: %w: %w", op, tce, err)
	}

	var notFound *types.ResourceNotFoundException
	if errors.As(err, &notFound) {
		return fmt.Errorf("%s: %w: %w", op, ddbiface.ErrNotFound, err)
	}

	var condFailed *types.ConditionalCheckFailedException
	if errors.As(err, &condFailed) {
		return fmt.Errorf("%s: %w: %w", op, ddbiface.ErrConflict, err)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode() == "ValidationException" {
		return fmt.Errorf("%s: %w: %w", op, ddbiface.ErrValidation, err)
	}

	return fmt.Errorf("%s: %w", op, err)
}
