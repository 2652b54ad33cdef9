package firestoredb

import (
	"context"
	stderrors "errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"marketsync/pkg/errors"
)

func IsNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

// Translate maps a store error onto the application taxonomy: missing
// documents, security-rule rejections and transient failures each get their
// own code, anything else is internal. AppErrors pass through untouched.
func Translate(err error, resource string) error {
	if err == nil {
		return nil
	}

	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return err
	}

	if stderrors.Is(err, context.DeadlineExceeded) {
		return errors.Unavailable(fmt.Sprintf("%s store call timed out", resource), err)
	}

	switch status.Code(err) {
	case codes.NotFound:
		return errors.NotFound(resource, err)
	case codes.AlreadyExists:
		return errors.Conflict(fmt.Sprintf("%s already exists", resource))
	case codes.PermissionDenied, codes.Unauthenticated:
		return errors.PermissionDenied(fmt.Sprintf("Access to %s denied", resource), err)
	case codes.Unavailable, codes.DeadlineExceeded, codes.Aborted, codes.ResourceExhausted:
		return errors.Unavailable(fmt.Sprintf("%s store temporarily unavailable", resource), err)
	}
	return errors.Internal(fmt.Sprintf("Failed to access %s", resource), err)
}

// Int64Field reads a numeric field that may have been written as an integer
// or, by older clients, as a double. Missing fields read as zero.
func Int64Field(snap *firestore.DocumentSnapshot, field string) int64 {
	if snap == nil || !snap.Exists() {
		return 0
	}
	v, err := snap.DataAt(field)
	if err != nil {
		return 0
	}
	switch n := v.(type) {
	case int64:
		return n
	case float64:
		return int64(n)
	}
	return 0
}
