package errs

import "errors"

// Cross-layer sentinels shared by command and query use cases
var (
	ErrDomainValidation        = errors.New("domain validation error")
	ErrDatabaseOperationFailed = errors.New("database operation failed")
	ErrForbidden               = errors.New("forbidden")
)
