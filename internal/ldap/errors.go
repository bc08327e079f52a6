package ldap

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-ldap/ldap/v3"
)

// ErrorCategory represents different categories of directory errors.
type ErrorCategory string

const (
	ErrorCategoryConnection     ErrorCategory = "connection"
	ErrorCategoryAuthentication ErrorCategory = "authentication"
	ErrorCategoryPermission     ErrorCategory = "permission"
	ErrorCategoryNotFound       ErrorCategory = "not_found"
	ErrorCategoryValidation     ErrorCategory = "validation"
	ErrorCategoryServer         ErrorCategory = "server"
	ErrorCategoryUnknown        ErrorCategory = "unknown"
)

// Sentinel errors for category matching with errors.Is. A *DirectoryError
// matches the sentinel of its category.
var (
	ErrNotFound         = errors.New("object not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrUnauthenticated  = errors.New("authentication failed")
)

// DirectoryError provides classified error information for directory operations.
type DirectoryError struct {
	Operation string        // The operation that failed
	Category  ErrorCategory // Error category
	Code      uint16        // LDAP result code, 0 when not LDAP-originated
	Message   string        // Human-readable message
	ServerMsg string        // Server-provided message
	DN        string        // DN involved in the operation (if applicable)
	Retryable bool          // Whether the error is retryable
	Cause     error         // Underlying error
}

func (e *DirectoryError) Error() string {
	var parts []string

	if e.Code > 0 {
		parts = append(parts, fmt.Sprintf("directory %s failed (code %d)", e.Operation, e.Code))
	} else {
		parts = append(parts, fmt.Sprintf("directory %s failed", e.Operation))
	}

	if e.Message != "" {
		parts = append(parts, e.Message)
	}

	if e.ServerMsg != "" && e.ServerMsg != e.Message {
		parts = append(parts, fmt.Sprintf("server: %s", e.ServerMsg))
	}

	if e.DN != "" {
		parts = append(parts, fmt.Sprintf("DN: %s", e.DN))
	}

	return strings.Join(parts, " - ")
}

func (e *DirectoryError) IsRetryable() bool {
	return e.Retryable
}

func (e *DirectoryError) Unwrap() error {
	return e.Cause
}

// Is reports whether the error matches a category sentinel.
func (e *DirectoryError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Category == ErrorCategoryNotFound
	case ErrPermissionDenied:
		return e.Category == ErrorCategoryPermission
	case ErrUnauthenticated:
		return e.Category == ErrorCategoryAuthentication
	}
	return false
}

// NewDirectoryError classifies err for the named operation.
func NewDirectoryError(operation string, err error) *DirectoryError {
	if err == nil {
		return nil
	}

	dirErr := &DirectoryError{
		Operation: operation,
		Cause:     err,
	}

	var ldapErr *ldap.Error
	if errors.As(err, &ldapErr) {
		dirErr.Code = ldapErr.ResultCode
		dirErr.ServerMsg = ldapErr.Err.Error()
		dirErr.Category = categorizeResultCode(ldapErr.ResultCode)
		dirErr.Retryable = isResultCodeRetryable(ldapErr.ResultCode)
		dirErr.Message = resultCodeMessage(ldapErr.ResultCode)
	} else {
		dirErr.Category = categorizeGenericError(err)
		dirErr.Retryable = isGenericErrorRetryable(err)
		dirErr.Message = err.Error()
	}

	return dirErr
}

// NewNotFoundError builds a not_found classified error for an identifier
// that did not resolve to any directory entry.
func NewNotFoundError(operation, identifier string) *DirectoryError {
	return &DirectoryError{
		Operation: operation,
		Category:  ErrorCategoryNotFound,
		Message:   fmt.Sprintf("object not found: %s", identifier),
	}
}

// categorizeResultCode categorizes an error based on the LDAP result code.
func categorizeResultCode(code uint16) ErrorCategory {
	switch code {
	case ldap.LDAPResultInvalidCredentials,
		ldap.LDAPResultInappropriateAuthentication,
		ldap.LDAPResultStrongAuthRequired:
		return ErrorCategoryAuthentication

	case ldap.LDAPResultInsufficientAccessRights,
		ldap.LDAPResultUnwillingToPerform:
		return ErrorCategoryPermission

	case ldap.LDAPResultNoSuchObject,
		ldap.LDAPResultNoSuchAttribute,
		ldap.LDAPResultUndefinedAttributeType:
		return ErrorCategoryNotFound

	case ldap.LDAPResultInvalidAttributeSyntax,
		ldap.LDAPResultConstraintViolation,
		ldap.LDAPResultInvalidDNSyntax,
		ldap.LDAPResultNamingViolation,
		ldap.LDAPResultEntryAlreadyExists,
		ldap.LDAPResultNotAllowedOnNonLeaf:
		return ErrorCategoryValidation

	case ldap.LDAPResultServerDown,
		ldap.LDAPResultUnavailable,
		ldap.LDAPResultBusy,
		ldap.LDAPResultTimeLimitExceeded,
		ldap.LDAPResultAdminLimitExceeded:
		return ErrorCategoryServer

	case ldap.LDAPResultConnectError,
		ldap.LDAPResultProtocolError:
		return ErrorCategoryConnection

	default:
		return ErrorCategoryUnknown
	}
}

// categorizeGenericError categorizes non-LDAP errors by message.
func categorizeGenericError(err error) ErrorCategory {
	errStr := strings.ToLower(err.Error())

	if strings.Contains(errStr, "connection") ||
		strings.Contains(errStr, "network") ||
		strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "broken pipe") ||
		strings.Contains(errStr, "connection reset") {
		return ErrorCategoryConnection
	}

	if strings.Contains(errStr, "authentication") ||
		strings.Contains(errStr, "credentials") ||
		strings.Contains(errStr, "password") {
		return ErrorCategoryAuthentication
	}

	if strings.Contains(errStr, "permission") ||
		strings.Contains(errStr, "access") ||
		strings.Contains(errStr, "denied") {
		return ErrorCategoryPermission
	}

	if strings.Contains(errStr, "not found") ||
		strings.Contains(errStr, "no such object") {
		return ErrorCategoryNotFound
	}

	return ErrorCategoryUnknown
}

// isResultCodeRetryable determines if an LDAP result code indicates a
// retryable condition.
func isResultCodeRetryable(code uint16) bool {
	switch code {
	case ldap.LDAPResultBusy,
		ldap.LDAPResultUnavailable,
		ldap.LDAPResultServerDown,
		ldap.LDAPResultTimeLimitExceeded,
		ldap.LDAPResultConnectError:
		return true
	default:
		return false
	}
}

// isGenericErrorRetryable determines if a generic error is retryable.
func isGenericErrorRetryable(err error) bool {
	errStr := strings.ToLower(err.Error())

	retryablePatterns := []string{
		"connection",
		"timeout",
		"network",
		"broken pipe",
		"connection reset",
		"temporary failure",
	}

	for _, pattern := range retryablePatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	return false
}

// resultCodeMessage returns a human-readable message for an LDAP result code.
func resultCodeMessage(code uint16) string {
	switch code {
	case ldap.LDAPResultOperationsError:
		return "operations error"
	case ldap.LDAPResultProtocolError:
		return "protocol error"
	case ldap.LDAPResultTimeLimitExceeded:
		return "time limit exceeded"
	case ldap.LDAPResultSizeLimitExceeded:
		return "size limit exceeded"
	case ldap.LDAPResultStrongAuthRequired:
		return "strong authentication required"
	case ldap.LDAPResultAdminLimitExceeded:
		return "administrative limit exceeded"
	case ldap.LDAPResultNoSuchAttribute:
		return "requested attribute does not exist"
	case ldap.LDAPResultUndefinedAttributeType:
		return "attribute type is not defined"
	case ldap.LDAPResultConstraintViolation:
		return "constraint violation"
	case ldap.LDAPResultInvalidAttributeSyntax:
		return "invalid attribute syntax"
	case ldap.LDAPResultNoSuchObject:
		return "requested object does not exist"
	case ldap.LDAPResultInvalidDNSyntax:
		return "invalid DN syntax"
	case ldap.LDAPResultInappropriateAuthentication:
		return "inappropriate authentication method"
	case ldap.LDAPResultInvalidCredentials:
		return "invalid credentials"
	case ldap.LDAPResultInsufficientAccessRights:
		return "insufficient access rights"
	case ldap.LDAPResultBusy:
		return "server is busy"
	case ldap.LDAPResultUnavailable:
		return "server is unavailable"
	case ldap.LDAPResultUnwillingToPerform:
		return "server is unwilling to perform the operation"
	case ldap.LDAPResultNamingViolation:
		return "naming violation"
	case ldap.LDAPResultObjectClassViolation:
		return "object class violation"
	case ldap.LDAPResultNotAllowedOnNonLeaf:
		return "operation not allowed on non-leaf entry"
	case ldap.LDAPResultEntryAlreadyExists:
		return "entry already exists"
	case ldap.LDAPResultServerDown:
		return "server is down"
	case ldap.LDAPResultTimeout:
		return "operation timed out"
	case ldap.LDAPResultConnectError:
		return "connection error"
	default:
		return fmt.Sprintf("LDAP result code %d", code)
	}
}

// WrapError wraps an error with operation context, classifying it if it is
// not already classified.
func WrapError(operation string, err error) error {
	if err == nil {
		return nil
	}

	var dirErr *DirectoryError
	if errors.As(err, &dirErr) {
		if dirErr.Operation == "" {
			dirErr.Operation = operation
		}
		return dirErr
	}

	return NewDirectoryError(operation, err)
}

// IsRetryableError checks if an error is retryable.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var retryable RetryableError
	if errors.As(err, &retryable) {
		return retryable.IsRetryable()
	}

	return isGenericErrorRetryable(err)
}

// GetErrorCategory returns the category of an error.
func GetErrorCategory(err error) ErrorCategory {
	if err == nil {
		return ErrorCategoryUnknown
	}

	var dirErr *DirectoryError
	if errors.As(err, &dirErr) {
		return dirErr.Category
	}

	var ldapErr *ldap.Error
	if errors.As(err, &ldapErr) {
		return categorizeResultCode(ldapErr.ResultCode)
	}

	return categorizeGenericError(err)
}

// IsNotFoundError checks if an error indicates a "not found" condition.
func IsNotFoundError(err error) bool {
	return GetErrorCategory(err) == ErrorCategoryNotFound
}

// IsPermissionError checks if an error indicates a permission problem.
func IsPermissionError(err error) bool {
	return GetErrorCategory(err) == ErrorCategoryPermission
}

// IsAuthenticationError checks if an error indicates an authentication problem.
func IsAuthenticationError(err error) bool {
	return GetErrorCategory(err) == ErrorCategoryAuthentication
}
