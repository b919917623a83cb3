package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type ErrorType string

const (
	ErrorTypeValidation ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound   ErrorType = "NOT_FOUND"
	ErrorTypeConflict   ErrorType = "CONFLICT"
	ErrorTypeInternal   ErrorType = "INTERNAL_ERROR"
)

type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidJSON      ErrorCode = "INVALID_JSON"
	ErrCodeInvalidID        ErrorCode = "INVALID_ID"
	ErrCodeInvalidLimit     ErrorCode = "INVALID_LIMIT"
	ErrCodeInvalidOffset    ErrorCode = "INVALID_OFFSET"
	ErrCodeInvalidUserID    ErrorCode = "INVALID_USER_ID"
	ErrCodeInvalidStartDate ErrorCode = "INVALID_START_DATE"
	ErrCodeInvalidEndDate   ErrorCode = "INVALID_END_DATE"
	ErrCodeInvalidDateRange ErrorCode = "INVALID_DATE_RANGE"

	ErrCodeMissingUserID   ErrorCode = "MISSING_USER_ID"
	ErrCodeMissingTitle    ErrorCode = "MISSING_TITLE"
	ErrCodeInvalidAmount   ErrorCode = "INVALID_AMOUNT"
	ErrCodeMissingCategory ErrorCode = "MISSING_CATEGORY"
	ErrCodeUserNotFound    ErrorCode = "USER_NOT_FOUND"

	ErrCodeExpenseNotFound         ErrorCode = "EXPENSE_NOT_FOUND"
	ErrCodeInvalidExpenseStatus    ErrorCode = "INVALID_EXPENSE_STATUS"
	ErrCodeInvalidStatus           ErrorCode = "INVALID_STATUS"
	ErrCodeInvalidStatusTransition ErrorCode = "INVALID_STATUS_TRANSITION"
	ErrCodeConcurrentModification  ErrorCode = "CONCURRENT_MODIFICATION"

	ErrCodeMissingApproverID ErrorCode = "MISSING_APPROVER_ID"
	ErrCodeInvalidApproverID ErrorCode = "INVALID_APPROVER_ID"
	ErrCodeApproverNotFound  ErrorCode = "APPROVER_NOT_FOUND"
	ErrCodeMissingComments   ErrorCode = "MISSING_COMMENTS"

	ErrCodeInvalidMinAmount         ErrorCode = "INVALID_MIN_AMOUNT"
	ErrCodeInvalidMaxAmount         ErrorCode = "INVALID_MAX_AMOUNT"
	ErrCodeInvalidRequiredApprovers ErrorCode = "INVALID_REQUIRED_APPROVERS"
	ErrCodeOverlappingRule          ErrorCode = "OVERLAPPING_RULE"
	ErrCodeRuleNotFound             ErrorCode = "RULE_NOT_FOUND"

	ErrCodeInternal    ErrorCode = "INTERNAL_ERROR"
	ErrCodeRateLimited ErrorCode = "RATE_LIMITED"
)

type AppError struct {
	Type       ErrorType   `json:"type"`
	Code       ErrorCode   `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	StatusCode int         `json:"-"`
	Cause      error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok && len(validationErrors.Errors) > 0 {
			return validationErrors.Errors[0].Message
		}
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) GetDetailedMessage() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok {
			if len(validationErrors.Errors) == 1 {
				return validationErrors.Errors[0].Message
			} else if len(validationErrors.Errors) > 1 {
				messages := make([]string, len(validationErrors.Errors))
				for i, err := range validationErrors.Errors {
					messages[i] = err.Message
				}
				return strings.Join(messages, "; ")
			}
		}
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches on type and code so sentinel values survive wrapping.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Code == t.Code
}

func (e *AppError) WithCause(cause error) *AppError {
	return &AppError{
		Type:       e.Type,
		Code:       e.Code,
		Message:    e.Message,
		Details:    e.Details,
		StatusCode: e.StatusCode,
		Cause:      cause,
	}
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	e.Details = details
	return e
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewValidationFieldError(field, message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Details: ValidationErrors{
			Errors: []ValidationError{
				{Field: field, Message: message, Code: string(code)},
			},
		},
	}
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       ErrCodeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

func NewConflictError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

var (
	ErrInvalidJSON = NewValidationError("Invalid JSON in request body", ErrCodeInvalidJSON)
	ErrInvalidID   = NewValidationError("Valid ID is required", ErrCodeInvalidID)

	ErrUserNotFound = NewValidationError("User not found", ErrCodeUserNotFound)

	ErrExpenseNotFound         = NewNotFoundError("Expense not found", ErrCodeExpenseNotFound)
	ErrInvalidExpenseStatus    = NewValidationError("Only pending expenses can be approved or rejected", ErrCodeInvalidExpenseStatus)
	ErrInvalidStatus           = NewValidationError("Status must be one of draft, pending, approved, rejected", ErrCodeInvalidStatus)
	ErrInvalidStatusTransition = NewValidationError("Expenses can only be approved or rejected through the approval endpoints", ErrCodeInvalidStatusTransition)
	ErrConcurrentModification  = NewConflictError("Expense was modified by another request, retry with fresh data", ErrCodeConcurrentModification)

	ErrMissingApproverID = NewValidationError("Approver ID is required", ErrCodeMissingApproverID)
	ErrInvalidApproverID = NewValidationError("Valid approver ID is required", ErrCodeInvalidApproverID)
	ErrApproverNotFound  = NewNotFoundError("Approver not found", ErrCodeApproverNotFound)
	ErrMissingComments   = NewValidationError("Comments are required for rejections", ErrCodeMissingComments)

	ErrOverlappingRule = NewConflictError("Approval rule overlaps an existing rule", ErrCodeOverlappingRule)
	ErrRuleNotFound    = NewNotFoundError("No approval rule matches the amount", ErrCodeRuleNotFound)
)

// IsAppError unwraps err until it finds an *AppError.
func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// ToHTTPResponse maps any error to a status code and the public error body.
// Errors that are not AppErrors are reported as opaque internal errors.
func ToHTTPResponse(err error) (int, ErrorResponse) {
	appErr, ok := IsAppError(err)
	if !ok || appErr.Type == ErrorTypeInternal {
		return http.StatusInternalServerError, ErrorResponse{
			Error: "Internal server error",
			Code:  string(ErrCodeInternal),
		}
	}
	return appErr.StatusCode, ErrorResponse{
		Error: appErr.GetDetailedMessage(),
		Code:  string(appErr.Code),
	}
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Error   string      `json:"error"`
		Code    ErrorCode   `json:"code"`
		Details interface{} `json:"details,omitempty"`
	}{
		Error:   e.Message,
		Code:    e.Code,
		Details: e.Details,
	})
}
