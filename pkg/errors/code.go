package errors

// ErrorCode represents a unique error identifier
type ErrorCode int

// Error code ranges allocation:
// 10000-10999: System & Common errors
// 11000-11999: User & Auth errors
// 12000-12999: Catalog errors
// 13000-13999: Progress errors

const (
	// ========== System & Common Errors (10000-10999) ==========

	Success ErrorCode = 10000

	// Generic errors (10000-10099)
	InternalServerError ErrorCode = 10001
	InvalidParams       ErrorCode = 10002
	NotFound            ErrorCode = 10003
	Unauthorized        ErrorCode = 10004
	Forbidden           ErrorCode = 10005
	TooManyRequests     ErrorCode = 10006
	ServiceUnavailable  ErrorCode = 10007
	Timeout             ErrorCode = 10008

	// Database errors (10100-10199)
	DatabaseError       ErrorCode = 10100
	RecordNotFound      ErrorCode = 10101
	RecordAlreadyExists ErrorCode = 10102
	TransactionFailed   ErrorCode = 10103

	// Cache errors (10200-10299)
	CacheError ErrorCode = 10200

	// Validation errors (10300-10399)
	ValidationFailed   ErrorCode = 10300
	InvalidFormat      ErrorCode = 10301
	InvalidValue       ErrorCode = 10302
	RequiredFieldEmpty ErrorCode = 10303

	// ========== User & Auth Errors (11000-11999) ==========

	// Authentication (11000-11099)
	InvalidCredentials    ErrorCode = 11000
	UserNotFound          ErrorCode = 11001
	TokenExpired          ErrorCode = 11003
	TokenInvalid          ErrorCode = 11004
	TokenGenerationFailed ErrorCode = 11005

	// Registration (11100-11199)
	EmailAlreadyExists ErrorCode = 11101
	InvalidEmail       ErrorCode = 11103
	InvalidPassword    ErrorCode = 11104
	PasswordTooWeak    ErrorCode = 11105

	// ========== Catalog Errors (12000-12999) ==========

	CompanyNotFound   ErrorCode = 12000
	ProblemNotFound   ErrorCode = 12001
	CatalogLoadFailed ErrorCode = 12100

	// ========== Progress Errors (13000-13999) ==========

	InvalidStatus      ErrorCode = 13000
	InvalidFilter      ErrorCode = 13001
	StatusUpdateFailed ErrorCode = 13100
)

// errorMessages maps error codes to their default English messages
var errorMessages = map[ErrorCode]string{
	// System & Common
	Success:             "Success",
	InternalServerError: "Internal server error",
	InvalidParams:       "Invalid parameters",
	NotFound:            "Resource not found",
	Unauthorized:        "Unauthorized access",
	Forbidden:           "Access forbidden",
	TooManyRequests:     "Too many requests, please try again later",
	ServiceUnavailable:  "Service temporarily unavailable",
	Timeout:             "Request timeout",

	// Database
	DatabaseError:       "Database operation failed",
	RecordNotFound:      "Record not found in database",
	RecordAlreadyExists: "Record already exists",
	TransactionFailed:   "Database transaction failed",

	// Cache
	CacheError: "Cache operation failed",

	// Validation
	ValidationFailed:   "Validation failed",
	InvalidFormat:      "Invalid format",
	InvalidValue:       "Invalid value",
	RequiredFieldEmpty: "Required field is empty",

	// User & Auth
	InvalidCredentials:    "Invalid email or password",
	UserNotFound:          "User not found",
	TokenExpired:          "Token has expired",
	TokenInvalid:          "Invalid token",
	TokenGenerationFailed: "Failed to generate token",
	EmailAlreadyExists:    "User with this email already exists",
	InvalidEmail:          "Invalid email address",
	InvalidPassword:       "Invalid password format",
	PasswordTooWeak:       "Password is too weak",

	// Catalog
	CompanyNotFound:   "Company not found",
	ProblemNotFound:   "Problem not found",
	CatalogLoadFailed: "Failed to load catalog",

	// Progress
	InvalidStatus:      "Status must be one of TODO, DONE, REDO",
	InvalidFilter:      "Filter must be one of ALL, TODO, REDO",
	StatusUpdateFailed: "Failed to update progress",
}

// Message returns the default message for the error code
func (c ErrorCode) Message() string {
	if msg, ok := errorMessages[c]; ok {
		return msg
	}
	return "Unknown error"
}

// HTTPStatus returns the recommended HTTP status code for the error code
func (c ErrorCode) HTTPStatus() int {
	switch {
	case c == Success:
		return 200
	case c == UserNotFound, c == NotFound, c == RecordNotFound, c == CompanyNotFound, c == ProblemNotFound:
		return 404
	case c == EmailAlreadyExists, c == RecordAlreadyExists:
		return 409
	case c >= 11000 && c < 11100: // Authentication errors
		return 401
	case c == Unauthorized:
		return 401
	case c == Forbidden:
		return 403
	case c == TooManyRequests:
		return 429
	case c == ServiceUnavailable:
		return 503
	case c >= 10300 && c < 10400: // Validation errors
		return 400
	case c >= 11100 && c < 11200: // Registration input errors
		return 400
	case c == InvalidStatus, c == InvalidFilter, c == InvalidParams:
		return 400
	default:
		return 500
	}
}

// Kind groups error codes into the failure classes callers branch on.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindNotFound
	KindStore
	KindConflict
)

// Kind classifies the code.
func (c ErrorCode) Kind() Kind {
	switch {
	case c == EmailAlreadyExists, c == RecordAlreadyExists:
		return KindConflict
	case c == InvalidParams, c == InvalidStatus, c == InvalidFilter:
		return KindValidation
	case c >= 10300 && c < 10400, c >= 11100 && c < 11200:
		return KindValidation
	case c == NotFound, c == RecordNotFound, c == UserNotFound, c == CompanyNotFound, c == ProblemNotFound:
		return KindNotFound
	case c >= 10100 && c < 10200, c == StatusUpdateFailed, c == CatalogLoadFailed:
		return KindStore
	default:
		return KindUnknown
	}
}
