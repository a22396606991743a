package i18n

// Common errors
var (
	ErrBadRequest      = NewErrorWithCode("ErrorBadRequest", "Bad request", ErrorBadRequest)
	ErrMalformedBody   = NewErrorWithCode("ErrorMalformedBody", "Malformed request body", ErrorBadRequest)
	ErrValidation      = NewErrorWithCode("ErrorValidationFailed", "Validation failed", ErrorBadRequest)
	ErrInvalidID       = NewErrorWithCode("ErrorInvalidID", "Invalid id", ErrorBadRequest)
	ErrUnauthorized    = NewErrorWithCode("ErrorUnauthorized", "Authentication required", ErrorUnauthorized)
	ErrForbidden       = NewErrorWithCode("ErrorForbidden", "Access denied", ErrorForbidden)
	ErrNotFound        = NewErrorWithCode("ErrorResourceNotFound", "Resource not found", ErrorNotFound)
	ErrTooManyRequests = NewErrorWithCode("ErrorTooManyRequests", "Too many requests, please try again later", ErrorTooManyRequests)
	ErrInternalServer  = NewErrorWithCode("ErrorInternalServer", "Internal server error", ErrorInternalServer)
	ErrUnavailable     = NewErrorWithCode("ErrorServiceUnavailable", "Service unavailable", ErrorServiceUnavailable)
)

// Authentication and account errors
var (
	ErrorUserNamePasswordRequired = NewErrorWithCode("ErrorUserNamePasswordRequired", "Username and password are required", ErrorBadRequest)
	ErrorRegistrationRequired     = NewErrorWithCode("ErrorRegistrationRequired", "Username, password and email are required", ErrorBadRequest)
	ErrorInvalidCredentials       = NewErrorWithCode("ErrorInvalidCredentials", "Invalid credentials", ErrorUnauthorized)
	ErrorAccessDenied             = NewErrorWithCode("ErrorAccessDenied", "Access denied: {{.Role}} role required", ErrorForbidden)
	ErrorAccountDisabled          = NewErrorWithCode("ErrorAccountDisabled", "Account is disabled", ErrorForbidden)
	ErrorInvalidOldPassword       = NewErrorWithCode("ErrorInvalidOldPassword", "Current password is incorrect", ErrorForbidden)
	ErrorUsernameExists           = NewErrorWithCode("ErrorUsernameExists", "Username already exists", ErrorConflict)
	ErrorEmailExists              = NewErrorWithCode("ErrorEmailExists", "Email already exists", ErrorConflict)
	ErrorAccountNotFound          = NewErrorWithCode("ErrorAccountNotFound", "Account not found", ErrorNotFound)
	ErrorRegistrationNotFound     = NewErrorWithCode("ErrorRegistrationNotFound", "Registration metadata not found", ErrorNotFound)
	ErrorLoginRateLimited         = NewErrorWithCode("ErrorLoginRateLimited", "Too many login attempts, please try again later", ErrorTooManyRequests)
	ErrorLogoutFailed             = NewErrorWithCode("ErrorLogoutFailed", "Logout failed", ErrorInternalServer)
)

// Authorization errors name what was required
var (
	ErrorRoleRequired       = NewErrorWithCode("ErrorRoleRequired", "Access denied: requires role {{.Roles}}", ErrorForbidden)
	ErrorPermissionRequired = NewErrorWithCode("ErrorPermissionRequired", "Access denied: requires permission {{.Permission}}", ErrorForbidden)
)

// Role errors
var (
	ErrorRoleNotFound   = NewErrorWithCode("ErrorRoleNotFound", "Role not found", ErrorNotFound)
	ErrorInvalidRole    = NewErrorWithCode("ErrorInvalidRole", "Role does not exist", ErrorBadRequest)
	ErrorRoleNameExists = NewErrorWithCode("ErrorRoleNameExists", "Role name already exists", ErrorConflict)
	ErrorRoleInUse      = NewErrorWithCode("ErrorRoleInUse", "Role is assigned to accounts and cannot be deleted", ErrorConflict)
	ErrorDefaultRole    = NewErrorWithCode("ErrorDefaultRole", "Role is assigned to new accounts and cannot be deleted", ErrorConflict)
)

// Reference data and content errors
var (
	ErrorParentNotFound = NewErrorWithCode("ErrorParentNotFound", "Parent record does not exist", ErrorBadRequest)
	ErrorResourceInUse  = NewErrorWithCode("ErrorResourceInUse", "Record has dependent records and cannot be deleted", ErrorConflict)
	ErrorResourceExists = NewErrorWithCode("ErrorResourceExists", "Record already exists", ErrorConflict)
)

// Success message IDs
const (
	SuccessLogout          = "SuccessLogout"
	SuccessPasswordChanged = "SuccessPasswordChanged"
	SuccessDeleted         = "SuccessDeleted"
)
