package httputil

// Machine-readable error codes returned alongside error messages.
// Clients should branch on these rather than on message text.
const (
	CodeInvalidRequestBody = "invalid_request_body"
	CodeInvalidAuthHeader  = "invalid_auth_header"
	CodeMissingAuth        = "missing_auth"
	CodeInvalidToken       = "invalid_token"
	CodeTokenExpired       = "token_expired"
	CodeInvalidCredentials = "invalid_credentials"
	CodeEmailAlreadyExists = "email_already_exists"
	CodeEmailRequired      = "email_required"
	CodePasswordRequired   = "password_required"
	CodeUserNotFound       = "user_not_found"
	CodeAddressNotFound    = "address_not_found"
	CodePhoneNotFound      = "phone_not_found"
	CodeInvalidCEP         = "invalid_cep"
	CodeCEPNotFound        = "cep_not_found"
	CodeInvalidID          = "invalid_id"
	CodeInternalError      = "internal_error"
)
