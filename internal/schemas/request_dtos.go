// Package schemas defines the request structures for the various operations of the application.
package schemas

// SignUpRequest is a struct that represents a sign-up request
// Username is required, 3-20 alphanumeric characters
// Email is required and must be a valid email
// Password is required and must be at least 8 characters
type SignUpRequest struct {
	Username string `json:"username" validate:"required,min=3,max=20,username_validation"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,password_validation"`
}

// VerifyCodeRequest is a struct that represents a verification request
// Code is required and must be a 6-digit number
type VerifyCodeRequest struct {
	Username string `json:"username" validate:"required,min=3,max=20,username_validation"`
	Code     string `json:"code" validate:"required,numeric,len=6"`
}

// SignInRequest is a struct that represents a sign-in request
// Identifier is the username or email of the account
type SignInRequest struct {
	Identifier string `json:"identifier" validate:"required,max=128"`
	Password   string `json:"password" validate:"required,min=8"`
}

// RefreshTokenRequest is a struct that represents a token refresh request
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// SendMessageRequest is a struct that represents an anonymous message submission
// Username is the target profile, Content length is enforced by the intake handler
// so that it can be reported distinctly from other validation failures
type SendMessageRequest struct {
	Username string `json:"username" validate:"required,min=3,max=20,username_validation"`
	Content  string `json:"content" validate:"required"`
}

// AcceptMessagesRequest is a struct that represents an acceptance toggle request
// AcceptMessages is a pointer so that an explicit false survives the required check
type AcceptMessagesRequest struct {
	AcceptMessages *bool `json:"acceptMessages" validate:"required"`
}
