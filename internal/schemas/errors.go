package schemas

// CustomError pairs a stable error code with a user-facing message.
// The code is part of the API contract, the message is free to change.
type CustomError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

var (
	BadRequest = &CustomError{
		Code:    "ERR-001",
		Message: "The request body is invalid. Please check the request body and try again.",
	}
	UsernameTaken = &CustomError{
		Code:    "ERR-002",
		Message: "The username is already taken. Please try another username.",
	}
	EmailTaken = &CustomError{
		Code:    "ERR-003",
		Message: "The email is already registered. Please sign in or use another email.",
	}
	UserNotFound = &CustomError{
		Code:    "ERR-004",
		Message: "The user was not found. Please check the username and try again.",
	}
	CodeMismatch = &CustomError{
		Code:    "ERR-005",
		Message: "The verification code is incorrect. Please check the code and try again.",
	}
	CodeExpired = &CustomError{
		Code:    "ERR-006",
		Message: "The verification code has expired. Please sign up again to receive a new code.",
	}
	AlreadyVerified = &CustomError{
		Code:    "ERR-007",
		Message: "The account is already verified. Please sign in.",
	}
	UserNotVerified = &CustomError{
		Code:    "ERR-008",
		Message: "The account is not verified yet. Please verify your email before signing in.",
	}
	InvalidCredentials = &CustomError{
		Code:    "ERR-009",
		Message: "The credentials are invalid. Please check your username and password.",
	}
	NotAcceptingMessages = &CustomError{
		Code:    "ERR-010",
		Message: "This user is not accepting messages right now.",
	}
	InvalidContent = &CustomError{
		Code:    "ERR-011",
		Message: "Message content must be between 10 and 300 characters.",
	}
	MessageNotFound = &CustomError{
		Code:    "ERR-012",
		Message: "The message was not found. It may have been deleted already.",
	}
	DeleteMessageForbidden = &CustomError{
		Code:    "ERR-013",
		Message: "You can only delete messages from your own inbox.",
	}
	Unauthorized = &CustomError{
		Code:    "ERR-014",
		Message: "The request is unauthorized. Please login to your account.",
	}
	EmailNotSent = &CustomError{
		Code:    "ERR-015",
		Message: "The verification email could not be sent. Please try again later.",
	}
	SuggestionUnavailable = &CustomError{
		Code:    "ERR-016",
		Message: "Message suggestions are unavailable right now. Please try again later.",
	}
	DatabaseError = &CustomError{
		Code:    "ERR-017",
		Message: "A database error occurred. Please try again later.",
	}
	InternalServerError = &CustomError{
		Code:    "ERR-018",
		Message: "An internal error occurred. Please try again later.",
	}
	InvalidToken = &CustomError{
		Code:    "ERR-019",
		Message: "The token is invalid. Please request a new one.",
	}
	EmailUnreachable = &CustomError{
		Code:    "ERR-020",
		Message: "The email address appears to be unreachable. Please use a valid email.",
	}
)
