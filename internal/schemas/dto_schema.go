package schemas

// ErrorDTO is the envelope for every failed request.
// Code references the CustomError catalog, Message is user-facing.
type ErrorDTO struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ApiResponseDTO is the plain success envelope shared by most endpoints.
type ApiResponseDTO struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// TokenPairDTO is a struct that represents a token response
// Token is the main JWT token used for auth
// RefreshToken is the refresh token used to get a new token
type TokenPairDTO struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

// SignInDTO is the successful sign-in response: the session principal plus a token pair.
type SignInDTO struct {
	Success             bool   `json:"success"`
	Message             string `json:"message"`
	UserId              string `json:"userId"`
	Username            string `json:"username"`
	IsAcceptingMessages bool   `json:"isAcceptingMessages"`
	Token               string `json:"token"`
	RefreshToken        string `json:"refreshToken"`
}

// MessageDTO is a struct that represents a single inbox message
// The _id field name is part of the wire contract consumed by the dashboard
type MessageDTO struct {
	MessageId string `json:"_id"`
	Content   string `json:"content"`
	CreatedAt string `json:"createdAt"`
}

// MessageListDTO is the paginated inbox listing, newest first.
type MessageListDTO struct {
	Success    bool         `json:"success"`
	Messages   []MessageDTO `json:"messages"`
	Pagination Pagination   `json:"pagination"`
}

// MessageSentDTO confirms an accepted anonymous submission.
type MessageSentDTO struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	MessageId string `json:"_id"`
}

// AcceptMessagesDTO reports the current acceptance flag of the principal.
type AcceptMessagesDTO struct {
	Success             bool   `json:"success"`
	Message             string `json:"message,omitempty"`
	IsAcceptingMessages bool   `json:"isAcceptingMessages"`
}

// SuggestionsDTO carries the provider text both raw (pipe-delimited) and split.
type SuggestionsDTO struct {
	Success     bool     `json:"success"`
	Result      string   `json:"result"`
	Suggestions []string `json:"suggestions"`
}

// Pagination is a struct that represents a pagination
// Offset is the given offset of the pagination
// Limit is the given limit of the pagination
// Records is the total records of the pagination
type Pagination struct {
	Offset  int `json:"offset"`
	Limit   int `json:"limit"`
	Records int `json:"records"`
}

// MetadataDTO describes the running service on the root route.
type MetadataDTO struct {
	ApiVersion string `json:"apiVersion"`
	ApiName    string `json:"apiName"`
}
