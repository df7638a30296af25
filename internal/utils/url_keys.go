package utils

const (
	// UsernameKey is the key for username used in routing parameters.
	UsernameKey = "username"

	// UsernameParamKey is the key for username used in query parameters.
	UsernameParamKey = "username"

	// MessageIdParamKey is the key for message ID used in routing parameters.
	MessageIdParamKey = "messageId"

	// OffsetParamKey is the key for offset used in pagination query parameters.
	OffsetParamKey = "offset"

	// LimitParamKey is the key for limit used in pagination query parameters.
	LimitParamKey = "limit"
)
