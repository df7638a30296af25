package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"whisperbox/internal/managers"
	"whisperbox/internal/schemas"
	"whisperbox/internal/utils"
)

// SuggestionHdl defines the interface for handling suggestion requests.
type SuggestionHdl interface {
	SuggestMessages(ctx *gin.Context)
}

// SuggestionHandler proxies suggestion requests to the generative-text provider.
type SuggestionHandler struct {
	SuggestionManager managers.SuggestionMgr
}

// NewSuggestionHandler returns a new SuggestionHandler with the provided manager.
func NewSuggestionHandler(suggestionManager *managers.SuggestionMgr) SuggestionHdl {
	return &SuggestionHandler{
		SuggestionManager: *suggestionManager,
	}
}

// SuggestMessages fetches question suggestions from the provider and returns
// them both as the raw pipe-delimited string and split into a list.
func (handler *SuggestionHandler) SuggestMessages(ctx *gin.Context) {
	result, err := handler.SuggestionManager.SuggestQuestions(ctx)
	if err != nil {
		utils.WriteAndLogError(ctx, schemas.SuggestionUnavailable, http.StatusBadGateway, err)
		return
	}

	response := &schemas.SuggestionsDTO{
		Success:     true,
		Result:      result,
		Suggestions: managers.ParseSuggestions(result),
	}
	utils.WriteAndLogResponse(ctx, response, http.StatusOK)
}
