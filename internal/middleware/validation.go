package middleware

import (
	"net/http"
	"reflect"

	"github.com/gin-gonic/gin"

	"whisperbox/internal/schemas"
	"whisperbox/internal/utils"
)

// ValidateAndSanitizeStruct binds the JSON body into a fresh instance of the
// given payload type, sanitizes its string fields and validates it. The
// sanitized payload is stored in the context for the handler. A fresh
// instance per request keeps concurrent bindings from sharing state.
func ValidateAndSanitizeStruct(obj interface{}) gin.HandlerFunc {
	payloadType := reflect.TypeOf(obj).Elem()

	return func(c *gin.Context) {
		payload := reflect.New(payloadType).Interface()

		if err := c.ShouldBindJSON(payload); err != nil {
			utils.AbortWithError(c, schemas.BadRequest, http.StatusBadRequest, err)
			return
		}

		validator := utils.GetValidator()
		if err := validator.SanitizeData(payload); err != nil {
			utils.AbortWithError(c, schemas.BadRequest, http.StatusBadRequest, err)
			return
		}

		if err := validator.Validate.Struct(payload); err != nil {
			utils.AbortWithError(c, schemas.BadRequest, http.StatusBadRequest, err)
			return
		}

		c.Set(utils.SanitizedPayloadKey.String(), payload)
		c.Next()
	}
}
