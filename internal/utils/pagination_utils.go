// package utils provides utility functions to support various operations within the application.
package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"whisperbox/internal/schemas"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// ParsePaginationParams extracts the 'offset' and 'limit' query parameters.
// It provides default values and ensures that the returned values are sane,
// so inbox queries stay bounded no matter what the client sends.
func ParsePaginationParams(ctx *gin.Context) (int, int) {
	offset, err := strconv.Atoi(ctx.Query(OffsetParamKey))
	if err != nil || offset < 0 {
		offset = 0
	}

	limit, err := strconv.Atoi(ctx.Query(LimitParamKey))
	if err != nil || limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	return offset, limit
}

// BuildPagination assembles the pagination block returned alongside paginated records.
func BuildPagination(offset, limit, totalRecords int) schemas.Pagination {
	return schemas.Pagination{
		Offset:  offset,
		Limit:   limit,
		Records: totalRecords,
	}
}
