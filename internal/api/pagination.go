package api

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const maxPageSize = 100

// pageParams reads page-number pagination from the query string: `page`
// (1-based) and `limit` (page size, capped).
func pageParams(c *gin.Context, defaultLimit int) (page, limit int) {
	page = 1
	if v, err := strconv.Atoi(c.Query("page")); err == nil && v > 0 {
		page = v
	}

	limit = defaultLimit
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 {
		limit = v
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return page, limit
}
