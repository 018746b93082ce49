package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/team-allocation-api/internal/constants"
)

// Page is the window a list endpoint was asked for
type Page struct {
	Number int
	Size   int
}

// PaginationResponse represents the pagination metadata in API responses
type PaginationResponse struct {
	Page    int   `json:"page"`
	Limit   int   `json:"limit"`
	Total   int64 `json:"total"`
	HasMore bool  `json:"has_more"`
}

// ParsePage reads page and limit from the query string. Values out of range
// fall back to the first page and the default size.
func ParsePage(c *gin.Context) Page {
	number, err := strconv.Atoi(c.Query("page"))
	if err != nil || number < 1 {
		number = 1
	}
	size, err := strconv.Atoi(c.Query("limit"))
	if err != nil || size < constants.MinPageSize || size > constants.MaxPageSize {
		size = constants.DefaultPageSize
	}
	return Page{Number: number, Size: size}
}

// Describe builds the response metadata for this page out of total rows
func (p Page) Describe(total int64) PaginationResponse {
	return PaginationResponse{
		Page:    p.Number,
		Limit:   p.Size,
		Total:   total,
		HasMore: int64(p.Number)*int64(p.Size) < total,
	}
}
