package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/yukikurage/team-allocation-api/internal/constants"
)

func TestParsePage(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		query    string
		wantPage int
		wantSize int
	}{
		{"", 1, constants.DefaultPageSize},
		{"?page=3&limit=10", 3, 10},
		{"?page=0&limit=500", 1, constants.DefaultPageSize},
		{"?page=abc", 1, constants.DefaultPageSize},
		{"?page=2&limit=100", 2, constants.MaxPageSize},
	}
	for _, tc := range cases {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest("GET", "/api/users"+tc.query, nil)

		p := ParsePage(c)
		assert.Equal(t, tc.wantPage, p.Number, tc.query)
		assert.Equal(t, tc.wantSize, p.Size, tc.query)
	}
}

func TestDescribe(t *testing.T) {
	p := Page{Number: 2, Size: 10}

	assert.True(t, p.Describe(21).HasMore)
	assert.False(t, p.Describe(20).HasMore)

	got := p.Describe(5)
	assert.Equal(t, PaginationResponse{Page: 2, Limit: 10, Total: 5}, got)
}
