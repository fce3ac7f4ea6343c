package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		query string
		want  Params
	}{
		{"", Params{Page: 1, Limit: 20, Offset: 0}},
		{"?page=3&limit=10", Params{Page: 3, Limit: 10, Offset: 20}},
		{"?page=0&limit=0", Params{Page: 1, Limit: 20, Offset: 0}},
		{"?page=abc&limit=500", Params{Page: 1, Limit: 100, Offset: 0}},
	}
	for _, tc := range tests {
		t.Run(tc.query, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest("GET", "/"+tc.query, nil)
			assert.Equal(t, tc.want, Parse(c))
		})
	}
}

func TestWrap(t *testing.T) {
	p := New(2, 10)
	page := p.Wrap([]string{"a"}, 21)
	assert.Equal(t, int64(3), page.TotalPages)
	assert.Equal(t, 2, page.Page)

	assert.Equal(t, int64(0), New(1, 10).Wrap(nil, 0).TotalPages)
}
