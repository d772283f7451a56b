package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func contextWithQuery(t *testing.T, query string) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/?"+query, nil)
	return c
}

func TestParse(t *testing.T) {
	t.Run("defaults when absent", func(t *testing.T) {
		p := Parse(contextWithQuery(t, ""))
		assert.Equal(t, DefaultPage, p.Page)
		assert.Equal(t, DefaultLimit, p.Limit)
		assert.Equal(t, 0, p.Offset)
	})

	t.Run("explicit values", func(t *testing.T) {
		p := Parse(contextWithQuery(t, "page=3&limit=25"))
		assert.Equal(t, 3, p.Page)
		assert.Equal(t, 25, p.Limit)
		assert.Equal(t, 50, p.Offset)
	})

	t.Run("limit clamped to maximum", func(t *testing.T) {
		p := Parse(contextWithQuery(t, "limit=5000"))
		assert.Equal(t, MaxLimit, p.Limit)
	})

	t.Run("invalid values fall back to defaults", func(t *testing.T) {
		p := Parse(contextWithQuery(t, "page=-1&limit=0"))
		assert.Equal(t, DefaultPage, p.Page)
		assert.Equal(t, DefaultLimit, p.Limit)
	})
}
