package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestParse(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		query string
		want  Params
	}{
		{"", Params{Page: 1, Limit: DefaultLimit, Offset: 0}},
		{"page=3&limit=10", Params{Page: 3, Limit: 10, Offset: 20}},
		{"page=0&limit=0", Params{Page: 1, Limit: DefaultLimit, Offset: 0}},
		{"page=2&limit=500", Params{Page: 2, Limit: MaxLimit, Offset: MaxLimit}},
		{"page=abc", Params{Page: 1, Limit: DefaultLimit, Offset: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest("GET", "/?"+tt.query, nil)
			assert.Equal(t, tt.want, Parse(c))
		})
	}
}

func TestNew(t *testing.T) {
	assert.Equal(t, Params{}, New(3, 0), "no limit means no paging")
	assert.Equal(t, Params{}, New(1, -5))
	assert.Equal(t, Params{Page: 1, Limit: 10, Offset: 0}, New(0, 10))
	assert.Equal(t, Params{Page: 4, Limit: 25, Offset: 75}, New(4, 25))
	assert.Equal(t, Params{Page: 2, Limit: MaxLimit, Offset: MaxLimit}, New(2, 1000))
}

type row struct {
	ID   int
	Name string
}

func TestApply(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{DryRun: true})
	require.NoError(t, err)

	var rows []row
	stmt := New(3, 10).Apply(db.Model(&row{})).Find(&rows).Statement
	assert.Contains(t, stmt.SQL.String(), "LIMIT 10 OFFSET 20")

	stmt = New(3, 0).Apply(db.Model(&row{})).Find(&rows).Statement
	assert.NotContains(t, stmt.SQL.String(), "LIMIT")
}
