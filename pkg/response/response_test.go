package response

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSuccessWithPagination(t *testing.T) {
	resp := SuccessWithPagination(200, []string{"a", "b"}, 2, 2, 5)

	assert.Equal(t, "success", resp.Status)
	data, ok := resp.Data.(PaginatedData)
	assert.True(t, ok)
	assert.Equal(t, int64(3), data.Pagination.TotalPages)
	assert.Equal(t, 2, data.Pagination.Page)
}

func TestErrorWithDetails(t *testing.T) {
	resp := ErrorWithDetails(400, "blocked", map[string]int{"pendingCount": 1})

	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, 400, resp.StatusCode)
	assert.Equal(t, "blocked", resp.Error)
	assert.NotNil(t, resp.Details)
}
