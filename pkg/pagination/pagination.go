package pagination

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
	MinLimit     = 1
)

// Params holds validated pagination parameters. A zero Limit means the
// query is not paged.
type Params struct {
	Page   int
	Limit  int
	Offset int
}

// New normalises page and limit for a repository query. Non-positive
// limits disable paging; larger ones are capped at MaxLimit.
func New(page, limit int) Params {
	if limit <= 0 {
		return Params{}
	}
	if page < 1 {
		page = DefaultPage
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Params{Page: page, Limit: limit, Offset: (page - 1) * limit}
}

// Parse extracts and validates page/limit from query parameters
func Parse(c *gin.Context) Params {
	page, _ := strconv.Atoi(c.DefaultQuery("page", strconv.Itoa(DefaultPage)))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(DefaultLimit)))

	if limit < MinLimit {
		limit = DefaultLimit
	}
	return New(page, limit)
}

// Apply pages db with the offset and limit.
func (p Params) Apply(db *gorm.DB) *gorm.DB {
	if p.Limit <= 0 {
		return db
	}
	return db.Offset(p.Offset).Limit(p.Limit)
}
