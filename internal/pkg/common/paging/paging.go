// Package paging binds and applies page parameters for list endpoints.
package paging

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PagingQuery is bound from the page, page_size and paging query parameters.
// Paging=false returns the whole list.
type PagingQuery struct {
	Paging   bool `form:"paging,default=true" json:"paging"`
	Page     int  `form:"page,default=1" json:"page" binding:"gte=1"`
	PageSize int  `form:"page_size,default=20" json:"page_size" binding:"min=1,max=100"`
}

// Window returns the [start, end) slice bounds of the current page in a list
// of total items.
func (p PagingQuery) Window(total int) (int, int) {
	page, size := p.Page, p.PageSize
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = DefaultPageSize
	} else if size > MaxPageSize {
		size = MaxPageSize
	}
	start := min((page-1)*size, total)
	end := min(start+size, total)
	return start, end
}
