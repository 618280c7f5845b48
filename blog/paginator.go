// blog/paginator.go
package blog

// Page describes one page of an ordered result set. Numbers are 1-indexed.
type Page struct {
	Number     int
	PerPage    int
	Total      int
	TotalPages int
}

// NewPage clamps the requested page number into range: below range means
// the first page, above range the last. An empty result set still has a
// single, empty page.
func NewPage(total, requested, perPage int) Page {
	if perPage < 1 {
		perPage = 1
	}
	totalPages := (total + perPage - 1) / perPage
	if totalPages < 1 {
		totalPages = 1
	}
	if requested < 1 {
		requested = 1
	}
	if requested > totalPages {
		requested = totalPages
	}
	return Page{
		Number:     requested,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
	}
}

func (p Page) HasNext() bool { return p.Number < p.TotalPages }

func (p Page) HasPrev() bool { return p.Number > 1 }

func (p Page) NextNumber() int { return p.Number + 1 }

func (p Page) PrevNumber() int { return p.Number - 1 }

// Offset is the number of items to skip to reach this page.
func (p Page) Offset() int { return (p.Number - 1) * p.PerPage }
