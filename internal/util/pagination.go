package util

const DefaultPageSize = 12

func Calculate(page, size int) (from, limit int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = DefaultPageSize
	}
	from = (page - 1) * size
	return from, size
}

type Page[T any] struct {
	Items  []T
	Number int
	Size   int
	Total  int
	Pages  int
}

// Paginate cuts one page out of items. A page past the end is moved back to
// the last page.
func Paginate[T any](items []T, page, size int) Page[T] {
	from, size := Calculate(page, size)
	total := len(items)
	pages := (total + size - 1) / size
	if pages == 0 {
		pages = 1
	}
	if from >= total && total > 0 {
		from = (pages - 1) * size
	}
	if from >= total {
		from = 0
	}
	to := min(from+size, total)

	return Page[T]{
		Items:  items[from:to],
		Number: from/size + 1,
		Size:   size,
		Total:  total,
		Pages:  pages,
	}
}

func (p Page[T]) HasPrev() bool { return p.Number > 1 }
func (p Page[T]) HasNext() bool { return p.Number < p.Pages }
func (p Page[T]) Prev() int     { return p.Number - 1 }
func (p Page[T]) Next() int     { return p.Number + 1 }
