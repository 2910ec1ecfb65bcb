package domain

const (
	// DefaultPageSize — размер страницы по умолчанию.
	DefaultPageSize = 10
	// MaxPageSize ограничивает размер страницы сверху.
	MaxPageSize = 100
)

// PageRequest — параметры постраничной выборки. Сортировка всегда по id,
// по умолчанию по убыванию.
type PageRequest struct {
	Page      int
	Size      int
	Ascending bool
}

// Normalize подставляет значения по умолчанию и ограничивает размер страницы.
func (p PageRequest) Normalize() PageRequest {
	if p.Page < 0 {
		p.Page = 0
	}
	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

// Offset возвращает число пропускаемых записей.
func (p PageRequest) Offset() int {
	p = p.Normalize()
	return p.Page * p.Size
}

// Page — страница результатов с метаданными пагинации.
type Page[T any] struct {
	Content       []T
	PageNumber    int
	PageSize      int
	TotalElements int64
	TotalPages    int
	First         bool
	Last          bool
}

// NewPage собирает страницу по содержимому и общему числу записей.
func NewPage[T any](content []T, req PageRequest, total int64) Page[T] {
	req = req.Normalize()
	if content == nil {
		content = []T{}
	}
	totalPages := int((total + int64(req.Size) - 1) / int64(req.Size))
	return Page[T]{
		Content:       content,
		PageNumber:    req.Page,
		PageSize:      req.Size,
		TotalElements: total,
		TotalPages:    totalPages,
		First:         req.Page == 0,
		Last:          req.Page+1 >= totalPages,
	}
}

// MapPage преобразует содержимое страницы, сохраняя метаданные.
func MapPage[T, U any](p Page[T], fn func(T) U) Page[U] {
	content := make([]U, 0, len(p.Content))
	for _, item := range p.Content {
		content = append(content, fn(item))
	}
	return Page[U]{
		Content:       content,
		PageNumber:    p.PageNumber,
		PageSize:      p.PageSize,
		TotalElements: p.TotalElements,
		TotalPages:    p.TotalPages,
		First:         p.First,
		Last:          p.Last,
	}
}

// Paginate режет уже отсортированный срез под запрос страницы.
func Paginate[T any](items []T, req PageRequest) Page[T] {
	req = req.Normalize()
	total := int64(len(items))
	start := req.Offset()
	if start > len(items) {
		start = len(items)
	}
	end := start + req.Size
	if end > len(items) {
		end = len(items)
	}
	content := make([]T, end-start)
	copy(content, items[start:end])
	return NewPage(content, req, total)
}
