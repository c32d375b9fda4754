package domain

// Page is a server-side paginated slice of a collection.
type Page[T any] struct {
	Content       []T `json:"content"`
	TotalPages    int `json:"totalPages"`
	TotalElements int `json:"totalElements"`
	Number        int `json:"number"`
	Size          int `json:"size"`
}

// EmptyPage returns a page with no content for the given size.
func EmptyPage[T any](size int) Page[T] {
	return Page[T]{Content: []T{}, Size: size}
}
