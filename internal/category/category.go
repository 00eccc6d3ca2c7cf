package category

import "strings"

// Category is a label the caller has already used on at least one record.
type Category struct {
	Name  string
	Count int64
}

// IsBlank reports whether the label is only whitespace.
func (c *Category) IsBlank() bool {
	return strings.TrimSpace(c.Name) == ""
}

func (c *Category) ToResponse() CategoryResponse {
	return CategoryResponse{
		Name:  c.Name,
		Count: c.Count,
	}
}
