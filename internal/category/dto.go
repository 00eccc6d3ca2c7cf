package category

type CategoryResponse struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

type CategoriesResponse struct {
	Categories []CategoryResponse `json:"categories"`
}
