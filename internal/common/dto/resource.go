package dto

// ListQuery selects a page of records, optionally under one parent
type ListQuery struct {
	ParentID *uint `form:"parentId"`
	Page     int   `form:"page" binding:"gte=0"`
	PageSize int   `form:"pageSize" binding:"gte=0,lte=100"`
}

// ListResponse is one page of records
type ListResponse[T any] struct {
	Items    []*T  `json:"items"`
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"pageSize"`
}

// StatusRequest sets the active flag; an empty body toggles it
type StatusRequest struct {
	Status *bool `json:"status"`
}
