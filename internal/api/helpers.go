package api

import (
	"github.com/answerhubapp/answerhub-server/internal/store"
)

// MessageResponse carries a human-readable confirmation.
type MessageResponse struct {
	Message string `json:"message" doc:"Confirmation message"`
}

// MessageOutput wraps the message response for Huma.
type MessageOutput struct {
	Body MessageResponse
}

// PageQuery holds the shared pagination query parameters.
type PageQuery struct {
	Page     int `query:"page" minimum:"1" doc:"Page number, starting at 1"`
	PageSize int `query:"page_size" minimum:"1" maximum:"100" doc:"Items per page (max 100)"`
}

// toPageParams converts query parameters to store pagination.
func (p PageQuery) toPageParams() store.PageParams {
	return store.PageParams{Page: p.Page, PageSize: p.PageSize}
}

// PageMeta describes the pagination state of a listing response.
type PageMeta struct {
	Page     int  `json:"page" doc:"Current page"`
	PageSize int  `json:"page_size" doc:"Items per page"`
	Total    int  `json:"total" doc:"Total matching items"`
	HasNext  bool `json:"has_next" doc:"Whether another page exists"`
}

// pageMeta builds response metadata from normalized params and a result page.
func pageMeta[T any](params store.PageParams, page store.Paged[T]) PageMeta {
	params.Normalize()
	return PageMeta{
		Page:     params.Page,
		PageSize: params.PageSize,
		Total:    page.Total,
		HasNext:  page.HasNext,
	}
}
