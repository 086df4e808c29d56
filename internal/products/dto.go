package products

import "github.com/orderdesk/orderdesk/internal/finance"

type CreateProductRequest struct {
	Name        string       `json:"name" validate:"required,max=120"`
	Description *string      `json:"description,omitempty" validate:"omitempty,max=500"`
	Unit        finance.Unit `json:"unit" validate:"required"`
	RatePrice   float64      `json:"ratePrice" validate:"required,gte=0"`
	CashRate    *float64     `json:"cashRate,omitempty" validate:"omitempty,gte=0"`
}

type UpdateProductRequest struct {
	Name        *string       `json:"name,omitempty" validate:"omitempty,max=120"`
	Description *string       `json:"description,omitempty" validate:"omitempty,max=500"`
	Unit        *finance.Unit `json:"unit,omitempty"`
	RatePrice   *float64      `json:"ratePrice,omitempty" validate:"omitempty,gte=0"`
	CashRate    *float64      `json:"cashRate,omitempty" validate:"omitempty,gte=0"`
}

type ListProductsRequest struct {
	Search *string `json:"search,omitempty"`
	Limit  int     `json:"limit" validate:"gte=0,lte=1000"`
	Offset int     `json:"offset" validate:"gte=0"`
}
