package suborders

type UpdateStatusRequest struct {
	Status Status `json:"status" validate:"required"`
}

type BulkUpdateStatusRequest struct {
	IDs    []int64 `json:"ids" validate:"required,min=1,dive,gt=0"`
	Status Status  `json:"status" validate:"required"`
}

type ListSubOrdersRequest struct {
	OrderID *int64  `json:"orderId,omitempty"`
	Status  *Status `json:"status,omitempty"`
	Limit   int     `json:"limit" validate:"gte=0,lte=1000"`
	Offset  int     `json:"offset" validate:"gte=0"`
}
