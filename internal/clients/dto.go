package clients

type AddressInput struct {
	Country    string `json:"country" validate:"required"`
	State      string `json:"state" validate:"required"`
	City       string `json:"city" validate:"required"`
	Area       string `json:"area" validate:"required"`
	PostalCode string `json:"postalCode" validate:"required,max=10"`
	Landmark   string `json:"landmark,omitempty"`
}

type CreateClientRequest struct {
	Name                  string       `json:"name" validate:"required,max=120"`
	Alias                 *string      `json:"alias,omitempty" validate:"omitempty,max=120"`
	Email                 string       `json:"email" validate:"required,email"`
	Mobile                string       `json:"mobile" validate:"required,len=10,numeric"`
	CorrespondenceAddress AddressInput `json:"correspondenceAddress" validate:"required"`
	PermanentAddress      AddressInput `json:"permanentAddress" validate:"required"`
}

type UpdateClientRequest struct {
	Name                  *string       `json:"name,omitempty" validate:"omitempty,max=120"`
	Alias                 *string       `json:"alias,omitempty" validate:"omitempty,max=120"`
	Email                 *string       `json:"email,omitempty" validate:"omitempty,email"`
	Mobile                *string       `json:"mobile,omitempty" validate:"omitempty,len=10,numeric"`
	CorrespondenceAddress *AddressInput `json:"correspondenceAddress,omitempty"`
	PermanentAddress      *AddressInput `json:"permanentAddress,omitempty"`
}

type ListClientsRequest struct {
	Search *string `json:"search,omitempty"`
	Limit  int     `json:"limit" validate:"gte=0,lte=1000"`
	Offset int     `json:"offset" validate:"gte=0"`
}
