package clients

import "time"

// Address is a postal address. Correspondence and permanent addresses share
// the same shape.
type Address struct {
	Country    string `json:"country"`
	State      string `json:"state"`
	City       string `json:"city"`
	Area       string `json:"area"`
	PostalCode string `json:"postalCode"`
	Landmark   string `json:"landmark,omitempty"`
}

// Client is a buyer account. Mobile numbers are ten digits; email and mobile
// are unique across clients.
type Client struct {
	ID                    int64     `json:"id"`
	Name                  string    `json:"name"`
	Alias                 *string   `json:"alias,omitempty"`
	Email                 string    `json:"email"`
	Mobile                string    `json:"mobile"`
	CorrespondenceAddress Address   `json:"correspondenceAddress"`
	PermanentAddress      Address   `json:"permanentAddress"`
	CreatedBy             int64     `json:"createdBy"`
	CreatedAt             time.Time `json:"createdAt"`
	UpdatedAt             time.Time `json:"updatedAt"`
}
