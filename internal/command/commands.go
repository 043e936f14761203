package command

// Cart Commands
type AddToCart struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type UpdateQuantity struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type RemoveFromCart struct {
	ProductID string `json:"product_id"`
}

type ClearCart struct{}

// Order Commands
type PlaceOrder struct{}

// Account Commands
type SignIn struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignUp struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

type SignOut struct{}

type UpdateProfile struct {
	DisplayName string `json:"display_name"`
	Phone       string `json:"phone"`
	DateOfBirth string `json:"date_of_birth"`
	Address     string `json:"address"`
	Bio         string `json:"bio"`
	Occupation  string `json:"occupation"`
	Website     string `json:"website"`
}

// Store Locator Commands
type FindStores struct {
	Address      string `json:"address"`
	RadiusMeters uint   `json:"radius_meters"`
	Keyword      string `json:"keyword"`
}
