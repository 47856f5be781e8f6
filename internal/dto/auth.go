package dto

// RegisterRequest creates a new account. Farm fields are optional
// profile data shown on the dashboard.
type RegisterRequest struct {
	FirstName    string `json:"firstName" binding:"required" validate:"required"`
	LastName     string `json:"lastName" binding:"required" validate:"required"`
	Email        string `json:"email" binding:"required" validate:"required,email"`
	Password     string `json:"password" binding:"required" validate:"required,min=8"`
	Phone        string `json:"phone"`
	FarmLocation string `json:"farmLocation"`
	FarmSize     string `json:"farmSize"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required" validate:"required,email"`
	Password string `json:"password" binding:"required" validate:"required"`
}

// LoginResponse carries the access token and the user's evaluated
// subscription so the UI can gate features immediately.
type LoginResponse struct {
	Token        string               `json:"token"`
	UserID       string               `json:"userId"`
	Email        string               `json:"email"`
	FirstName    string               `json:"firstName"`
	Role         string               `json:"role"`
	Subscription SubscriptionSnapshot `json:"subscription"`
}
