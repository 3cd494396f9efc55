package api

// LoginResponse is returned by a successful login.
type LoginResponse struct {
	Message  string `json:"message"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

// RegisterResponse is returned when an account is created.
type RegisterResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type UsernameResponse struct {
	Username string `json:"username"`
}
