package dto

type ErrorDetail struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// ErrorResponse carries one error; Details lists every violation of a rejected payload.
type ErrorResponse struct {
	Error   ErrorDetail   `json:"error"`
	Details []ErrorDetail `json:"details,omitempty"`
}

type TokenRequest struct {
	Username string `json:"username"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
