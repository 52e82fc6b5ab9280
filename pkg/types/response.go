package types

// ErrorResponse is the uniform error wire shape: {"error": "<message>"}.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse acknowledges destructive operations.
type StatusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
