package models

// StandardResponse is the uniform success envelope. Code 0 means success.
type StandardResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	TraceID string `json:"trace_id,omitempty"`
}

// ErrorResponse is the uniform error envelope. Code is nonzero.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Detail  any    `json:"detail,omitempty"`
	TraceID string `json:"trace_id,omitempty"`
}

// Account is the user view returned by login.
type Account struct {
	Name     string   `json:"name"`
	Username string   `json:"username"`
	Token    string   `json:"token"`
	Groups   []string `json:"groups"`
}
