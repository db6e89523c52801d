package model

type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
	Meta    *Meta     `json:"meta,omitempty"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Meta describes the window a list response was cut from.
type Meta struct {
	Skip  int `json:"skip"`
	Limit int `json:"limit"`
	Count int `json:"count"`
}

type ServiceInfo struct {
	Message string `json:"message"`
	Version string `json:"version"`
}

type HealthStatus struct {
	Status   string `json:"status"`
	Database string `json:"database,omitempty"`
}
