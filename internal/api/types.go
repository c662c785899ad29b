package api

import "time"

type GeneratedKey struct {
	RequestId   string     `json:"requestId"`
	Key         string     `json:"key"`
	GeneratedAt *time.Time `json:"generatedAt"`
}

type ListGeneratedKeysParams struct {
	RequestId *string `form:"requestId,omitempty" json:"requestId,omitempty"`
	Limit     *int    `form:"limit,omitempty" json:"limit,omitempty"`
}

type HealthResponse struct {
	Status   string `json:"status"`
	Broker   string `json:"broker"`
	Driver   string `json:"driver,omitempty"`
	Stored   int    `json:"stored"`
	Accepted uint64 `json:"accepted"`
	Rejected uint64 `json:"rejected"`
	Error    string `json:"error,omitempty"`
}

type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
