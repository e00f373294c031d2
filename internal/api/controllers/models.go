package controllers

// AckResponse acknowledges a fire-and-forget download trigger. Progress
// is observed via the websocket endpoint, not this response.
type AckResponse struct {
	Message string `json:"message"`
	JobID   string `json:"job_id"`
	Status  string `json:"status"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
