package handlers

// Response is the structured result every API caller receives: a status and
// either data or a message, never a bare error.
type Response struct {
	Status  string      `json:"status"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

func success(data interface{}) Response {
	return Response{Status: StatusSuccess, Data: data}
}

func failure(message string) Response {
	return Response{Status: StatusError, Message: message}
}
