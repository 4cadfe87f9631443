package api

import "github.com/satriahrh/lingua/usecase"

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// HealthResponse is returned by the health check
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Storage string `json:"storage,omitempty"`
}

// CreateConversationRequest is the body of POST /conversations
type CreateConversationRequest struct {
	Title    string `json:"title" form:"title"`
	Language string `json:"language" form:"language"`
}

// UpdateConversationRequest is the body of PATCH /conversations/:id
type UpdateConversationRequest = usecase.ConversationUpdate

// TurnBody is the JSON form of a chat turn. Files are sent as multipart.
type TurnBody struct {
	Text     string `json:"text"`
	ImageURL string `json:"image_url"`
	Language string `json:"language"`
}

// ImageStatusResponse is returned by GET /image-status/:task_id
type ImageStatusResponse struct {
	TaskID   string `json:"task_id"`
	Status   string `json:"status"`
	ImageURL string `json:"image_url,omitempty"`
	Error    string `json:"error,omitempty"`
}
