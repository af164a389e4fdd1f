package web

const apiVersion = "1.0"

// Google JSON API style response structures
type APIResponse struct {
	APIVersion string        `json:"apiVersion"`
	Data       any           `json:"data,omitempty"`
	Error      *APIErrorInfo `json:"error,omitempty"`
}

type APIErrorInfo struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func NewDataResponse(data any) APIResponse {
	return APIResponse{
		APIVersion: apiVersion,
		Data:       data,
	}
}

func NewErrorResponse(code int, message string) APIResponse {
	return APIResponse{
		APIVersion: apiVersion,
		Error: &APIErrorInfo{
			Code:    code,
			Message: message,
		},
	}
}
