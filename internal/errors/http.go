package errors

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// HTTPErrorResponse represents the structure of error responses sent to clients
type HTTPErrorResponse struct {
	Error   ErrorInfo              `json:"error"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// ErrorInfo contains the core error information
type ErrorInfo struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
	Output  string    `json:"output,omitempty"`
}

// ToResponse converts any error into a status code and response body
func ToResponse(err error) (int, HTTPErrorResponse) {
	if ce, ok := As(err); ok {
		details := ce.Details
		if details == "" && ce.Cause != nil {
			details = ce.Cause.Error()
		}
		return ce.GetHTTPStatus(), HTTPErrorResponse{
			Error: ErrorInfo{
				Code:    ce.Code,
				Message: ce.Message,
				Details: details,
				Output:  ce.Output,
			},
			Context: ce.Context,
		}
	}

	if he, ok := err.(*echo.HTTPError); ok {
		return he.Code, HTTPErrorResponse{
			Error: ErrorInfo{
				Code:    ErrInternal,
				Message: http.StatusText(he.Code),
				Details: errorMessage(he.Message),
			},
		}
	}

	return http.StatusInternalServerError, HTTPErrorResponse{
		Error: ErrorInfo{
			Code:    ErrInternal,
			Message: "Internal server error",
			Details: err.Error(),
		},
	}
}

func errorMessage(m interface{}) string {
	switch v := m.(type) {
	case string:
		return v
	case error:
		return v.Error()
	default:
		return ""
	}
}
