package response

// Response represents a standard API response format
type Response struct {
	Status     string      `json:"status"`      // "success" or "error"
	StatusCode int         `json:"status_code"` // HTTP status code
	Data       interface{} `json:"data,omitempty"`
	Error      string      `json:"error,omitempty"`
	// Kind names the error category, e.g. "validation" or "factor_not_found".
	Kind   string   `json:"kind,omitempty"`
	Issues []string `json:"issues,omitempty"`
}

// Success returns a standard success response wrapping the data
func Success(statusCode int, data interface{}) Response {
	return Response{
		Status:     "success",
		StatusCode: statusCode,
		Data:       data,
	}
}

// Error returns a standard error response wrapping the error message
func Error(statusCode int, err string) Response {
	return Response{
		Status:     "error",
		StatusCode: statusCode,
		Error:      err,
	}
}

// Failure is an error response that also carries the error kind and any
// individual issues.
func Failure(statusCode int, kind, err string, issues []string) Response {
	r := Error(statusCode, err)
	r.Kind = kind
	r.Issues = issues
	return r
}
