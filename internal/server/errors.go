package server

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse represents a structured error response
type ErrorResponse struct {
	Error      string `json:"error"`
	Code       string `json:"code,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError sends a structured error response
func respondError(w http.ResponseWriter, status int, message, code string) {
	respondJSON(w, status, ErrorResponse{
		Error:      message,
		Code:       code,
		Suggestion: getErrorSuggestion(code),
	})
}

// getErrorSuggestion returns a user-friendly suggestion based on error code
func getErrorSuggestion(code string) string {
	suggestions := map[string]string{
		"missing_file":        "Attach the file under the multipart field named \"file\".",
		"missing_tags":        "Provide at least one tag. A file with no tags is deleted.",
		"invalid_tag":         "Tags may use letters, digits and parentheses, with -, _ and ' only between two such characters.",
		"invalid_hash":        "The hash must be the full lowercase hex digest returned at upload time.",
		"file_not_found":      "No file with this hash is indexed. It may have been removed.",
		"tag_not_found":       "This tag has never been used.",
		"invalid_query":       "Check brackets and modifiers: [ ] must balance and - or ~ must be followed by a term.",
		"upload_failed":       "The file could not be stored. Check disk space and store permissions.",
		"rate_limit_exceeded": "Too many requests from this address. Slow down and retry.",
	}

	if suggestion, ok := suggestions[code]; ok {
		return suggestion
	}

	return "If the problem persists, check the application logs for more details."
}
