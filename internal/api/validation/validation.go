package validation

import "strings"

// FieldError represents a validation error on a specific field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// maxIDLength is the longest database or collection id the service accepts.
const maxIDLength = 255

// validateResourceID checks a database or collection id. Ids may not contain
// path separators or URL delimiters and may not end with a space.
func validateResourceID(field, id string, required bool) []FieldError {
	if id == "" {
		if required {
			return []FieldError{{Field: field, Message: field + " is required"}}
		}
		return nil
	}
	if len(id) > maxIDLength {
		return []FieldError{{Field: field, Message: field + " must be at most 255 characters"}}
	}
	if strings.ContainsAny(id, `/\?#`) {
		return []FieldError{{Field: field, Message: field + ` must not contain '/', '\', '?' or '#'`}}
	}
	if strings.HasSuffix(id, " ") {
		return []FieldError{{Field: field, Message: field + " must not end with a space"}}
	}
	return nil
}
