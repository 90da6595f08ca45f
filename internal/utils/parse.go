package utils

import "strconv"

// ParseBoolPtr parses a string as a bool and returns a pointer to the
// result, or nil when the string is empty or not a valid bool. Useful for
// tri-state query parameters (unset / true / false).
//
// Example:
//
//	b := utils.ParseBoolPtr("true") // -> *true
//	b = utils.ParseBoolPtr("")      // -> nil
//	b = utils.ParseBoolPtr("maybe") // -> nil
func ParseBoolPtr(s string) *bool {
	if s == "" {
		return nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return nil
	}
	return &b
}
