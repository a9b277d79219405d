package utils

// StringClaims reads a JSON claim that may hold one string or a list of them.
// Non-string list entries and empty strings are dropped.
func StringClaims(claim any) []string {
	switch v := claim.(type) {
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	case []string:
		return v
	case []any:
		var values []string
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				values = append(values, s)
			}
		}
		return values
	}
	return nil
}
