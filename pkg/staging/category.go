package staging

import "strings"

// UnknownCategory replaces a missing category code.
const UnknownCategory = "unknown"

// TranslateCategory maps a raw category code through table. Unmapped codes are
// returned as is; a missing code becomes UnknownCategory.
func TranslateCategory(code *string, table map[string]string) string {
	if code == nil || strings.TrimSpace(*code) == "" {
		return UnknownCategory
	}
	c := strings.TrimSpace(*code)
	if name, ok := table[c]; ok && name != "" {
		return name
	}
	return c
}
