package validation

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"task_tracker/internal/apierror"
)

// DisallowedFields returns the keys of body that are not in allowed, sorted.
func DisallowedFields(body map[string]any, allowed []string) []string {
	var invalid []string
	for key := range body {
		if !slices.Contains(allowed, key) {
			invalid = append(invalid, key)
		}
	}
	sort.Strings(invalid)
	return invalid
}

// FilterFields rejects body when it carries keys outside allowed. The
// returned map holds the allowed keys with non-null values.
func FilterFields(body map[string]any, allowed []string) (map[string]any, *apierror.Error) {
	if invalid := DisallowedFields(body, allowed); len(invalid) > 0 {
		msg := fmt.Sprintf("Invalid fields: %s. Allowed fields: %s",
			strings.Join(invalid, ", "), strings.Join(allowed, ", "))
		return nil, apierror.BadRequest(msg, map[string][]string{
			"invalidFields": invalid,
			"allowedFields": allowed,
		})
	}

	out := make(map[string]any, len(body))
	for key, value := range body {
		if value != nil {
			out[key] = value
		}
	}
	return out, nil
}
