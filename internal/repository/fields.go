package repository

import "time"

func stringField(data map[string]any, key string) string {
	s, _ := data[key].(string)
	return s
}

// timeField accepts native timestamps and the RFC 3339 strings the SQL
// backends hand back.
func timeField(data map[string]any, key string) (time.Time, bool) {
	switch v := data[key].(type) {
	case time.Time:
		return v, true
	case string:
		ts, err := time.Parse(time.RFC3339Nano, v)
		return ts, err == nil
	}
	return time.Time{}, false
}
