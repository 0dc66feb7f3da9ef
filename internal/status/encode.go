// internal/status/encode.go
package status

import (
	"strconv"
	"strings"
)

// Encode converts a Snapshot into the fields of the status hash.
// No IO. No side effects.
func Encode(s Snapshot) map[string]string {
	fields := map[string]string{
		FieldHealth:         strconv.FormatUint(uint64(s.Health), 10),
		FieldLastErrorCode:  strconv.FormatUint(uint64(s.LastErrorCode), 10),
		FieldLastError:      s.LastError,
		FieldSecondsInError: strconv.FormatUint(uint64(s.SecondsInError), 10),
		FieldLastSuccess:    "0",
	}
	if !s.LastSuccess.IsZero() {
		fields[FieldLastSuccess] = strconv.FormatInt(s.LastSuccess.UnixMilli(), 10)
	}
	if s.Model != "" {
		fields[FieldModel] = sanitizeModel(s.Model)
	}
	return fields
}

// sanitizeModel trims NUL padding and keeps printable ASCII only.
func sanitizeModel(m string) string {
	m = strings.TrimRight(m, "\x00 ")

	b := []byte(m)
	if len(b) > ModelMaxChars {
		b = b[:ModelMaxChars]
	}
	for i := 0; i < len(b); i++ {
		if b[i] < 0x20 || b[i] > 0x7E {
			b[i] = '?'
		}
	}
	return string(b)
}
