package model

import (
	"fmt"
	"regexp"
	"strings"
)

// RemoteKeyPrefix prefixes every Gravity Forms input name.
const RemoteKeyPrefix = "input_"

var numericKeyPattern = regexp.MustCompile(`^\d+(\.\d+)?$`)

// IsNumericKey reports whether key is a bare field id ("3" or "1.3").
func IsNumericKey(key string) bool {
	return numericKeyPattern.MatchString(key)
}

// RemoteKey returns the wire key for a bare id; keys that already carry the
// prefix are returned unchanged.
func RemoteKey(id string) string {
	if strings.HasPrefix(id, RemoteKeyPrefix) {
		return id
	}
	return RemoteKeyPrefix + id
}

// SubInputKey builds the remote key for a sub-input of a composite field.
func SubInputKey(fieldID int, subID int) string {
	return fmt.Sprintf("%s%d.%d", RemoteKeyPrefix, fieldID, subID)
}

// BareKey strips the remote prefix, turning "input_1.3" into "1.3".
func BareKey(key string) string {
	return strings.TrimPrefix(key, RemoteKeyPrefix)
}

// ParentID turns "input_1.3", "1.3" or "input_5" into the parent field id
// ("1" or "5"). The result is empty when key is empty.
func ParentID(key string) string {
	bare := BareKey(strings.TrimSpace(key))
	parent, _, _ := strings.Cut(bare, ".")
	return parent
}

// IsFilled reports whether v carries a submittable value: non-nil, and for
// strings non-blank after trimming.
func IsFilled(v any) bool {
	switch value := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(value) != ""
	default:
		return true
	}
}
