package utils

import (
  "regexp"
  "strings"
)

var uuidShape = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// IsValidUUID reports whether s looks like a UUID. Used to guard message
// writes against placeholder conversation ids such as "default".
func IsValidUUID(s string) bool {
  return uuidShape.MatchString(strings.ToLower(s))
}

// MaskKey renders key material safe for display: a fixed-width mask plus the
// last four characters. Short keys are masked entirely.
func MaskKey(key string) string {
  if key == "" {
    return ""
  }
  if len(key) <= 4 {
    return strings.Repeat("*", 8)
  }
  return strings.Repeat("*", 8) + key[len(key)-4:]
}
