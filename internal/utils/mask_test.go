package utils

import "testing"

func TestMaskKey(t *testing.T) {
  cases := []struct {
    name string
    key  string
    want string
  }{
    {"empty", "", ""},
    {"short", "abcd", "********"},
    {"typical", "sk-proj-1234567890abcdef", "********cdef"},
    {"five chars", "abcde", "********bcde"},
  }
  for _, tc := range cases {
    if got := MaskKey(tc.key); got != tc.want {
      t.Errorf("%s: MaskKey(%q) = %q, want %q", tc.name, tc.key, got, tc.want)
    }
  }
}

func TestIsValidUUID(t *testing.T) {
  valid := []string{
    "6ba7b810-9dad-11d1-80b4-00c04fd430c8",
    "6BA7B810-9DAD-11D1-80B4-00C04FD430C8",
  }
  for _, s := range valid {
    if !IsValidUUID(s) {
      t.Errorf("IsValidUUID(%q) = false, want true", s)
    }
  }
  invalid := []string{"", "default", "loading-6ba7b810", "6ba7b810-9dad-11d1-80b4"}
  for _, s := range invalid {
    if IsValidUUID(s) {
      t.Errorf("IsValidUUID(%q) = true, want false", s)
    }
  }
}
