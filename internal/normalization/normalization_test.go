package normalization

import "testing"

func TestParseInputString(t *testing.T) {
  cases := []struct {
    in   string
    want string
  }{
    {"", ""},
    {"   ", ""},
    {"hello", "hello"},
    {"  hello  ", "hello"},
    {"hello   world", "hello world"},
    {"\thello\nworld\t", "hello world"},
  }
  for _, tc := range cases {
    if got := ParseInputString(tc.in); got != tc.want {
      t.Errorf("ParseInputString(%q) = %q, want %q", tc.in, got, tc.want)
    }
  }
}

func TestParseInputStringPtr(t *testing.T) {
  if got := ParseInputStringPtr(nil); got != nil {
    t.Errorf("ParseInputStringPtr(nil) = %v, want nil", got)
  }
  s := "  spaced  out  "
  got := ParseInputStringPtr(&s)
  if got == nil || *got != "spaced out" {
    t.Errorf("ParseInputStringPtr = %v", got)
  }
  if s != "  spaced  out  " {
    t.Error("input string mutated")
  }
}
