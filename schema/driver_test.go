package schema

import "testing"

func TestTruthy(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want bool
	}{
		{"native bool true", true, true},
		{"native bool false", false, false},
		{"int64 nonzero", int64(1), true},
		{"int64 zero", int64(0), false},
		{"int nonzero", 1, true},
		{"single nonzero byte", []byte{1}, true},
		{"single zero byte", []byte{0}, false},
		{"multi-byte slice", []byte{1, 1}, false},
		{"unrecognized type", "1", false},
		{"nil", nil, false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := Truthy(c.in); got != c.want {
				t.Errorf("Truthy(%#v) = %v, want %v", c.in, got, c.want)
			}
		})
	}
}
