package checksum

import "testing"

func TestSum(t *testing.T) {
	// sha256("abc")
	want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got := Sum([]byte("abc")); got != want {
		t.Errorf("Sum = %q, want %q", got, want)
	}
}

func TestMatch(t *testing.T) {
	rev := Sum([]byte("v1"))
	tests := []struct {
		tag  string
		want bool
	}{
		{"", true},
		{"*", true},
		{rev, true},
		{`"` + rev + `"`, true},
		{`W/"` + rev + `"`, true},
		{Sum([]byte("v2")), false},
		{`"`, false},
	}
	for _, tt := range tests {
		if got := Match(tt.tag, rev); got != tt.want {
			t.Errorf("Match(%q) = %v, want %v", tt.tag, got, tt.want)
		}
	}
}
