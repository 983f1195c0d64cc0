package pagination

import "testing"

func TestClampPageSize(t *testing.T) {
	t.Parallel()

	cfg := PageSizeConfig{Default: 20, Max: 100}
	tests := []struct {
		in   int32
		want int
	}{
		{0, 20},
		{-5, 20},
		{7, 7},
		{500, 100},
	}
	for _, tc := range tests {
		if got := ClampPageSize(tc.in, cfg); got != tc.want {
			t.Fatalf("ClampPageSize(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
	if got := ClampPageSize(0, PageSizeConfig{}); got != 1 {
		t.Fatalf("ClampPageSize with empty config = %d, want 1", got)
	}
}

func TestSequenceTokenRoundTrip(t *testing.T) {
	t.Parallel()

	token := SequenceToken(42)
	seq, err := ParseSequenceToken(token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if seq != 42 {
		t.Fatalf("seq = %d, want 42", seq)
	}
	if SequenceToken(0) != "" {
		t.Fatal("expected empty token for zero sequence")
	}
	if seq, err := ParseSequenceToken(""); err != nil || seq != 0 {
		t.Fatalf("empty token = %d, %v", seq, err)
	}
	if _, err := ParseSequenceToken("abc"); err == nil {
		t.Fatal("expected invalid token error")
	}
}
