package payments

import "testing"

func TestNormalizeStripeStatus(t *testing.T) {
	str := func(s string) *string { return &s }

	cases := []struct {
		in   *string
		want string
	}{
		{nil, "none"},
		{str("  "), "none"},
		{str("active"), "active"},
		{str("unpaid"), "past_due"},
		{str("incomplete_expired"), "canceled"},
		{str("incomplete"), "incomplete"},
	}
	for _, tc := range cases {
		if got := NormalizeStripeStatus(tc.in); got != tc.want {
			t.Fatalf("NormalizeStripeStatus(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
