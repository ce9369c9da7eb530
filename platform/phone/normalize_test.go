package phone

import "testing"

func TestNormalizeMobile(t *testing.T) {
	cases := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"already normalized", "9876543210", "9876543210", false},
		{"formatted with country code", "+91 98765 43210", "9876543210", false},
		{"country code no separators", "919123456780", "9123456780", false},
		{"dashes and spaces", "+91-9123456780", "9123456780", false},
		{"longer than 10 keeps last 10", "0009876543210", "9876543210", false},
		{"too short", "98765", "", true},
		{"empty", "", "", true},
		{"landline prefix rejected", "0226543210", "", true},
		{"letters only", "not-a-phone", "", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NormalizeMobile(tc.in)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q, got %q", tc.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error for %q: %v", tc.in, err)
			}
			if got != tc.want {
				t.Fatalf("NormalizeMobile(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestNormalizeMobileIdempotent(t *testing.T) {
	first, err := NormalizeMobile("+91 98765 43210")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := NormalizeMobile(first)
	if err != nil {
		t.Fatalf("unexpected error on second pass: %v", err)
	}
	if second != first {
		t.Fatalf("normalization is not idempotent: %q -> %q", first, second)
	}
}

func TestE164(t *testing.T) {
	if got := E164("9876543210"); got != "+919876543210" {
		t.Fatalf("E164(9876543210) = %q, want +919876543210", got)
	}
}
