package sanitizer

import "testing"

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		region string
		want   string
	}{
		{
			name:   "valid E.164 format",
			input:  "+254712345678",
			region: "KE",
			want:   "+254712345678",
		},
		{
			name:   "national format with trunk prefix",
			input:  "0712 345 678",
			region: "KE",
			want:   "+254712345678",
		},
		{
			name:   "with dashes",
			input:  "+254-712-345-678",
			region: "KE",
			want:   "+254712345678",
		},
		{
			name:   "foreign number keeps its own country code",
			input:  "+972 54 123 4567",
			region: "KE",
			want:   "+972541234567",
		},
		{
			name:   "with parentheses",
			input:  "+1 (212) 555-1234",
			region: "KE",
			want:   "+12125551234",
		},
		{
			name:   "leading and trailing spaces",
			input:  "  +254712345678  ",
			region: "KE",
			want:   "+254712345678",
		},
		{
			name:   "empty string",
			input:  "",
			region: "KE",
			want:   "",
		},
		{
			name:   "only whitespace",
			input:  "   ",
			region: "KE",
			want:   "",
		},
		{
			name:   "unparseable input is returned trimmed",
			input:  " call me ",
			region: "KE",
			want:   "call me",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizePhone(tt.input, tt.region)
			if got != tt.want {
				t.Errorf("NormalizePhone(%q, %q) = %q, want %q", tt.input, tt.region, got, tt.want)
			}
		})
	}
}

func TestNormalizePhone_Idempotent(t *testing.T) {
	once := NormalizePhone("0712 345 678", "KE")
	twice := NormalizePhone(once, "KE")
	if once != twice {
		t.Errorf("NormalizePhone is not idempotent: %q then %q", once, twice)
	}
}

func TestIsMobileNumber(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{name: "kenyan mobile", input: "+254712345678", want: true},
		{name: "kenyan mobile national format", input: "0712345678", want: true},
		{name: "nairobi landline", input: "+254202222222", want: false},
		{name: "too short", input: "12345", want: false},
		{name: "not a number", input: "call me", want: false},
		{name: "empty", input: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsMobileNumber(tt.input, "KE"); got != tt.want {
				t.Errorf("IsMobileNumber(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
