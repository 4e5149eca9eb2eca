package compound

import "testing"

func TestParseIdentifier(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    Identifier
		wantErr bool
	}{
		{name: "short key", raw: "LFQSCWFLJHTTHZ", want: "LFQSCWFLJHTTHZ"},
		{name: "full key", raw: "LFQSCWFLJHTTHZ-UHFFFAOYSA-N", want: "LFQSCWFLJHTTHZ"},
		{name: "lower case", raw: " lfqscwfljhtthz ", want: "LFQSCWFLJHTTHZ"},
		{name: "empty", raw: "   ", wantErr: true},
		{name: "too short", raw: "LFQSCW", wantErr: true},
		{name: "digits", raw: "LFQSCWFLJHTT12", wantErr: true},
		{name: "no separator", raw: "LFQSCWFLJHTTHZUHFFF", wantErr: true},
		{name: "nan cell", raw: "nan", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseIdentifier(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q, got %q", tt.raw, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseIdentifier(%q) returned error: %v", tt.raw, err)
			}
			if got != tt.want {
				t.Fatalf("ParseIdentifier(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestFromInChIKey(t *testing.T) {
	if id, ok := FromInChIKey("XLYOFNOQVPJJNP-UHFFFAOYSA-N"); !ok || id != "XLYOFNOQVPJJNP" {
		t.Fatalf("unexpected result %q %v", id, ok)
	}
	if _, ok := FromInChIKey("garbage"); ok {
		t.Fatal("expected garbage to be rejected")
	}
}
