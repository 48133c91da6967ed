package tools

import "testing"

func TestValidateInstanceName(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"vendas", true},
		{"suporte-01.sp", true},
		{"", false},
		{"com espaço", false},
		{"a/b", false},
	}
	for _, tt := range tests {
		if got := ValidateInstanceName(tt.name); got != tt.want {
			t.Errorf("ValidateInstanceName(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestNormalizeGatewayURL(t *testing.T) {
	tests := []struct {
		raw    string
		want   string
		wantOK bool
	}{
		{" https://gw.example.com/ ", "https://gw.example.com", true},
		{"http://10.0.0.2:8080", "http://10.0.0.2:8080", true},
		{"ftp://gw.example.com", "ftp://gw.example.com", false},
		{"gw.example.com", "gw.example.com", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := NormalizeGatewayURL(tt.raw)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("NormalizeGatewayURL(%q) = (%q, %v), want (%q, %v)", tt.raw, got, ok, tt.want, tt.wantOK)
		}
	}
}
