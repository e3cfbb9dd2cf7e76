package transport

import "testing"

func TestEndpoint(t *testing.T) {
	tests := []struct {
		base     string
		token    string
		expected string
		wantErr  bool
	}{
		{"https://birdr.pro", "abc", "wss://birdr.pro/mpg/abc", false},
		{"http://127.0.0.1:8050", "abc", "ws://127.0.0.1:8050/mpg/abc", false},
		{"https://birdr.pro/", "abc", "wss://birdr.pro/mpg/abc", false},
		{"https://example.com/birdr/", "abc", "wss://example.com/birdr/mpg/abc", false},
		{"HTTPS://birdr.pro", "abc", "wss://birdr.pro/mpg/abc", false},
		{"https://birdr.pro?x=1", "abc", "wss://birdr.pro/mpg/abc", false},
		{"https://birdr.pro", "a b/c", "wss://birdr.pro/mpg/a%20b%2Fc", false},
		{"ftp://birdr.pro", "abc", "", true},
		{"birdr.pro", "abc", "", true},
		{"https://birdr.pro", "", "", true},
	}

	for _, test := range tests {
		got, err := Endpoint(test.base, test.token)
		if test.wantErr {
			if err == nil {
				t.Errorf("expected an error for base %s token %q but got %s", test.base, test.token, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("unexpected error for base %s: %v", test.base, err)
			continue
		}
		if got != test.expected {
			t.Errorf("expected %s but got %s", test.expected, got)
		}
	}
}
