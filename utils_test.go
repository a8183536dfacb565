package shipbook

import "testing"

func TestSanitizeJSONResponse(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"whitespace", "  {\"a\":1}\n", `{"a":1}`},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"empty", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := string(sanitizeJSONResponse([]byte(tc.in))); got != tc.want {
				t.Errorf("sanitizeJSONResponse(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
