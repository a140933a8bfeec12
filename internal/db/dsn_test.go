package db

import "testing"

func TestNormalizeDSN(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"url passthrough", "postgres://u:p@h:5432/agro?sslmode=disable", "postgres://u:p@h:5432/agro?sslmode=disable"},
		{"quoted url", `"postgresql://u:p@h/agro"`, "postgresql://u:p@h/agro"},
		{"kv gets sslmode default", "host=localhost user=postgres dbname=agro", "host=localhost user=postgres dbname=agro sslmode=disable"},
		{"kv keeps explicit sslmode", "host=h dbname=agro sslmode=require", "host=h dbname=agro sslmode=require"},
		{"kv whitespace collapsed", "  host=h   dbname=agro  sslmode=disable ", "host=h dbname=agro sslmode=disable"},
		{"empty", "   ", ""},
		{"garbage passthrough", "not a dsn", "not a dsn"},
	}
	for _, tc := range cases {
		if got := NormalizeDSN(tc.in); got != tc.want {
			t.Errorf("%s: NormalizeDSN(%q) = %q, want %q", tc.name, tc.in, got, tc.want)
		}
	}
}
