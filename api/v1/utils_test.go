package v1

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeIPVariants(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "plain ipv4", raw: "79.144.65.173", want: "79.144.65.173"},
		{name: "ipv4 with spaces", raw: " 79.144.65.173 ", want: "79.144.65.173"},
		{name: "quoted ipv4", raw: "\"79.144.65.173\"", want: "79.144.65.173"},
		{name: "ipv4 with port", raw: "79.144.65.173:443", want: "79.144.65.173"},
		{name: "ipv6 literal", raw: "2001:db8::1", want: "2001:db8::1"},
		{name: "ipv6 with port", raw: "[2001:db8::1]:8443", want: "2001:db8::1"},
		{name: "ipv6 with zone", raw: "fe80::1%eth0", want: "fe80::1"},
		{name: "ipv4 mapped ipv6", raw: "::ffff:203.0.113.9", want: "203.0.113.9"},
		{name: "invalid value", raw: "not-an-ip", want: ""},
		{name: "empty", raw: "   ", want: ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, parsed := normalizeIP(tc.raw)
			assert.Equal(t, tc.want, got)

			if tc.want == "" {
				assert.Nil(t, parsed)
				return
			}

			require.NotNil(t, parsed)
			assert.Equal(t, tc.want, parsed.String())
		})
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{
			name:    "first x-forwarded-for entry wins",
			headers: map[string]string{"X-Forwarded-For": "203.0.113.5, 10.0.0.1"},
			want:    "203.0.113.5",
		},
		{
			name:    "private client address is kept",
			headers: map[string]string{"X-Forwarded-For": "192.168.1.20, 203.0.113.5"},
			want:    "192.168.1.20",
		},
		{
			name:    "skips garbage before the first address",
			headers: map[string]string{"X-Forwarded-For": "unknown, 198.51.100.7"},
			want:    "198.51.100.7",
		},
		{
			name:    "falls back to x-real-ip",
			headers: map[string]string{"X-Real-IP": "198.51.100.8"},
			want:    "198.51.100.8",
		},
		{
			name:    "falls back to forwarded header",
			headers: map[string]string{"Forwarded": "for=\"[2001:db8::7]:4711\";proto=https"},
			want:    "2001:db8::7",
		},
		{
			name: "unknown without forwarding headers",
			want: "unknown",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			app := fiber.New()
			var got string
			app.Get("/", func(c *fiber.Ctx) error {
				got = getClientIP(c)
				return c.SendStatus(fiber.StatusNoContent)
			})

			req := httptest.NewRequest("GET", "/", nil)
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}

			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseForwardedHeader(t *testing.T) {
	got := parseForwardedHeader("for=192.0.2.60;proto=http, For=\"198.51.100.17\"")
	assert.Equal(t, []string{"192.0.2.60", "\"198.51.100.17\""}, got)
}
