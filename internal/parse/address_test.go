package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAddress(t *testing.T) {
	testCases := []struct {
		name      string
		raw       string
		expected  Target
		expectErr bool
	}{
		{
			name:     "Bare IPv4",
			raw:      "192.168.4.1",
			expected: Target{Host: "192.168.4.1", Scheme: "http"},
		},
		{
			name:     "IPv4 with protocol and path",
			raw:      "http://10.0.0.7/status/now",
			expected: Target{Host: "10.0.0.7", Scheme: "http"},
		},
		{
			name:     "Domain",
			raw:      "parking.example.com",
			expected: Target{Host: "parking.example.com", Scheme: "https"},
		},
		{
			name:     "Domain with https prefix and trailing slash",
			raw:      "https://parking.example.com/",
			expected: Target{Host: "parking.example.com", Scheme: "https"},
		},
		{
			name:     "Insecure prefix on a domain still selects https",
			raw:      "http://parking.example.com",
			expected: Target{Host: "parking.example.com", Scheme: "https"},
		},
		{
			name:     "IPv4 with port is not a literal",
			raw:      "192.168.4.1:8080",
			expected: Target{Host: "192.168.4.1:8080", Scheme: "https"},
		},
		{
			name:     "Surrounding whitespace",
			raw:      "  172.16.0.2  ",
			expected: Target{Host: "172.16.0.2", Scheme: "http"},
		},
		{
			name:      "Empty",
			raw:       "",
			expectErr: true,
		},
		{
			name:      "Only a protocol",
			raw:       "https://",
			expectErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			parsed, err := ParseAddress(tc.raw)
			if tc.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tc.expected, parsed)
			}
		})
	}
}

func TestIsIPv4Literal(t *testing.T) {
	assert.True(t, IsIPv4Literal("1.2.3.4"))
	assert.True(t, IsIPv4Literal("999.999.999.999"))
	assert.False(t, IsIPv4Literal("1.2.3"))
	assert.False(t, IsIPv4Literal("1.2.3.4.5"))
	assert.False(t, IsIPv4Literal("a.b.c.d"))
	assert.False(t, IsIPv4Literal("1.2.3.4:80"))
}

func TestTargetURL(t *testing.T) {
	assert.Equal(t, "http://1.2.3.4/", Target{Host: "1.2.3.4", Scheme: SchemeHTTP}.URL())
}
