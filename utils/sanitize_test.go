package utils

import (
	"strings"
	"testing"
)

func TestSanitizeAPIKey(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "Empty key", input: "", expected: "未设置"},
		{name: "Short key fully masked", input: "abcd", expected: "***"},
		{name: "Long key shows last 4", input: "sk-1234567890abcdef", expected: "***cdef"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SanitizeAPIKey(tt.input)
			if result != tt.expected {
				t.Errorf("For input '%s', expected '%s', but got '%s'", tt.input, tt.expected, result)
			}
		})
	}
}

func TestSanitizeURL(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		contains    []string
		notContains []string
	}{
		{
			name:        "Token value masked",
			input:       "/api/tags?token=secret123",
			contains:    []string{"token=%2A%2A%2A"},
			notContains: []string{"secret123"},
		},
		{
			name:        "Multiple sensitive params",
			input:       "https://example.com/cb?api_key=abc&password=hunter2&page=3",
			contains:    []string{"page=3"},
			notContains: []string{"abc", "hunter2"},
		},
		{
			name:     "No sensitive params untouched",
			input:    "/api/tags?limit=10",
			contains: []string{"limit=10"},
		},
		{
			name:     "No query string untouched",
			input:    "/health",
			contains: []string{"/health"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SanitizeURL(tt.input)
			for _, want := range tt.contains {
				if !strings.Contains(result, want) {
					t.Errorf("Expected '%s' to contain '%s'", result, want)
				}
			}
			for _, secret := range tt.notContains {
				if strings.Contains(result, secret) {
					t.Errorf("Expected '%s' to not contain '%s'", result, secret)
				}
			}
		})
	}
}
