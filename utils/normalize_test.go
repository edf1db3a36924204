package utils

import (
	"strings"
	"testing"
)

func TestNormalizeTag(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Lowercase passthrough",
			input:    "golang",
			expected: "golang",
		},
		{
			name:     "Uppercase to lowercase",
			input:    "JS",
			expected: "js",
		},
		{
			name:     "Mixed case",
			input:    "JavaScript",
			expected: "javascript",
		},
		{
			name:     "Punctuation stripped",
			input:    "JavaScript!!",
			expected: "javascript",
		},
		{
			name:     "Inner whitespace to hyphen",
			input:    "machine learning",
			expected: "machine-learning",
		},
		{
			name:     "Multiple spaces collapse to one hyphen",
			input:    "machine   learning",
			expected: "machine-learning",
		},
		{
			name:     "Leading and trailing whitespace",
			input:    "  golang  ",
			expected: "golang",
		},
		{
			name:     "Ampersand preserved",
			input:    "Tips & Tricks",
			expected: "tips-&-tricks",
		},
		{
			name:     "Hyphen preserved",
			input:    "self-hosted",
			expected: "self-hosted",
		},
		{
			name:     "Leading and trailing hyphens trimmed",
			input:    "-golang-",
			expected: "golang",
		},
		{
			name:     "Digits preserved",
			input:    "Web3",
			expected: "web3",
		},
		{
			name:     "Empty input",
			input:    "",
			expected: "",
		},
		{
			name:     "Only disallowed characters",
			input:    "!!??##",
			expected: "",
		},
		{
			name:     "Only whitespace",
			input:    "   ",
			expected: "",
		},
		{
			name:     "Punctuation between words",
			input:    "node.js",
			expected: "nodejs",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NormalizeTag(tt.input)
			if result != tt.expected {
				t.Errorf("For input '%s', expected '%s', but got '%s'", tt.input, tt.expected, result)
			}
		})
	}
}

func TestNormalizeTagIdempotent(t *testing.T) {
	inputs := []string{
		"JS",
		"JavaScript!!",
		"machine   learning",
		"  Tips & Tricks  ",
		"node.js",
		"",
		strings.Repeat("a b ", 40),
	}

	for _, input := range inputs {
		once := NormalizeTag(input)
		twice := NormalizeTag(once)
		if once != twice {
			t.Errorf("Not idempotent for input '%s': first '%s', second '%s'", input, once, twice)
		}
	}
}

func TestNormalizeTagLengthCap(t *testing.T) {
	input := strings.Repeat("abcde", 20) // 100 chars
	result := NormalizeTag(input)

	if len(result) > MaxTagLength {
		t.Errorf("Expected result length <= %d, got %d", MaxTagLength, len(result))
	}

	// 截断后不能留下悬挂的连字符
	if strings.HasSuffix(result, "-") || strings.HasPrefix(result, "-") {
		t.Errorf("Truncated result has dangling hyphen: '%s'", result)
	}

	if NormalizeTag(result) != result {
		t.Errorf("Truncated result is not idempotent: '%s'", result)
	}
}
