package secrets

import (
	"regexp"
	"strings"
)

// Pattern defines a credential detection pattern.
type Pattern struct {
	Name  string
	Regex *regexp.Regexp
	// SecretGroup, when set, is the submatch holding the secret value. Matches
	// whose value is a placeholder are not reported.
	SecretGroup int
}

// DefaultPatterns returns credential shapes that commonly end up pasted into
// pipeline or IaC questions.
func DefaultPatterns() []Pattern {
	return []Pattern{
		{Name: "AWS Access Key", Regex: regexp.MustCompile(`\b(?:AKIA|ASIA)[0-9A-Z]{16}\b`)},
		{Name: "AWS Secret Key", Regex: regexp.MustCompile(`(?i)aws_secret_access_key\s*[=:]\s*["']?[A-Za-z0-9/+=]{40}`)},
		{Name: "Google API Key", Regex: regexp.MustCompile(`AIza[0-9A-Za-z\-_]{35}`)},
		{Name: "GCP Service Account Key", Regex: regexp.MustCompile(`"private_key":\s*"-----BEGIN`)},
		{Name: "GitHub Token", Regex: regexp.MustCompile(`gh[pousr]_[A-Za-z0-9_]{36,}`)},
		{Name: "GitLab Token", Regex: regexp.MustCompile(`glpat-[A-Za-z0-9\-_]{20,}`)},
		{Name: "Slack Token", Regex: regexp.MustCompile(`xox[baprs]-[A-Za-z0-9-]{10,}`)},
		{Name: "Private Key", Regex: regexp.MustCompile(`-----BEGIN (?:RSA |EC |DSA |OPENSSH )?PRIVATE KEY-----`)},
		{
			Name:        "Connection String",
			Regex:       regexp.MustCompile(`(?:postgres(?:ql)?|mysql|mongodb(?:\+srv)?|redis|amqp)://[^\s:@/]+:([^\s@/]+)@[^\s]+`),
			SecretGroup: 1,
		},
	}
}

var placeholderWords = map[string]bool{
	"changeme": true, "change_me": true, "change-me": true,
	"password": true, "passwd": true, "pass": true, "pwd": true,
	"secret": true, "example": true, "test": true, "dummy": true,
	"placeholder": true, "redacted": true, "your_password": true,
	"yourpassword": true, "mypassword": true,
}

// isPlaceholder reports whether v is a stand-in rather than a real secret:
// a well-known dummy word, a template reference, or a masked value.
func isPlaceholder(v string) bool {
	if placeholderWords[strings.ToLower(v)] {
		return true
	}
	for _, marker := range []string{"${", "{{", "$(", "%(", "<"} {
		if strings.Contains(v, marker) {
			return true
		}
	}
	if strings.HasPrefix(v, "$") {
		return true
	}
	return strings.Trim(strings.ToLower(v), "x*.") == ""
}
