package validate

import (
	"strings"
	"testing"
)

func TestPlaybook(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		wantValid   bool
		wantContain string
	}{
		{
			name:      "valid fenced yaml",
			text:      "Here you go:\n```yaml\n- hosts: all\n  tasks:\n    - name: ping\n      ansible.builtin.ping:\n```\nDone.",
			wantValid: true,
		},
		{
			name:      "yml tag",
			text:      "```yml\n- hosts: web\n```",
			wantValid: true,
		},
		{
			name:        "broken fenced yaml",
			text:        "```yaml\n- hosts: all\n  tasks: [unclosed\n```",
			wantValid:   false,
			wantContain: "Warning: YAML syntax issue - ",
		},
		{
			name:        "multi document with a broken second doc",
			text:        "```yaml\n---\n- hosts: all\n---\nkey: [unclosed\n```",
			wantValid:   false,
			wantContain: "Warning: YAML syntax issue - ",
		},
		{
			name:      "no block and no marker is not parsed",
			text:      "I could not produce a playbook: {[ unbalanced",
			wantValid: true,
		},
		{
			name:      "bare document with marker",
			text:      "---\n- hosts: db\n  become: true\n",
			wantValid: true,
		},
		{
			name:        "bare broken document with marker",
			text:        "---\nhosts: [a\n",
			wantValid:   false,
			wantContain: "Warning: YAML syntax issue - ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Playbook(tt.text)
			if tt.wantValid && got != ValidYAML {
				t.Errorf("expected %q, got %q", ValidYAML, got)
			}
			if !tt.wantValid && !strings.HasPrefix(got, tt.wantContain) {
				t.Errorf("expected prefix %q, got %q", tt.wantContain, got)
			}
		})
	}
}

func TestConfig(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"hcl block with resource", "```hcl\nresource \"aws_vpc\" \"main\" {\n  cidr_block = \"10.0.0.0/16\"\n}\n```", ValidHCL},
		{"terraform tag with provider", "```terraform\nprovider \"google\" {}\n```", ValidHCL},
		{"tf tag with terraform block", "```tf\nterraform {\n}\n```", ValidHCL},
		{"untagged block", "```\n  resource \"x\" \"y\" {}\n```", ValidHCL},
		{"block without keywords", "```hcl\nvariable \"region\" {}\noutput \"id\" { value = 1 }\n```", HCLWarning},
		{"no block, keywords in text", "resource \"aws_s3_bucket\" \"b\" {}", ValidHCL},
		{"no block, prose only", "Sorry, I cannot help with that.", HCLWarning},
		{"keyword mid-line does not count", "```hcl\nlocals { note = \"a resource here\" }\n```", HCLWarning},
		{"hcl block preferred over earlier bash block", "```bash\nterraform init\n```\n```hcl\nvariable \"a\" {}\n```", HCLWarning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Config(tt.text); got != tt.want {
				t.Errorf("Config() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFallbacks(t *testing.T) {
	if got := PlaybookOrFallback("  \n"); got != FallbackPlaybook {
		t.Errorf("expected fallback playbook, got %q", got)
	}
	if Playbook(FallbackPlaybook) != ValidYAML {
		t.Errorf("fallback playbook must validate, got %q", Playbook(FallbackPlaybook))
	}
	if got := PlaybookOrFallback("x"); got != "x" {
		t.Errorf("non-empty output must be kept, got %q", got)
	}

	if got := ConfigOrFallback(""); got != FallbackConfig {
		t.Errorf("expected fallback config, got %q", got)
	}
	if Config(FallbackConfig) != ValidHCL {
		t.Errorf("fallback config must validate, got %q", Config(FallbackConfig))
	}
}

func TestMermaid(t *testing.T) {
	text := "Sure!\n```mermaid\nflowchart LR\n  A-->B\n```\nHope this helps."
	want := "```mermaid\nflowchart LR\n  A-->B\n```"
	if got := Mermaid(text); got != want {
		t.Errorf("Mermaid() = %q, want %q", got, want)
	}
	if got := Mermaid("no diagram"); got != FallbackDiagram {
		t.Errorf("expected fallback diagram, got %q", got)
	}
	if got := Mermaid("```MERMAID\nsequenceDiagram\n```"); !strings.Contains(got, "sequenceDiagram") {
		t.Errorf("expected case-insensitive tag match, got %q", got)
	}
}
