package validate

import (
	"bytes"
	"errors"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	ValidYAML          = "Valid YAML syntax"
	yamlWarningPrefix  = "Warning: YAML syntax issue - "
	yamlDocumentMarker = "---"
)

// FallbackPlaybook is returned when the model produced no playbook.
const FallbackPlaybook = "```yaml\n" +
	"---\n" +
	"- name: Example playbook\n" +
	"  hosts: all\n" +
	"  become: true\n" +
	"  tasks:\n" +
	"    # Refresh the package cache before installing anything\n" +
	"    - name: Update apt cache\n" +
	"      ansible.builtin.apt:\n" +
	"        update_cache: true\n" +
	"        cache_valid_time: 3600\n" +
	"\n" +
	"    - name: Install common packages\n" +
	"      ansible.builtin.package:\n" +
	"        name:\n" +
	"          - curl\n" +
	"          - git\n" +
	"        state: present\n" +
	"```\n"

// Playbook checks the YAML block of an Ansible answer. Without a yaml block
// the whole text is parsed only if it contains a document start marker.
func Playbook(text string) string {
	src, ok := "", false
	if b, found := firstFence(text, "yaml", "yml"); found {
		src, ok = b.body, true
	} else if strings.Contains(text, yamlDocumentMarker) {
		src, ok = text, true
	}
	if !ok {
		return ValidYAML
	}
	if err := parseYAML(src); err != nil {
		return yamlWarningPrefix + err.Error()
	}
	return ValidYAML
}

// parseYAML decodes every document in src.
func parseYAML(src string) error {
	dec := yaml.NewDecoder(bytes.NewReader([]byte(src)))
	for {
		var doc any
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// PlaybookOrFallback substitutes FallbackPlaybook for empty output.
func PlaybookOrFallback(text string) string {
	if strings.TrimSpace(text) == "" {
		return FallbackPlaybook
	}
	return text
}
