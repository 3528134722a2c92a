// Package prompt holds the system instructions and the prompt templates sent
// to the model for each endpoint.
package prompt

import (
	"fmt"
	"strings"

	"github.com/af-corp/shipsense/internal/types"
)

const (
	ChatSystem = "You are a Responsible DevOps assistant. Only answer questions about CI/CD, DevOps, Terraform, Ansible, " +
		"Jenkins, Spinnaker, Argo (CD/Workflows/Rollouts), DecSecOps, and Shell scripting. " +
		"If the user asks anything outside these topics, politely refuse and suggest DevOps topics."

	AnsibleSystem = "You are an expert Ansible engineer. Generate production-ready Ansible playbooks in YAML. " +
		"Always return the playbook in a single ```yaml fenced code block, followed by a short explanation. " +
		"Use fully qualified module names, idempotent tasks and handlers where appropriate."

	TerraformSystem = "You are an expert Terraform engineer. Generate production-ready Terraform (HCL) configurations. " +
		"Always return the configuration in a single ```hcl fenced code block, followed by a short explanation. " +
		"Include the terraform and provider blocks, variables for environment-specific values, and outputs."

	DiagramSystem = "You generate only Mermaid diagrams in fenced code blocks.\n" +
		"Rules:\n" +
		"- Output must be a single fenced code block labeled mermaid.\n" +
		"- No prose before or after the code fence.\n" +
		"- Prefer flowchart or sequence diagrams.\n" +
		"- Scope: DevOps/CI/CD topics only."
)

const noHints = "general configuration"

// Chat returns the user message unchanged.
func Chat(message string) string { return message }

// Playbook composes the Ansible generation prompt.
func Playbook(userPrompt string, req types.PlaybookRequirements) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate an Ansible playbook for the following request:\n\n%s\n\n", userPrompt)
	b.WriteString("Detected requirements:\n")
	fmt.Fprintf(&b, "- Target hosts: %s\n", req.Hosts)
	fmt.Fprintf(&b, "- Tasks: %s\n\n", joinHints(req.Tasks))
	b.WriteString("The playbook must:\n")
	b.WriteString("1. Be valid YAML inside a ```yaml code block\n")
	b.WriteString("2. Be complete and runnable with ansible-playbook\n")
	b.WriteString("3. Include a comment explaining each task\n")
	b.WriteString("4. Follow security best practices (least privilege, no plaintext secrets, become only where needed)\n")
	b.WriteString("5. Use variables for values that differ between environments\n")
	return b.String()
}

// Config composes the Terraform generation prompt.
func Config(userPrompt string, req types.ConfigRequirements) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate a Terraform configuration for the following request:\n\n%s\n\n", userPrompt)
	b.WriteString("Detected requirements:\n")
	fmt.Fprintf(&b, "- Provider: %s\n", req.Provider)
	fmt.Fprintf(&b, "- Resources: %s\n\n", joinHints(req.Resources))
	b.WriteString("The configuration must:\n")
	b.WriteString("1. Be valid HCL inside a ```hcl code block\n")
	b.WriteString("2. Be complete, with terraform, provider, resource, variable and output blocks\n")
	b.WriteString("3. Include comments explaining each resource\n")
	b.WriteString("4. Follow security best practices (encryption at rest, no hardcoded credentials, least-privilege IAM)\n")
	b.WriteString("5. Tag every resource that supports tags\n")
	return b.String()
}

// Diagram composes the mermaid diagram prompt.
func Diagram(userPrompt string) string {
	return "Return ONLY a mermaid code fence that diagrams: " + userPrompt
}

func joinHints(hints []string) string {
	if len(hints) == 0 {
		return noHints
	}
	return strings.Join(hints, ", ")
}
