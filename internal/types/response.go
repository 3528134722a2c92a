package types

// TokenCounts is best-effort usage; all zero is a legitimate value.
type TokenCounts struct {
	Input  int `json:"input"`
	Output int `json:"output"`
	Total  int `json:"total"`
}

// NewTokenCounts fills Total from input and output.
func NewTokenCounts(input, output int) TokenCounts {
	return TokenCounts{Input: input, Output: output, Total: input + output}
}

type ChatReply struct {
	Output string      `json:"output"`
	Tokens TokenCounts `json:"tokens"`
}

// PlaybookRequirements are hints extracted from an Ansible prompt.
type PlaybookRequirements struct {
	Hosts string   `json:"hosts"`
	Tasks []string `json:"tasks"`
}

// ConfigRequirements are hints extracted from a Terraform prompt.
type ConfigRequirements struct {
	Provider  string   `json:"provider"`
	Resources []string `json:"resources"`
}

// PlaybookReply is the body returned by /ansible-generate. Validation and
// requirements are omitted when the prompt was refused.
type PlaybookReply struct {
	Output         string                `json:"output"`
	YAMLValidation string                `json:"yaml_validation,omitempty"`
	Requirements   *PlaybookRequirements `json:"requirements,omitempty"`
	Tokens         TokenCounts           `json:"tokens"`
}

// ConfigReply is the body returned by /terraform-generate.
type ConfigReply struct {
	Output        string              `json:"output"`
	HCLValidation string              `json:"hcl_validation,omitempty"`
	Requirements  *ConfigRequirements `json:"requirements,omitempty"`
	Tokens        TokenCounts         `json:"tokens"`
}

type DiagramReply struct {
	Output string `json:"output"`
}
