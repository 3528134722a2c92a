package validate

import (
	"regexp"
	"strings"
)

const (
	ValidHCL   = "Valid HCL structure"
	HCLWarning = "Warning: HCL structure may be incomplete - missing resource, provider, or terraform block"
)

var hclTopLevel = regexp.MustCompile(`(?m)^\s*(resource|provider|terraform)\b`)

// FallbackConfig is returned when the model produced no configuration.
const FallbackConfig = "```hcl\n" +
	"terraform {\n" +
	"  required_providers {\n" +
	"    aws = {\n" +
	"      source  = \"hashicorp/aws\"\n" +
	"      version = \"~> 5.0\"\n" +
	"    }\n" +
	"  }\n" +
	"}\n" +
	"\n" +
	"provider \"aws\" {\n" +
	"  region = var.region\n" +
	"}\n" +
	"\n" +
	"variable \"region\" {\n" +
	"  type    = string\n" +
	"  default = \"us-east-1\"\n" +
	"}\n" +
	"\n" +
	"# Private bucket with versioning and server-side encryption\n" +
	"resource \"aws_s3_bucket\" \"example\" {\n" +
	"  bucket_prefix = \"example-\"\n" +
	"  tags = {\n" +
	"    ManagedBy = \"terraform\"\n" +
	"  }\n" +
	"}\n" +
	"\n" +
	"resource \"aws_s3_bucket_versioning\" \"example\" {\n" +
	"  bucket = aws_s3_bucket.example.id\n" +
	"  versioning_configuration {\n" +
	"    status = \"Enabled\"\n" +
	"  }\n" +
	"}\n" +
	"\n" +
	"output \"bucket_name\" {\n" +
	"  value = aws_s3_bucket.example.bucket\n" +
	"}\n" +
	"```\n"

// Config checks that a Terraform answer declares at least one resource,
// provider or terraform block. It looks inside the first hcl, terraform, tf
// or untagged fence, or at the whole text when there is none.
func Config(text string) string {
	src := text
	if b, ok := firstFence(text, "hcl", "terraform", "tf", ""); ok {
		src = b.body
	}
	if !hclTopLevel.MatchString(src) {
		return HCLWarning
	}
	return ValidHCL
}

// ConfigOrFallback substitutes FallbackConfig for empty output.
func ConfigOrFallback(text string) string {
	if strings.TrimSpace(text) == "" {
		return FallbackConfig
	}
	return text
}
