package validate

const (
	// FallbackDiagram is returned when the model answered without a diagram.
	FallbackDiagram = "```mermaid\nflowchart TD; A[Start]-->B[No diagram returned];\n```"
	// ErrorDiagram is returned when the model could not be reached.
	ErrorDiagram = "```mermaid\nflowchart LR; E[Error]-->C[Try again];\n```"
)

// Mermaid returns the first mermaid fence in text, fences included, or
// FallbackDiagram when there is none.
func Mermaid(text string) string {
	if b, ok := firstFence(text, "mermaid"); ok {
		return b.full
	}
	return FallbackDiagram
}
