package gemini

import (
	"fmt"
	"strings"
)

const (
	msgSafety     = "The response was blocked by safety filters. Please rephrase your request."
	msgRecitation = "The response was blocked because it may recite copyrighted material. Please rephrase your request."
	msgIncomplete = "The response was incomplete. Please try again with a more specific request."
)

// Normalize renders a Response as plain text. It never fails: unexpected
// input, including a panic while rendering, becomes an error description.
func Normalize(resp Response) (text string) {
	defer func() {
		if r := recover(); r != nil {
			text = errorText(r)
		}
	}()

	switch r := resp.(type) {
	case TextResponse:
		return r.Text
	case PartsResponse:
		return strings.Join(r.Parts, "")
	case CandidatesResponse:
		return strings.Join(r.Parts, "")
	case FinishReasonResponse:
		return finishMessage(r.Code)
	case UnknownResponse:
		return r.Raw
	case MalformedResponse:
		return errorText(r.Err)
	default:
		return errorText(fmt.Sprintf("unsupported response type %T", resp))
	}
}

func finishMessage(code int) string {
	switch code {
	case FinishSafety:
		return msgSafety
	case FinishRecitation:
		return msgRecitation
	case FinishMaxTokens:
		return msgIncomplete
	default:
		return fmt.Sprintf("Generation completed with reason %d but returned no text.", code)
	}
}

func errorText(v any) string {
	return fmt.Sprintf("Error extracting response text: %v", v)
}
