package gemini

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Response is the set of shapes a generation result can take. Exactly one
// variant is produced by Classify.
type Response interface {
	isResponse()
}

// TextResponse carries a direct text field.
type TextResponse struct{ Text string }

// PartsResponse carries a top-level list of parts.
type PartsResponse struct{ Parts []string }

// CandidatesResponse carries the parts of the first candidate's content.
type CandidatesResponse struct{ Parts []string }

// FinishReasonResponse is a result with no text, only a reason the model stopped.
type FinishReasonResponse struct {
	Code int
	Name string
}

// UnknownResponse holds a body matching none of the other shapes.
type UnknownResponse struct{ Raw string }

// MalformedResponse is a successful reply whose body could not be decoded,
// such as an HTML page from an intermediate proxy.
type MalformedResponse struct{ Err error }

func (TextResponse) isResponse()         {}
func (PartsResponse) isResponse()        {}
func (CandidatesResponse) isResponse()   {}
func (FinishReasonResponse) isResponse() {}
func (UnknownResponse) isResponse()      {}
func (MalformedResponse) isResponse()    {}

// Finish reason codes as reported to users.
const (
	FinishSafety     = 1
	FinishRecitation = 2
	FinishMaxTokens  = 3
	FinishOther      = 4
)

var finishCodes = map[string]int{
	"SAFETY":             FinishSafety,
	"BLOCKLIST":          FinishSafety,
	"PROHIBITED_CONTENT": FinishSafety,
	"SPII":               FinishSafety,
	"IMAGE_SAFETY":       FinishSafety,
	"RECITATION":         FinishRecitation,
	"MAX_TOKENS":         FinishMaxTokens,
	"OTHER":              FinishOther,
}

var finishNames = map[int]string{
	FinishSafety:     "SAFETY",
	FinishRecitation: "RECITATION",
	FinishMaxTokens:  "MAX_TOKENS",
	FinishOther:      "OTHER",
}

// FinishReason decodes either the numeric or the enum-name form.
type FinishReason struct {
	Code int
	Name string
}

func (f *FinishReason) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var name string
		if err := json.Unmarshal(b, &name); err != nil {
			return fmt.Errorf("decode finish reason: %w", err)
		}
		f.Name = name
		f.Code = finishCodes[name]
		return nil
	}
	var code int
	if err := json.Unmarshal(b, &code); err != nil {
		return fmt.Errorf("decode finish reason: %w", err)
	}
	f.Code = code
	f.Name = finishNames[code]
	return nil
}

type candidate struct {
	Content      *Content      `json:"content"`
	FinishReason *FinishReason `json:"finishReason"`
}

type envelope struct {
	Text           *string       `json:"text"`
	Parts          []Part        `json:"parts"`
	Candidates     []candidate   `json:"candidates"`
	FinishReason   *FinishReason `json:"finishReason"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

// Classify decodes a response body into one Response variant. It fails only
// when the body is not a JSON object.
func Classify(body []byte) (Response, error) {
	var env envelope
	dec := json.NewDecoder(bytes.NewReader(body))
	if err := dec.Decode(&env); err != nil {
		return nil, fmt.Errorf("decode generation response: %w", err)
	}

	if env.Text != nil && *env.Text != "" {
		return TextResponse{Text: *env.Text}, nil
	}
	if len(env.Parts) > 0 {
		return PartsResponse{Parts: texts(env.Parts)}, nil
	}
	if len(env.Candidates) > 0 {
		first := env.Candidates[0]
		if first.Content != nil && len(first.Content.Parts) > 0 {
			return CandidatesResponse{Parts: texts(first.Content.Parts)}, nil
		}
		if first.FinishReason != nil {
			return FinishReasonResponse(*first.FinishReason), nil
		}
		return CandidatesResponse{}, nil
	}
	if env.FinishReason != nil {
		return FinishReasonResponse(*env.FinishReason), nil
	}
	// A prompt blocked before generation has no candidates at all.
	if env.PromptFeedback != nil && env.PromptFeedback.BlockReason != "" {
		reason := env.PromptFeedback.BlockReason
		return FinishReasonResponse{Code: finishCodes[reason], Name: reason}, nil
	}
	return UnknownResponse{Raw: string(body)}, nil
}

func texts(parts []Part) []string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, p.Text)
	}
	return out
}
