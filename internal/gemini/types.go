package gemini

// Request and response bodies of the generativelanguage v1beta REST API.

type Part struct {
	Text string `json:"text,omitempty"`
}

type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

type GenerationConfig struct {
	Temperature     *float64 `json:"temperature,omitempty"`
	TopP            *float64 `json:"topP,omitempty"`
	MaxOutputTokens int      `json:"maxOutputTokens,omitempty"`
}

type SafetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

// DefaultSafetySettings blocks medium and higher probability harm in the four
// adjustable categories.
func DefaultSafetySettings() []SafetySetting {
	categories := []string{
		"HARM_CATEGORY_HATE_SPEECH",
		"HARM_CATEGORY_HARASSMENT",
		"HARM_CATEGORY_SEXUALLY_EXPLICIT",
		"HARM_CATEGORY_DANGEROUS_CONTENT",
	}
	settings := make([]SafetySetting, 0, len(categories))
	for _, c := range categories {
		settings = append(settings, SafetySetting{Category: c, Threshold: "BLOCK_MEDIUM_AND_ABOVE"})
	}
	return settings
}

type generateContentRequest struct {
	SystemInstruction *Content         `json:"systemInstruction,omitempty"`
	Contents          []Content        `json:"contents"`
	GenerationConfig  GenerationConfig `json:"generationConfig"`
	SafetySettings    []SafetySetting  `json:"safetySettings,omitempty"`
}

type countTokensRequest struct {
	Contents []Content `json:"contents"`
}

type countTokensResponse struct {
	TotalTokens int `json:"totalTokens"`
}

type errorBody struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Params describes one generateContent call.
type Params struct {
	Model           string
	System          string
	Prompt          string
	Temperature     float64
	TopP            *float64 // sent only when set
	MaxOutputTokens int
}

func (p Params) request() generateContentRequest {
	temp := p.Temperature
	req := generateContentRequest{
		Contents: []Content{{Role: "user", Parts: []Part{{Text: p.Prompt}}}},
		GenerationConfig: GenerationConfig{
			Temperature:     &temp,
			TopP:            p.TopP,
			MaxOutputTokens: p.MaxOutputTokens,
		},
		SafetySettings: DefaultSafetySettings(),
	}
	if p.System != "" {
		req.SystemInstruction = &Content{Parts: []Part{{Text: p.System}}}
	}
	return req
}
