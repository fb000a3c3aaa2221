package engine

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a chat message. System instructions travel in
// Request.System, never as a Message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is a backend-neutral generation request.
type Request struct {
	Model       string
	System      string
	Messages    []Message
	Temperature float64
	MaxTokens   int
	TopP        float64

	// Schema requests structured JSON output from backends that support it.
	// Others ignore it and rely on the prompt.
	Schema *Schema
}

// Schema is a JSON schema subset used for structured output.
type Schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Required    []string           `json:"required,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Enum        []string           `json:"enum,omitempty"`
	Minimum     *float64           `json:"minimum,omitempty"`
	Maximum     *float64           `json:"maximum,omitempty"`
	MinItems    *int               `json:"minItems,omitempty"`
	MaxItems    *int               `json:"maxItems,omitempty"`
}

// PullProgress reports download progress for a model pull operation.
type PullProgress struct {
	Status    string `json:"status"`
	Total     int64  `json:"total,omitempty"`
	Completed int64  `json:"completed,omitempty"`
}
