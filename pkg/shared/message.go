package shared

// MessageType identifies a message on the WebSocket connection. The numeric
// values are part of the wire protocol the frontend decodes.
type MessageType int

const (
	MessageTypeText    MessageType = 0 // plain text output
	MessageTypeClear   MessageType = 1 // clear the screen
	MessageTypeScreen  MessageType = 2 // full screen snapshot
	MessageTypeSession MessageType = 3 // session ID handover
	MessageTypePrompt  MessageType = 4 // input prompt state
)

// Message is one frame sent to the frontend.
type Message struct {
	Type    MessageType `json:"type"`
	Content string      `json:"content,omitempty"`

	// For SESSION
	SessionID string `json:"sessionId,omitempty"`

	// For SCREEN: the full row snapshot plus cursor state. The frontend
	// redraws the whole grid from this on every mutation.
	Rows      []string `json:"rows,omitempty"`
	CursorRow int      `json:"cursorRow,omitempty"`
	CursorCol int      `json:"cursorCol,omitempty"`
	InputMode bool     `json:"inputMode,omitempty"`

	// For PROMPT
	InputEnabled *bool  `json:"inputEnabled,omitempty"`
	PromptSymbol string `json:"promptSymbol,omitempty"`
}
