package model

// Envelope is the uniform response wrapper every endpoint returns.
// Error=true implies Data is absent.
type Envelope struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// OK builds a success envelope.
func OK(message string, data any) Envelope {
	return Envelope{Error: false, Message: message, Data: data}
}

// Fail builds an error envelope with no data.
func Fail(message string) Envelope {
	return Envelope{Error: true, Message: message}
}
