package websocket

// Actions (client to server).

type Action string

const (
	ActionSaveAnswers Action = "save_answers"
	ActionViolation   Action = "violation"
	ActionPing        Action = "ping"
)

// RequestPayload is the single inbound message shape. Fields beyond
// Action are populated depending on the action.
type RequestPayload struct {
	Action  Action            `json:"action"`
	Answers map[string]string `json:"answers,omitempty"`
	Type    string            `json:"type,omitempty"`
	Device  string            `json:"device,omitempty"`
}

// Events (server to client).

type Event string

const (
	EventError     Event = "error"
	EventSaved     Event = "saved"
	EventViolation Event = "violation"
	EventPong      Event = "pong"
)

type SavedResponse struct {
	Event  Event  `json:"event"`
	Status string `json:"status"`
}

// ViolationResponse carries the server verdict after a reported
// violation: the authoritative count and the auto-submit order.
type ViolationResponse struct {
	Event      Event `json:"event"`
	Count      int   `json:"count"`
	Max        int   `json:"max"`
	AutoSubmit bool  `json:"auto_submit"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
