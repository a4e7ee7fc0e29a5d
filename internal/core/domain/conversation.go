package domain

// Sender identifies who authored a conversation turn.
type Sender string

// Conversation participants.
const (
	SenderUser Sender = "user"
	SenderAI   Sender = "ai"
)

// ConversationTurn is a single prior message supplied by the caller.
type ConversationTurn struct {
	Sender Sender `json:"sender"`
	Text   string `json:"message_text"`
}

// AnswerRequest is the input to answer generation.
type AnswerRequest struct {
	// Question is the user's question as typed.
	Question string

	// DocumentIDs scopes retrieval to the selected documents.
	DocumentIDs []string

	// OwnerID scopes retrieval to one user.
	OwnerID string

	// SessionID is carried for logging only.
	SessionID string

	// History holds earlier turns, oldest first.
	History []ConversationTurn

	// Provider is an optional explicit provider request.
	Provider Provider
}

// AnswerResult is the output of answer generation.
// It is always populated, even on failure.
type AnswerResult struct {
	Answer             string           `json:"answer"`
	References         []RetrievedChunk `json:"references"`
	SuggestedQuestions []string         `json:"suggested_questions"`
	Provider           Provider         `json:"provider,omitempty"`
}
