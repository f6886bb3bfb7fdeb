package authority_client

const (
	// Base URL
	DefaultBaseURL = "http://localhost:5000"

	// API Endpoints
	UsersEndpoint           = "/users"
	FeedEndpoint            = "/feed"
	ChatEndpoint            = "/chat"
	QuestionsConfigEndpoint = "/questions-config"
	ResetEndpoint           = "/reset"
	EventsEndpoint          = "/events"

	// Headers
	IdempotencyKeyHeader = "Idempotency-Key"
)
