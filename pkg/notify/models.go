package notify

// MessageType defines the type of a WebSocket message.
type MessageType string

const (
	// MessageTypeBookListed is sent when a new book enters the catalog.
	MessageTypeBookListed MessageType = "bookListed"
	// MessageTypeSwapRequested is sent when a swap request is created.
	MessageTypeSwapRequested MessageType = "swapRequested"
	// MessageTypeSwapAccepted is sent when an owner accepts a request.
	MessageTypeSwapAccepted MessageType = "swapAccepted"
	// MessageTypeSwapDeclined is sent when an owner declines a request.
	MessageTypeSwapDeclined MessageType = "swapDeclined"
	// MessageTypeSwapCancelled is sent when a requester cancels, or a
	// reservation expires.
	MessageTypeSwapCancelled MessageType = "swapCancelled"
	// MessageTypeSwapCompleted is sent when a swap is completed.
	MessageTypeSwapCompleted MessageType = "swapCompleted"
)

// Message represents a generic WebSocket message.
type Message struct {
	Type    MessageType `json:"type"`
	Payload interface{} `json:"payload"`
}

// SwapEventPayload is the payload for every swap lifecycle message.
type SwapEventPayload struct {
	RequestID   string `json:"request_id"`
	BookID      string `json:"book_id"`
	BookTitle   string `json:"book_title"`
	OwnerID     string `json:"owner_id"`
	RequesterID string `json:"requester_id"`
	BookStatus  string `json:"book_status"`
}

// BookListedPayload is the payload for a bookListed message.
type BookListedPayload struct {
	BookID       string `json:"book_id"`
	Title        string `json:"title"`
	Author       string `json:"author"`
	Neighborhood string `json:"neighborhood"`
	OwnerID      string `json:"owner_id"`
}
