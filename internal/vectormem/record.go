package vectormem

// Match is one retrieval hit, ordered most-similar-first by the store.
// Distance is cosine distance; Similarity = 1 - Distance.
type Match struct {
	ID             string  `json:"id"`
	ConversationID string  `json:"conversation_id"`
	Role           string  `json:"role"`
	Content        string  `json:"content"`
	Timestamp      string  `json:"timestamp"`
	Similarity     float32 `json:"similarity"`
	Distance       float32 `json:"distance"`
}

// Stats describes the state of the memory store.
type Stats struct {
	TotalMessages int    `json:"total_messages"`
	Collection    string `json:"collection_name"`
	Dimensions    int    `json:"embedding_dimension"`
}
