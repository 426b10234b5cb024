package models

// SearchFilter holds the structured part of a search query. Empty fields
// do not filter.
type SearchFilter struct {
	From   string `json:"from,omitempty"`
	In     string `json:"in,omitempty"`
	Has    string `json:"has,omitempty"`
	Before string `json:"before,omitempty"`
	After  string `json:"after,omitempty"`
}

// IsEmpty reports whether no filter key is set.
func (f SearchFilter) IsEmpty() bool {
	return f == SearchFilter{}
}

type SearchResult struct {
	Message                 Message  `json:"message"`
	ConversationDisplayName string   `json:"conversation_display_name"`
	Highlights              []string `json:"highlights"`
}
