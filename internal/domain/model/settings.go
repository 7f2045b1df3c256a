package model

// Settings is the immutable connection configuration of one assistant entry.
// A change replaces the whole value and reloads the owning session.
type Settings struct {
	EntryID      string
	Name         string
	Provider     string
	BaseURL      string
	APIKey       string
	Model        string
	MaxTokens    int
	Temperature  float64
	SystemPrompt string // appended to the base instruction
}
