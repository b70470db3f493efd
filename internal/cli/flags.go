package cli

import (
	"codeberg.org/snonux/bilingual/internal/batch"
	"codeberg.org/snonux/bilingual/internal/translation"
)

// Flags holds all command-line flag values
type Flags struct {
	// General flags
	CfgFile    string
	BookName   string
	Model      string
	BatchSize  int
	Language   string
	NoLimit    bool
	Test       bool
	CachePath  string
	JSONBatch  bool
	ListModels bool
	Verbose    bool

	// Credentials
	OpenAIKey string
	GeminiKey string
}

// NewFlags creates a new Flags instance with default values
func NewFlags() *Flags {
	return &Flags{
		Model:     translation.ProviderChat,
		BatchSize: batch.DefaultSize,
		Language:  "Chinese",
	}
}
