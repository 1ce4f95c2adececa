package cli

import (
	"os"
	"path/filepath"
)

// Flags holds all command-line flag values
type Flags struct {
	// General flags
	CfgFile   string
	OutputDir string
	LogLevel  string
	BatchFile string
	Archive   bool

	// Search flags
	Engine     string
	Size       string
	Color      string
	SafeSearch bool

	// History flags
	History     bool
	HistoryPath string

	// Subcommand flags
	Pick         []int
	Limit        int
	Yes          bool
	HistoryLimit int
}

// NewFlags creates a new Flags instance with default values
func NewFlags() *Flags {
	return &Flags{
		OutputDir: DefaultOutputDir(),
		LogLevel:  "info",
		Engine:    "google",
		Size:      "any",
		Color:     "any",
		History:   true,

		HistoryLimit: 10,
	}
}

// DefaultOutputDir is where downloads land unless configured otherwise
func DefaultOutputDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "gallery"
	}
	return filepath.Join(home, ".local", "state", "galleryexplorer", "gallery")
}
