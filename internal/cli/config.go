package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"codeberg.org/snonux/galleryexplorer/internal/search"
)

// DefaultSlideshowInterval is the slideshow tick unless configured
const DefaultSlideshowInterval = 2 * time.Second

var envKeyReplacer = strings.NewReplacer(".", "_")

// Config is the resolved configuration. The application reads it once at
// startup and never writes it back.
type Config struct {
	OutputDir         string
	Query             search.Query
	LogLevel          string
	HistoryEnabled    bool
	HistoryPath       string
	SlideshowInterval time.Duration
}

// InitConfig initializes viper configuration
func InitConfig(cfgFile string) {
	// A missing .env is fine
	_ = godotenv.Load()

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting home directory: %v\n", err)
			return
		}

		// Search config in home directory with name ".galleryexplorer" (without extension)
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".galleryexplorer")
	}

	viper.SetDefault("slideshow.interval", DefaultSlideshowInterval)

	// Environment variables, e.g. GALLERYEXPLORER_SEARCH_ENGINE
	viper.SetEnvPrefix("GALLERYEXPLORER")
	viper.SetEnvKeyReplacer(envKeyReplacer)
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// LoadConfig resolves the configuration from viper. Invalid values fall
// back to defaults.
func LoadConfig() Config {
	engine, err := search.ParseEngine(viper.GetString("search.engine"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v, using google\n", err)
	}

	outputDir := viper.GetString("output.directory")
	if outputDir == "" {
		outputDir = DefaultOutputDir()
	}

	interval := viper.GetDuration("slideshow.interval")
	if interval <= 0 {
		interval = DefaultSlideshowInterval
	}

	return Config{
		OutputDir: outputDir,
		Query: search.Query{
			Engine: engine,
			Filters: search.Filters{
				Size:       search.ParseSize(viper.GetString("search.size")),
				Color:      search.ParseColor(viper.GetString("search.color")),
				SafeSearch: viper.GetBool("search.safe"),
			},
		},
		LogLevel:          viper.GetString("log.level"),
		HistoryEnabled:    viper.GetBool("history.enabled"),
		HistoryPath:       viper.GetString("history.path"),
		SlideshowInterval: interval,
	}
}
