// Package cli provides command-line interface setup and configuration
// for the galleryexplorer application. It handles flag parsing, command
// creation, and configuration loading using cobra and viper.
package cli
