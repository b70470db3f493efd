// Package cli provides command-line interface setup and configuration
// for the bilingual application. It handles flag parsing, command
// creation, validation and configuration management using cobra and viper.
package cli
