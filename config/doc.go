// Package config handles application configuration loading and validation.
//
// Configuration is loaded from config.yml and validated using struct tags.
// Secrets such as the Navitia API token are resolved from the environment
// rather than stored in the file.
package config
