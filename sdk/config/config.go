// Package config provides the public SDK configuration API.
//
// It re-exports the server configuration types and helpers so external projects can
// embed the gateway without importing internal packages.
package config

import internalconfig "github.com/streambridge/streambridge/internal/config"

type SDKConfig = internalconfig.SDKConfig

type Config = internalconfig.Config

type StreamingConfig = internalconfig.StreamingConfig
type RoutingConfig = internalconfig.RoutingConfig
type ProviderConfig = internalconfig.ProviderConfig
type CredentialConfig = internalconfig.CredentialConfig
type BypassConfig = internalconfig.BypassConfig

// LoadConfig reads the YAML configuration at path.
func LoadConfig(path string) (*Config, error) {
	return internalconfig.LoadConfig(path)
}
