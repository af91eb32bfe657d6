package config

import (
	"context"
	"os"
)

// EnvVarProvider implements SecretProvider over OS environment variables.
// It is the provider used in local development, where the OpenWeather and
// Ecowitt keys are set directly in the environment or a .env file instead of
// AWS SSM Parameter Store.
type EnvVarProvider struct{}

// NewEnvVarProvider creates a new EnvVarProvider.
func NewEnvVarProvider() *EnvVarProvider {
	return &EnvVarProvider{}
}

// GetParametersBatch resolves each key via os.LookupEnv. Keys missing from
// the environment are omitted from the returned map.
//
// The context parameter exists for interface compatibility; environment
// lookups are synchronous and non-cancellable.
func (p *EnvVarProvider) GetParametersBatch(_ context.Context, keys []string) (map[string]string, error) {
	result := make(map[string]string, len(keys))
	for _, key := range keys {
		if val, ok := os.LookupEnv(key); ok {
			result[key] = val
		}
	}
	return result, nil
}
