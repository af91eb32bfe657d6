package config

import "context"

// SecretProvider abstracts secret retrieval so the loader can resolve API
// keys and connection strings from AWS SSM Parameter Store in deployed
// environments and plain environment variables in local development.
type SecretProvider interface {
	// GetParametersBatch retrieves multiple secret values. The keys slice
	// contains SSM parameter paths (or equivalent identifiers) to resolve.
	// Returns a map of key -> plaintext value for every parameter that was
	// found; missing keys are omitted rather than reported as errors.
	//
	// Implementations should batch requests and retry with jitter to cope
	// with API rate limits.
	GetParametersBatch(ctx context.Context, keys []string) (map[string]string, error)
}
