// Package google holds the pieces shared by Google-backed connectors:
// API service construction, token plumbing and request rate limiting.
// Provider-specific listing and download logic lives in the gdrive and
// gcs subpackages.
package google
