package google

import (
	"context"

	"golang.org/x/oauth2"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/storage/v1"
)

// OAuth endpoints shared by every Google connector.
const (
	AuthURL  = "https://accounts.google.com/o/oauth2/v2/auth"
	TokenURL = "https://oauth2.googleapis.com/token"
)

// NewDriveService creates a Google Drive API service using the provided TokenSource.
func NewDriveService(ctx context.Context, ts oauth2.TokenSource) (*drive.Service, error) {
	return drive.NewService(ctx, option.WithTokenSource(ts))
}

// NewStorageService creates a Cloud Storage API service using the provided TokenSource.
func NewStorageService(ctx context.Context, ts oauth2.TokenSource) (*storage.Service, error) {
	return storage.NewService(ctx, option.WithTokenSource(ts))
}
