package auth

import (
	"context"
	"errors"
	"fmt"
	"os"

	"golang.org/x/oauth2/google"
)

// Scopes requested for the identity-provider admin API
var adminScopes = []string{
	"https://www.googleapis.com/auth/identitytoolkit",
	"https://www.googleapis.com/auth/cloud-platform",
}

// Credentials is a parsed service account plus the project it administers
type Credentials struct {
	ProjectID string
	Google    *google.Credentials
}

// LoadCredentials reads a service-account JSON file. The project id comes
// from the file, falling back to fallbackProject when the file has none.
func LoadCredentials(ctx context.Context, path, fallbackProject string) (*Credentials, error) {
	if path == "" {
		return nil, errors.New("service account credentials path is not set")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read service account credentials: %w", err)
	}
	return ParseCredentials(ctx, data, fallbackProject)
}

// ParseCredentials is LoadCredentials over in-memory JSON
func ParseCredentials(ctx context.Context, data []byte, fallbackProject string) (*Credentials, error) {
	creds, err := google.CredentialsFromJSON(ctx, data, adminScopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse service account credentials: %w", err)
	}

	projectID := creds.ProjectID
	if projectID == "" {
		projectID = fallbackProject
	}
	if projectID == "" {
		return nil, errors.New("project id missing from credentials and no fallback configured")
	}
	return &Credentials{ProjectID: projectID, Google: creds}, nil
}
