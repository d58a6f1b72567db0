package gdrive

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"

	"github.com/nuclia/sync-agent/internal/connectors/google"
	"github.com/nuclia/sync-agent/internal/core/domain"
)

func TestListQuery(t *testing.T) {
	t.Run("without a query only folders and trash are filtered", func(t *testing.T) {
		assert.Equal(t,
			"trashed = false and mimeType != 'application/vnd.google-apps.folder'",
			listQuery(""))
	})

	t.Run("query becomes a name-contains clause", func(t *testing.T) {
		q := listQuery("report")
		assert.Contains(t, q, "name contains 'report'")
		assert.Contains(t, q, "trashed = false")
	})

	t.Run("single quotes are escaped", func(t *testing.T) {
		q := listQuery("bob's files")
		assert.Contains(t, q, `name contains 'bob\'s files'`)
	})
}

func TestOAuthConfig(t *testing.T) {
	cfg := oauthConfig(domain.ConnectorParameters{
		"client_id":     "client-1",
		"client_secret": "secret-1",
	})

	assert.Equal(t, google.AuthURL, cfg.AuthURL)
	assert.Equal(t, google.TokenURL, cfg.TokenURL)
	assert.Equal(t, "client-1", cfg.ClientID)
	assert.Equal(t, "secret-1", cfg.ClientSecret)
	assert.Equal(t, []string{"https://www.googleapis.com/auth/drive.readonly"}, cfg.Scopes)
	assert.True(t, cfg.UsePKCE)
	assert.False(t, cfg.Implicit)
}

func TestIsNotFound(t *testing.T) {
	notFound := &googleapi.Error{Code: http.StatusNotFound}
	assert.True(t, isNotFound(notFound))
	assert.True(t, isNotFound(fmt.Errorf("get file: %w", notFound)))

	assert.False(t, isNotFound(&googleapi.Error{Code: http.StatusForbidden}))
	assert.False(t, isNotFound(errors.New("connection reset")))
	assert.False(t, isNotFound(nil))
}

func TestParametersValidation(t *testing.T) {
	c := New(nil)
	fields, err := c.Parameters(context.Background())
	require.NoError(t, err)

	err = domain.ValidateParams(fields, domain.ConnectorParameters{})
	assert.ErrorIs(t, err, domain.ErrMissingParameter)

	err = domain.ValidateParams(fields, domain.ConnectorParameters{"client_id": "client-1"})
	assert.NoError(t, err)
}
