package s3

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nuclia/sync-agent/internal/core/domain"
)

func objects(keys ...string) []s3types.Object {
	out := make([]s3types.Object, 0, len(keys))
	for _, k := range keys {
		out = append(out, s3types.Object{Key: aws.String(k)})
	}
	return out
}

func TestToItems(t *testing.T) {
	t.Run("no query keeps every object", func(t *testing.T) {
		items := toItems(objects("docs/report.pdf", "notes.txt"), "")
		require.Len(t, items, 2)
		assert.Equal(t, "docs/report.pdf", items[0].OriginalID)
		assert.Equal(t, "report.pdf", items[0].Title)
		assert.Equal(t, domain.StatusPending, items[0].Status)
	})

	t.Run("query matches case-insensitively on the key", func(t *testing.T) {
		items := toItems(objects("docs/Report.PDF", "notes.txt", "img.png"), "pdf")
		require.Len(t, items, 1)
		assert.Equal(t, "docs/Report.PDF", items[0].OriginalID)
	})

	t.Run("folder placeholders are skipped", func(t *testing.T) {
		items := toItems(objects("docs/", "docs/a.txt"), "")
		require.Len(t, items, 1)
		assert.Equal(t, "docs/a.txt", items[0].OriginalID)
	})
}

func TestParametersValidation(t *testing.T) {
	c := New()
	fields, err := c.Parameters(context.Background())
	require.NoError(t, err)

	err = domain.ValidateParams(fields, domain.ConnectorParameters{
		"access_key_id": "AKIA123",
	})
	assert.ErrorIs(t, err, domain.ErrMissingParameter)

	err = domain.ValidateParams(fields, domain.ConnectorParameters{
		"access_key_id":     "AKIA123",
		"secret_access_key": "secret",
		"bucket":            "my-bucket",
	})
	assert.NoError(t, err)
}

func TestGetFilesRequiresCredentials(t *testing.T) {
	c := New()
	_, err := c.GetFiles(context.Background(), "", 0)
	assert.ErrorIs(t, err, domain.ErrMissingParameter)
}
