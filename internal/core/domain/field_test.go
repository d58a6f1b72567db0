package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateParams(t *testing.T) {
	fields := []Field{
		{ID: "bucket", Label: "Bucket", Type: FieldText, Required: true},
		{ID: "region", Label: "Region", Type: FieldText},
		{ID: "sitemap", Label: "Sitemap URL", Type: FieldText, Pattern: `.+\.(ashx|xml)$`},
	}

	t.Run("accepts complete parameters", func(t *testing.T) {
		err := ValidateParams(fields, ConnectorParameters{
			"bucket":  "assets",
			"sitemap": "https://example.com/sitemap.xml",
		})
		assert.NoError(t, err)
	})

	t.Run("rejects a missing required value", func(t *testing.T) {
		err := ValidateParams(fields, ConnectorParameters{"region": "eu-west-1"})
		require.ErrorIs(t, err, ErrMissingParameter)
		assert.Contains(t, err.Error(), "bucket")
	})

	t.Run("rejects an empty required value", func(t *testing.T) {
		err := ValidateParams(fields, ConnectorParameters{"bucket": ""})
		assert.ErrorIs(t, err, ErrMissingParameter)
	})

	t.Run("rejects a pattern mismatch", func(t *testing.T) {
		err := ValidateParams(fields, ConnectorParameters{
			"bucket":  "assets",
			"sitemap": "https://example.com/",
		})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("optional fields may be absent", func(t *testing.T) {
		err := ValidateParams(fields, ConnectorParameters{"bucket": "assets"})
		assert.NoError(t, err)
	})

	t.Run("rejects duplicate field ids", func(t *testing.T) {
		dup := []Field{
			{ID: "path", Label: "Path", Type: FieldText},
			{ID: "path", Label: "Path again", Type: FieldText},
		}
		assert.ErrorIs(t, ValidateParams(dup, nil), ErrInvalidInput)
	})
}
