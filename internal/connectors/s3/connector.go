// Package s3 syncs objects out of an Amazon S3 (or S3-compatible) bucket
// using static credentials. Listing keys carry no server-side search, so
// queries are matched client-side against object names.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/nuclia/sync-agent/internal/core/domain"
	"github.com/nuclia/sync-agent/internal/core/ports/driven"
	"github.com/nuclia/sync-agent/internal/core/services"
)

const (
	// DefaultPageSize bounds one listing page when the caller does not choose.
	DefaultPageSize = 50
	// maxListKeys is the largest page requested from the provider when a
	// query forces client-side filtering over the listing.
	maxListKeys = 1000
	// linkExpiry is the lifetime of presigned download URLs, the SigV4
	// maximum so the destination can ingest at its own pace.
	linkExpiry = 7 * 24 * time.Hour
)

// Connector lists and reads objects from one configured bucket.
type Connector struct {
	params domain.ConnectorParameters
	client *s3.Client
}

var (
	_ driven.SourceConnector = (*Connector)(nil)
	_ driven.LinkProvider    = (*Connector)(nil)
)

// New returns an unconfigured S3 connector.
func New() *Connector {
	return &Connector{params: domain.ConnectorParameters{}}
}

// Definition describes the S3 provider for registration.
func Definition() services.SourceDefinition {
	return services.SourceDefinition{
		ConnectorDefinition: domain.ConnectorDefinition{
			ID:          "s3",
			Title:       "AWS S3",
			Description: "Upload objects from an S3 bucket",
			Logo:        "s3.svg",
		},
		Factory: func(ctx context.Context) (driven.SourceConnector, error) {
			return New(), nil
		},
	}
}

// Parameters implements driven.SourceConnector.
func (c *Connector) Parameters(_ context.Context) ([]domain.Field, error) {
	return []domain.Field{
		{ID: "access_key_id", Label: "Access key ID", Type: domain.FieldText, Required: true},
		{ID: "secret_access_key", Label: "Secret access key", Type: domain.FieldText, Required: true},
		{ID: "bucket", Label: "Bucket", Type: domain.FieldText, Required: true},
		{ID: "region", Label: "Region", Type: domain.FieldText, Placeholder: "eu-west-1"},
		{
			ID:    "endpoint",
			Label: "Endpoint",
			Type:  domain.FieldText,
			Help:  "Custom endpoint for S3-compatible services such as MinIO",
		},
	}, nil
}

// ApplyParameters implements driven.SourceConnector. The client is rebuilt
// lazily so credential changes take effect on the next call.
func (c *Connector) ApplyParameters(params domain.ConnectorParameters) error {
	c.params = params
	c.client = nil
	return nil
}

// ParameterValues implements driven.SourceConnector.
func (c *Connector) ParameterValues() domain.ConnectorParameters {
	return c.params
}

// GoToOAuth is a no-op: S3 uses static credentials.
func (c *Connector) GoToOAuth(_ context.Context, _ bool) error {
	return nil
}

// Authenticate implements driven.SourceConnector. Credentials are validated
// with a HeadBucket call so a bad key pair surfaces before any sync runs.
func (c *Connector) Authenticate(ctx context.Context) <-chan bool {
	ch := make(chan bool, 1)
	go func() {
		defer close(ch)
		client, err := c.getClient(ctx)
		if err != nil {
			ch <- false
			return
		}
		_, err = client.HeadBucket(ctx, &s3.HeadBucketInput{
			Bucket: aws.String(c.params["bucket"]),
		})
		ch <- err == nil
	}()
	return ch
}

func (c *Connector) getClient(ctx context.Context) (*s3.Client, error) {
	if c.client != nil {
		return c.client, nil
	}
	keyID := c.params["access_key_id"]
	secret := c.params["secret_access_key"]
	if keyID == "" || secret == "" {
		return nil, fmt.Errorf("%w: access_key_id, secret_access_key", domain.ErrMissingParameter)
	}

	optFns := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(keyID, secret, ""),
		),
	}
	if region := c.params["region"]; region != "" {
		optFns = append(optFns, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	s3Opts := []func(*s3.Options){}
	if endpoint := c.params["endpoint"]; endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		})
	}
	c.client = s3.NewFromConfig(cfg, s3Opts...)
	return c.client, nil
}

// GetFiles implements driven.SourceConnector. A query widens the provider
// page so the client-side filter still fills result pages.
func (c *Connector) GetFiles(ctx context.Context, query string, pageSize int) (*domain.SearchResults, error) {
	client, err := c.getClient(ctx)
	if err != nil {
		return nil, err
	}
	bucket := c.params["bucket"]
	if bucket == "" {
		return nil, fmt.Errorf("%w: bucket", domain.ErrMissingParameter)
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return c.listPage(ctx, client, bucket, query, pageSize, nil)
}

func (c *Connector) listPage(ctx context.Context, client *s3.Client, bucket, query string, pageSize int, token *string) (*domain.SearchResults, error) {
	keys := int32(pageSize)
	if query != "" {
		keys = maxListKeys
	}
	out, err := client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:            aws.String(bucket),
		MaxKeys:           aws.Int32(keys),
		ContinuationToken: token,
	})
	if err != nil {
		return nil, fmt.Errorf("list objects in %s: %w", bucket, err)
	}

	page := &domain.SearchResults{Items: toItems(out.Contents, query)}
	if aws.ToBool(out.IsTruncated) {
		next := out.NextContinuationToken
		page.NextPage = func(ctx context.Context) (*domain.SearchResults, error) {
			return c.listPage(ctx, client, bucket, query, pageSize, next)
		}
	}
	return page, nil
}

// toItems converts listed objects to pending items, applying the optional
// query as a case-insensitive substring match on the key.
func toItems(objects []s3types.Object, query string) []domain.SyncItem {
	query = strings.ToLower(query)
	items := make([]domain.SyncItem, 0, len(objects))
	for _, obj := range objects {
		key := aws.ToString(obj.Key)
		if strings.HasSuffix(key, "/") {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(key), query) {
			continue
		}
		items = append(items, domain.NewSyncItem(key, path.Base(key)))
	}
	return items
}

// Download implements driven.SourceConnector.
func (c *Connector) Download(ctx context.Context, item domain.SyncItem) (io.ReadCloser, error) {
	client, err := c.getClient(ctx)
	if err != nil {
		return nil, err
	}
	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.params["bucket"]),
		Key:    aws.String(item.OriginalID),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrItemNotFound, item.OriginalID)
		}
		return nil, fmt.Errorf("get object %s: %w", item.OriginalID, err)
	}
	return out.Body, nil
}

// GetLink implements driven.LinkProvider with a presigned GET URL.
func (c *Connector) GetLink(ctx context.Context, item domain.SyncItem) (*domain.Link, error) {
	client, err := c.getClient(ctx)
	if err != nil {
		return nil, err
	}
	presigner := s3.NewPresignClient(client)
	req, err := presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.params["bucket"]),
		Key:    aws.String(item.OriginalID),
	}, s3.WithPresignExpires(linkExpiry))
	if err != nil {
		return nil, fmt.Errorf("presign %s: %w", item.OriginalID, err)
	}
	return &domain.Link{URI: req.URL}, nil
}

// isNotFound checks whether the error indicates a missing S3 object.
func isNotFound(err error) bool {
	var nsk *s3types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	return strings.Contains(err.Error(), "NoSuchKey") || strings.Contains(err.Error(), "NotFound")
}
