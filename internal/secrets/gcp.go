package secrets

import (
	"context"
	"errors"
	"fmt"
	"hash/crc32"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"jobboard/internal/config"
)

// secretVersionAccessor is the subset of *secretmanager.Client we use.
type secretVersionAccessor interface {
	AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest, opts ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error)
	Close() error
}

// GCPBackend reads secrets from Google Cloud Secret Manager.
type GCPBackend struct {
	client    secretVersionAccessor
	projectID string
}

// NewGCPBackend creates a Secret Manager client. On Cloud Run the ambient
// service account is used; credentialsFile overrides it for local runs.
func NewGCPBackend(ctx context.Context, projectID, credentialsFile string) (*GCPBackend, error) {
	if projectID == "" {
		return nil, fmt.Errorf("gcp secret backend: project id is required")
	}
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := secretmanager.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create secret manager client: %w", err)
	}
	return &GCPBackend{client: client, projectID: projectID}, nil
}

func (b *GCPBackend) Name() string { return config.BackendGCP }

func (b *GCPBackend) resourceName(id string) string {
	return fmt.Sprintf("projects/%s/secrets/%s/versions/latest", b.projectID, id)
}

// Access fetches the latest version of id and checks the payload checksum
// when the service supplies one.
func (b *GCPBackend) Access(ctx context.Context, id string) ([]byte, error) {
	resp, err := b.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: b.resourceName(id),
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("access %s: %w", id, err)
	}
	payload := resp.GetPayload()
	if payload == nil || len(payload.GetData()) == 0 {
		return nil, fmt.Errorf("%s: %w", id, ErrEmptyPayload)
	}
	if payload.DataCrc32C != nil {
		sum := int64(crc32.Checksum(payload.GetData(), crc32.MakeTable(crc32.Castagnoli)))
		if sum != payload.GetDataCrc32C() {
			return nil, fmt.Errorf("%s: %w", id, errChecksumMismatch)
		}
	}
	return payload.GetData(), nil
}

func (b *GCPBackend) Close() error { return b.client.Close() }

var errChecksumMismatch = errors.New("payload checksum mismatch")
