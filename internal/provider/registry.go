// Package provider manages stored transfer destination backends and
// their encrypted credentials.
package provider

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"backhaul/internal/backup"
	"backhaul/internal/model"
	"backhaul/internal/secrets"
)

// Store is the persistence slice the registry needs.
type Store interface {
	CreateProvider(p *model.CloudProvider) error
	GetProvider(id string) (*model.CloudProvider, error)
	GetProviderByName(name string) (*model.CloudProvider, error)
	ListProviders() ([]*model.CloudProvider, error)
	SoftDeleteProvider(id string, now time.Time) error
}

// validTypes are the supported provider backends.
var validTypes = map[string]bool{
	"s3":    true,
	"b2":    true,
	"sftp":  true,
	"local": true,
}

// AddParams describes a provider to register. AccessKey and SecretKey
// are plaintext here and encrypted before storage.
type AddParams struct {
	Name       string
	Type       string
	RemoteName string
	Region     string
	Bucket     string
	Endpoint   string
	AccessKey  string
	SecretKey  string
}

// Registry is the cloud-provider service.
type Registry struct {
	store  Store
	keeper *secrets.Keeper
	logger backup.Logger
	clock  backup.Clock
	idgen  backup.IDGenerator
}

func NewRegistry(store Store, keeper *secrets.Keeper, logger backup.Logger, clock backup.Clock, idgen backup.IDGenerator) *Registry {
	return &Registry{store: store, keeper: keeper, logger: logger, clock: clock, idgen: idgen}
}

// Add registers a new provider. Credentials are encrypted with the
// configured public key; nothing is stored in plaintext.
func (r *Registry) Add(params AddParams) (*model.CloudProvider, error) {
	if params.Name == "" {
		return nil, fmt.Errorf("provider name is required")
	}
	if !validTypes[params.Type] {
		return nil, fmt.Errorf("unsupported provider type: %s", params.Type)
	}

	existing, err := r.store.GetProviderByName(params.Name)
	if err != nil {
		return nil, fmt.Errorf("checking for existing provider: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("provider already exists: %s", params.Name)
	}

	var encAccess, encSecret string
	if params.AccessKey != "" {
		if encAccess, err = r.keeper.EncryptString(params.AccessKey); err != nil {
			return nil, fmt.Errorf("encrypting access key: %w", err)
		}
	}
	if params.SecretKey != "" {
		if encSecret, err = r.keeper.EncryptString(params.SecretKey); err != nil {
			return nil, fmt.Errorf("encrypting secret key: %w", err)
		}
	}

	now := r.clock.Now()
	p := &model.CloudProvider{
		ID:                 r.idgen.New(),
		Name:               params.Name,
		Type:               params.Type,
		RemoteName:         params.RemoteName,
		Region:             params.Region,
		Bucket:             params.Bucket,
		Endpoint:           params.Endpoint,
		EncryptedAccessKey: encAccess,
		EncryptedSecretKey: encSecret,
		IsActive:           true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := r.store.CreateProvider(p); err != nil {
		return nil, fmt.Errorf("creating provider: %w", err)
	}

	r.logger.Info("provider registered", "name", p.Name, "type", p.Type)
	return p, nil
}

// Get returns a provider by id, or an error if it does not exist.
func (r *Registry) Get(id string) (*model.CloudProvider, error) {
	p, err := r.store.GetProvider(id)
	if err != nil {
		return nil, fmt.Errorf("loading provider: %w", err)
	}
	if p == nil || p.DeletedAt != nil {
		return nil, fmt.Errorf("provider not found: %s", id)
	}
	return p, nil
}

// List returns all non-deleted providers.
func (r *Registry) List() ([]*model.CloudProvider, error) {
	return r.store.ListProviders()
}

// Delete soft-deletes a provider. Existing execution logs keep their
// destination strings, so nothing else is touched.
func (r *Registry) Delete(id string) error {
	if _, err := r.Get(id); err != nil {
		return err
	}
	if err := r.store.SoftDeleteProvider(id, r.clock.Now()); err != nil {
		return fmt.Errorf("deleting provider: %w", err)
	}
	return nil
}

// Test checks that the provider's backend is reachable with its stored
// credentials. unlocked must hold the decryption key for s3 and b2
// providers.
func (r *Registry) Test(ctx context.Context, id string, unlocked *secrets.Unlocked) error {
	p, err := r.Get(id)
	if err != nil {
		return err
	}

	switch p.Type {
	case "s3", "b2":
		return r.testS3(ctx, p, unlocked)
	case "local":
		info, err := os.Stat(p.Bucket)
		if err != nil {
			return fmt.Errorf("local path not accessible: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("local path is not a directory: %s", p.Bucket)
		}
		return nil
	default:
		return fmt.Errorf("connectivity test not supported for type %s", p.Type)
	}
}

// testS3 issues a HeadBucket against the provider's bucket. B2 exposes
// an S3-compatible endpoint, so both types share the same check.
func (r *Registry) testS3(ctx context.Context, p *model.CloudProvider, unlocked *secrets.Unlocked) error {
	if unlocked == nil {
		return fmt.Errorf("credentials are locked; passphrase required")
	}
	accessKey, err := unlocked.DecryptString(p.EncryptedAccessKey)
	if err != nil {
		return fmt.Errorf("decrypting access key: %w", err)
	}
	secretKey, err := unlocked.DecryptString(p.EncryptedSecretKey)
	if err != nil {
		return fmt.Errorf("decrypting secret key: %w", err)
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(p.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")),
	)
	if err != nil {
		return fmt.Errorf("building client config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if p.Endpoint != "" {
			o.BaseEndpoint = aws.String(p.Endpoint)
			o.UsePathStyle = true
		}
	})

	if _, err := client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(p.Bucket)}); err != nil {
		return fmt.Errorf("bucket not reachable: %w", err)
	}
	r.logger.Info("provider connectivity verified", "name", p.Name, "bucket", p.Bucket)
	return nil
}
