package provider

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"textdrive/internal/models"
)

// Config holds the S3 connection settings.
type Config struct {
	Endpoint        string `yaml:"endpoint"`
	Region          string `yaml:"region"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	PathStyle       bool   `yaml:"path_style"`
	LinkTTLMinutes  int    `yaml:"link_ttl_minutes"`
}

const defaultLinkTTL = 60 * time.Minute

// S3Provider serves the navigation tree out of S3-compatible object
// storage. Each linked account maps to a bucket+prefix; folders are key
// prefixes and shareable links are presigned GET URLs.
type S3Provider struct {
	client  *s3.Client
	presign *s3.PresignClient
	dir     AccountDirectory
	linkTTL time.Duration
}

// NewS3Provider builds a provider from config and an account directory.
func NewS3Provider(ctx context.Context, cfg Config, dir AccountDirectory) (*S3Provider, error) {
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.PathStyle
	})

	ttl := defaultLinkTTL
	if cfg.LinkTTLMinutes > 0 {
		ttl = time.Duration(cfg.LinkTTLMinutes) * time.Minute
	}

	return &S3Provider{
		client:  client,
		presign: s3.NewPresignClient(client),
		dir:     dir,
		linkTTL: ttl,
	}, nil
}

// ListAccounts returns the accounts linked to an identity, in directory
// order.
func (p *S3Provider) ListAccounts(_ context.Context, identity string) ([]Account, error) {
	stored, err := p.dir.AccountsFor(identity)
	if err != nil {
		return nil, fmt.Errorf("failed to look up linked accounts: %w", err)
	}

	accounts := make([]Account, 0, len(stored))
	for _, a := range stored {
		accounts = append(accounts, Account{ID: a.ID, Service: a.Service, Label: a.Label})
	}
	return accounts, nil
}

// ListChildren lists the folders and files directly under folderID in the
// given account. folderID is either the account-root marker or a key
// prefix produced by an earlier listing.
func (p *S3Provider) ListChildren(ctx context.Context, accountID, folderID string) ([]Entry, error) {
	acct, err := p.dir.Account(accountID)
	if err != nil {
		return nil, fmt.Errorf("unknown account %s: %w", accountID, err)
	}

	prefix := listPrefix(acct, folderID)

	var entries []Entry
	paginator := s3.NewListObjectsV2Paginator(p.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(acct.Bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, classify(err)
		}

		for _, cp := range page.CommonPrefixes {
			if cp.Prefix == nil {
				continue
			}
			entries = append(entries, Entry{
				Kind: models.KindFolder,
				ID:   *cp.Prefix,
				Name: entryName(*cp.Prefix),
			})
		}
		for _, obj := range page.Contents {
			if obj.Key == nil || *obj.Key == prefix {
				// Skip the zero-byte placeholder object some tools
				// create for the folder itself.
				continue
			}
			entries = append(entries, Entry{
				Kind: models.KindFile,
				ID:   *obj.Key,
				Name: entryName(*obj.Key),
			})
		}
	}

	return entries, nil
}

// CreateLink mints a presigned GET URL for a file in the account's bucket.
func (p *S3Provider) CreateLink(ctx context.Context, accountID, fileID string) (string, error) {
	acct, err := p.dir.Account(accountID)
	if err != nil {
		return "", fmt.Errorf("unknown account %s: %w", accountID, err)
	}

	req, err := p.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(acct.Bucket),
		Key:    aws.String(fileID),
	}, s3.WithPresignExpires(p.linkTTL))
	if err != nil {
		return "", classify(err)
	}

	return req.URL, nil
}

// listPrefix resolves a folder id to the S3 key prefix to list under.
func listPrefix(acct *models.StorageAccount, folderID string) string {
	if folderID == models.AccountRoot || folderID == "" {
		prefix := acct.Prefix
		if prefix != "" && !strings.HasSuffix(prefix, "/") {
			prefix += "/"
		}
		return prefix
	}
	return folderID
}

// entryName derives the display name of a key or prefix: the last path
// element, without the trailing delimiter.
func entryName(key string) string {
	return path.Base(strings.TrimSuffix(key, "/"))
}

// classify keeps the S3 error code in the wrapped message so provider
// failures stay diagnosable from the server log.
func classify(err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("storage provider error %s: %s", apiErr.ErrorCode(), apiErr.ErrorMessage())
	}
	return err
}
