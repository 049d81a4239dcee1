package db

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/rds/auth"
)

// rdsTokenLifetime is how long an RDS IAM auth token stays valid.
const rdsTokenLifetime = 15 * time.Minute

// AWSIAMTokenProvider builds RDS IAM authentication tokens.
// Credentials come from the default AWS chain (environment, shared config, instance role)
// unless set with WithAWSCredentials.
type AWSIAMTokenProvider struct {
	endpoint string // host:port
	region   string
	username string

	mu          sync.Mutex
	credentials aws.CredentialsProvider
}

// AWSOption configures an AWSIAMTokenProvider.
type AWSOption func(*AWSIAMTokenProvider)

// WithAWSCredentials skips the default credential chain.
func WithAWSCredentials(creds aws.CredentialsProvider) AWSOption {
	return func(p *AWSIAMTokenProvider) { p.credentials = creds }
}

// NewAWSIAMTokenProvider creates a token provider for AWS RDS IAM authentication.
// endpoint is host:port of the RDS instance, username the IAM-enabled database user.
func NewAWSIAMTokenProvider(endpoint, region, username string, opts ...AWSOption) (*AWSIAMTokenProvider, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("AWS IAM auth requires endpoint (host:port)")
	}
	if region == "" {
		return nil, fmt.Errorf("AWS IAM auth requires region (use --aws-region or $AWS_REGION)")
	}
	if username == "" {
		return nil, fmt.Errorf("AWS IAM auth requires database username (-U)")
	}

	p := &AWSIAMTokenProvider{
		endpoint: endpoint,
		region:   region,
		username: username,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// GetToken signs a fresh RDS auth token. Signing is local; no AWS call is made
// beyond resolving credentials.
func (p *AWSIAMTokenProvider) GetToken(ctx context.Context) (string, time.Time, error) {
	creds, err := p.resolveCredentials(ctx)
	if err != nil {
		return "", time.Time{}, err
	}

	token, err := auth.BuildAuthToken(ctx, p.endpoint, p.region, p.username, creds)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to build RDS auth token: %w", err)
	}

	return token, time.Now().Add(rdsTokenLifetime), nil
}

func (p *AWSIAMTokenProvider) resolveCredentials(ctx context.Context) (aws.CredentialsProvider, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.credentials != nil {
		return p.credentials, nil
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(p.region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	p.credentials = cfg.Credentials
	return p.credentials, nil
}

// String returns a human-readable representation of the provider.
func (p *AWSIAMTokenProvider) String() string {
	return fmt.Sprintf("AWSIAMTokenProvider(endpoint=%s, region=%s, user=%s)", p.endpoint, p.region, p.username)
}
