package db

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vvka-141/pgload/pkg/pgload"
)

func TestWrapConnectionError(t *testing.T) {
	tests := []struct {
		name         string
		errMsg       string
		host         string
		port         int
		database     string
		wantContains string
	}{
		{"connection refused", "dial tcp 127.0.0.1:5432: connection refused", "127.0.0.1", 5432, "ny_taxi", "connection refused to 127.0.0.1:5432"},
		{"actively refused (Windows)", "connectex: No connection could be made because the target machine actively refused it", "127.0.0.1", 5432, "ny_taxi", "connection refused to 127.0.0.1:5432"},
		{"no such host", "dial tcp: lookup pgdatabase: no such host", "pgdatabase", 5432, "ny_taxi", `cannot resolve host "pgdatabase"`},
		{"password auth failed", `password authentication failed for user "root"`, "localhost", 5432, "ny_taxi", `password authentication failed for database "ny_taxi"`},
		{"database does not exist", `database "nope" does not exist`, "localhost", 5432, "nope", `database "nope" does not exist`},
		{"timeout", "dial tcp 10.0.0.1:5432: i/o timeout", "10.0.0.1", 5432, "ny_taxi", "connection timed out to 10.0.0.1:5432"},
		{"TLS error", "tls: handshake failure", "localhost", 5432, "ny_taxi", "SSL/TLS connection error"},
		{"too many connections", "FATAL: too many connections for role", "localhost", 5432, "busydb", `too many connections to database "busydb"`},
		{"unknown error falls through", "something unexpected", "localhost", 5432, "ny_taxi", "failed to connect to database"},
		{"case insensitive", "CONNECTION REFUSED by firewall", "fw.host", 5433, "ny_taxi", "connection refused to fw.host:5433"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			originalErr := errors.New(tt.errMsg)
			wrapped := wrapConnectionError(originalErr, tt.host, tt.port, tt.database)

			if !strings.Contains(wrapped.Error(), tt.wantContains) {
				t.Errorf("wrapConnectionError() = %q, want it to contain %q", wrapped.Error(), tt.wantContains)
			}
			if !errors.Is(wrapped, originalErr) {
				t.Error("wrapped error does not unwrap to original error")
			}
		})
	}
}

func TestWrapConnectionError_DeadlineExceeded(t *testing.T) {
	wrapped := wrapConnectionError(context.DeadlineExceeded, "slow.host", 5432, "ny_taxi")
	assert.Contains(t, wrapped.Error(), "connection timed out to slow.host:5432")
	assert.ErrorIs(t, wrapped, context.DeadlineExceeded)
}

func TestNewConnector(t *testing.T) {
	base := pgload.ConnectionConfig{Host: "db.example.com", Port: 5432, Database: "ny_taxi", Username: "loader"}

	t.Run("standard", func(t *testing.T) {
		cfg := base
		connector, err := NewConnector(&cfg)
		require.NoError(t, err)
		assert.IsType(t, &StandardConnector{}, connector)
	})

	t.Run("aws", func(t *testing.T) {
		cfg := base
		cfg.AuthMethod = pgload.AuthMethodAWSIAM
		cfg.AWSRegion = "us-east-1"
		connector, err := NewConnector(&cfg)
		require.NoError(t, err)
		assert.IsType(t, &TokenBasedConnector{}, connector)
	})

	t.Run("aws without region", func(t *testing.T) {
		cfg := base
		cfg.AuthMethod = pgload.AuthMethodAWSIAM
		_, err := NewConnector(&cfg)
		assert.ErrorIs(t, err, pgload.ErrInvalidConfig)
	})

	t.Run("azure service principal", func(t *testing.T) {
		cfg := base
		cfg.AuthMethod = pgload.AuthMethodAzureEntraID
		cfg.AzureTenantID = "tenant"
		cfg.AzureClientID = "client"
		cfg.AzureClientSecret = "secret"
		connector, err := NewConnector(&cfg)
		require.NoError(t, err)
		tc, ok := connector.(*TokenBasedConnector)
		require.True(t, ok)
		assert.Contains(t, tc.tokenProvider.String(), "AzureServicePrincipal(tenant=tenant, client=client)")
	})

	t.Run("google", func(t *testing.T) {
		cfg := base
		cfg.AuthMethod = pgload.AuthMethodGoogleIAM
		cfg.GoogleInstance = "proj:region:inst"
		connector, err := NewConnector(&cfg)
		require.NoError(t, err)
		gc, ok := connector.(*GoogleCloudSQLConnector)
		require.True(t, ok)
		assert.NoError(t, gc.Close(), "closing an unused connector is a no-op")
	})

	t.Run("google without instance", func(t *testing.T) {
		cfg := base
		cfg.AuthMethod = pgload.AuthMethodGoogleIAM
		_, err := NewConnector(&cfg)
		assert.ErrorIs(t, err, pgload.ErrInvalidConfig)
	})

	t.Run("unknown", func(t *testing.T) {
		cfg := base
		cfg.AuthMethod = pgload.AuthMethod(99)
		_, err := NewConnector(&cfg)
		assert.ErrorIs(t, err, pgload.ErrUnsupportedAuthMethod)
	})
}

func TestStandardConnector_UnreachableHost(t *testing.T) {
	config := &pgload.ConnectionConfig{
		Host:     "nonexistent.invalid",
		Port:     5432,
		Database: "ny_taxi",
		Username: "root",
		Password: "root",
		SSLMode:  "disable",
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := NewStandardConnector(config).Connect(ctx)
	require.Error(t, err)

	var connErr *pgload.ConnectionError
	require.True(t, errors.As(err, &connErr), "expected *pgload.ConnectionError, got %T", err)
	assert.Equal(t, "nonexistent.invalid", connErr.Host)
	assert.Equal(t, "ny_taxi", connErr.Database)
	assert.Equal(t, pgload.ExitConnectionError, pgload.ExitCodeForError(err))
}

type mockTokenProvider struct {
	token     string
	expiresOn time.Time
	err       error
	calls     int
}

func (m *mockTokenProvider) GetToken(context.Context) (string, time.Time, error) {
	m.calls++
	if m.err != nil {
		return "", time.Time{}, m.err
	}
	return m.token, m.expiresOn, nil
}

func (m *mockTokenProvider) String() string { return "mockTokenProvider" }

func TestTokenBasedConnector_TokenFailure(t *testing.T) {
	config := &pgload.ConnectionConfig{Host: "db.example.com", Port: 5432, Database: "ny_taxi"}
	provider := &mockTokenProvider{err: errors.New("expired credentials")}

	_, err := NewTokenBasedConnector(config, provider, "Azure").Connect(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, pgload.ErrConnectionFailed)
	assert.Contains(t, err.Error(), "failed to acquire Azure token")
	assert.Equal(t, 1, provider.calls, "no retry")
}

func TestTokenBasedConnector_WarnsOnShortLivedToken(t *testing.T) {
	config := &pgload.ConnectionConfig{Host: "nonexistent.invalid", Port: 5432, Database: "ny_taxi", SSLMode: "disable"}
	provider := &mockTokenProvider{token: "tok", expiresOn: time.Now().Add(time.Minute)}

	connector := NewTokenBasedConnector(config, provider, "AWS IAM")
	var warn strings.Builder
	connector.warn = &warn

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := connector.Connect(ctx)

	assert.ErrorIs(t, err, pgload.ErrConnectionFailed)
	assert.Contains(t, warn.String(), "Warning: AWS IAM token expires in")
}

func TestAWSIAMTokenProvider(t *testing.T) {
	_, err := NewAWSIAMTokenProvider("", "us-east-1", "loader")
	assert.Error(t, err)
	_, err = NewAWSIAMTokenProvider("db:5432", "", "loader")
	assert.Error(t, err)
	_, err = NewAWSIAMTokenProvider("db:5432", "us-east-1", "")
	assert.Error(t, err)

	creds := credentials.NewStaticCredentialsProvider("AKIDEXAMPLE", "secret", "")
	provider, err := NewAWSIAMTokenProvider("trips.cluster.us-east-1.rds.amazonaws.com:5432", "us-east-1", "loader", WithAWSCredentials(creds))
	require.NoError(t, err)

	token, expiresOn, err := provider.GetToken(context.Background())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(token, "trips.cluster.us-east-1.rds.amazonaws.com:5432"), token)
	assert.Contains(t, token, "Action=connect")
	assert.Contains(t, token, "DBUser=loader")
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresOn, time.Minute)
	assert.NotContains(t, provider.String(), "secret")
}

type fakeAzureCredential struct {
	scopes []string
	err    error
}

func (f *fakeAzureCredential) GetToken(_ context.Context, opts policy.TokenRequestOptions) (azcore.AccessToken, error) {
	f.scopes = opts.Scopes
	if f.err != nil {
		return azcore.AccessToken{}, f.err
	}
	return azcore.AccessToken{Token: "entra-token", ExpiresOn: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)}, nil
}

func TestAzureTokenProvider(t *testing.T) {
	cred := &fakeAzureCredential{}
	provider := NewAzureTokenProvider(cred, "fake")

	token, expiresOn, err := provider.GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "entra-token", token)
	assert.Equal(t, 2030, expiresOn.Year())
	assert.Equal(t, []string{AzurePostgreSQLScope}, cred.scopes)
	assert.Equal(t, "fake", provider.String())

	cred.err = errors.New("no identity")
	_, _, err = provider.GetToken(context.Background())
	assert.ErrorContains(t, err, "azure token acquisition failed")
}

func TestNewAzureServicePrincipalProvider_RequiresAllParams(t *testing.T) {
	tests := []struct {
		name                             string
		tenantID, clientID, clientSecret string
		wantErr                          bool
	}{
		{"all params", "tenant", "client", "secret", false},
		{"missing tenant", "", "client", "secret", true},
		{"missing client", "tenant", "", "secret", true},
		{"missing secret", "tenant", "client", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAzureServicePrincipalProvider(tt.tenantID, tt.clientID, tt.clientSecret)
			assert.Equal(t, tt.wantErr, err != nil, "err = %v", err)
		})
	}
}

func TestNewConnAdapter_PanicsOnNil(t *testing.T) {
	assert.PanicsWithValue(t, "conn cannot be nil", func() { NewConnAdapter(nil) })
}
