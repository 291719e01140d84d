package server

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net"
	"os"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	v1 "k8s.io/externaljwt/apis/v1"
	"k8s.io/externaljwt/apis/v1alpha1"

	"github.com/zarvd/github-app-signer/internal/key"
)

const bufSize = 1024 * 1024

func newTestConn(t *testing.T, expiry time.Duration) *grpc.ClientConn {
	t.Helper()

	pemData, err := os.ReadFile("../key/testdata/pkcs8.pem")
	require.NoError(t, err)
	signingKey, err := key.NewSigningKey(string(pemData), "test-key")
	require.NoError(t, err)
	km, err := key.NewStaticKeyManager(slog.Default(), signingKey, expiry)
	require.NoError(t, err)

	lis := bufconn.Listen(bufSize)
	s := grpc.NewServer()
	v1.RegisterExternalJWTSignerServer(s, NewV1Server(slog.Default(), km))
	v1alpha1.RegisterExternalJWTSignerServer(s, NewV1Alpha1Server(slog.Default(), km))
	go func() {
		_ = s.Serve(lis)
	}()
	t.Cleanup(s.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func encodeClaims(t *testing.T, claims map[string]any) string {
	t.Helper()
	raw, err := json.Marshal(claims)
	require.NoError(t, err)
	return base64.RawURLEncoding.EncodeToString(raw)
}

func verify(t *testing.T, token string, der []byte) jwt.MapClaims {
	t.Helper()
	pub, err := x509.ParsePKIXPublicKey(der)
	require.NoError(t, err)
	rsaPub, ok := pub.(*rsa.PublicKey)
	require.True(t, ok)

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return rsaPub, nil
	}, jwt.WithValidMethods([]string{"RS256"}))
	require.NoError(t, err)
	assert.Equal(t, "test-key", parsed.Header["kid"])
	return claims
}

func TestV1Server(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client := v1.NewExternalJWTSignerClient(newTestConn(t, 10*time.Minute))

	t.Run("sign and verify", func(t *testing.T) {
		payload := encodeClaims(t, map[string]any{"iss": "123"})
		resp, err := client.Sign(ctx, &v1.SignJWTRequest{Claims: payload})
		require.NoError(t, err)

		keys, err := client.FetchKeys(ctx, &v1.FetchKeysRequest{})
		require.NoError(t, err)
		require.Len(t, keys.Keys, 1)
		assert.Equal(t, "test-key", keys.Keys[0].KeyId)
		assert.Equal(t, int64(300), keys.RefreshHintSeconds)

		claims := verify(t, resp.Header+"."+payload+"."+resp.Signature, keys.Keys[0].Key)
		assert.Equal(t, "123", claims["iss"])
	})

	t.Run("invalid claims", func(t *testing.T) {
		for _, claims := range []string{
			"",
			"not base64!",
			base64.RawURLEncoding.EncodeToString([]byte("[1,2]")),
			base64.RawURLEncoding.EncodeToString([]byte("null")),
		} {
			_, err := client.Sign(ctx, &v1.SignJWTRequest{Claims: claims})
			require.Error(t, err)
			assert.Equal(t, codes.InvalidArgument, status.Code(err))
		}
	})

	t.Run("metadata", func(t *testing.T) {
		resp, err := client.Metadata(ctx, &v1.MetadataRequest{})
		require.NoError(t, err)
		assert.Equal(t, int64(600), resp.MaxTokenExpirationSeconds)
	})
}

func TestV1Alpha1Server(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client := v1alpha1.NewExternalJWTSignerClient(newTestConn(t, 10*time.Minute))

	payload := encodeClaims(t, map[string]any{"iss": "456"})
	resp, err := client.Sign(ctx, &v1alpha1.SignJWTRequest{Claims: payload})
	require.NoError(t, err)

	keys, err := client.FetchKeys(ctx, &v1alpha1.FetchKeysRequest{})
	require.NoError(t, err)
	require.Len(t, keys.Keys, 1)

	claims := verify(t, resp.Header+"."+payload+"."+resp.Signature, keys.Keys[0].Key)
	assert.Equal(t, "456", claims["iss"])

	for _, claims := range []string{"%%%", base64.RawURLEncoding.EncodeToString([]byte("null"))} {
		_, err = client.Sign(ctx, &v1alpha1.SignJWTRequest{Claims: claims})
		assert.Equal(t, codes.InvalidArgument, status.Code(err))
	}

	meta, err := client.Metadata(ctx, &v1alpha1.MetadataRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(600), meta.MaxTokenExpirationSeconds)
}

func TestV1Server_OddExpiry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client := v1.NewExternalJWTSignerClient(newTestConn(t, 90*time.Second))

	meta, err := client.Metadata(ctx, &v1.MetadataRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(90), meta.MaxTokenExpirationSeconds)

	keys, err := client.FetchKeys(ctx, &v1.FetchKeysRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(45), keys.RefreshHintSeconds)
}
