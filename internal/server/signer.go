package server

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/zarvd/github-app-signer/internal/key"
)

// signer holds the handler logic shared by every ExternalJWTSigner API
// version. The versioned servers only convert to and from their messages.
type signer struct {
	logger *slog.Logger
	km     key.KeyManager
}

func (s *signer) sign(ctx context.Context, encodedClaims string) (*key.SignedToken, error) {
	logger := s.logger.With(slog.String("method", "Sign"))

	if err := validateClaims(encodedClaims); err != nil {
		logger.Error("invalid claims", slog.Any("error", err))
		return nil, status.Errorf(codes.InvalidArgument, "not a valid base64url encoded JWT claims")
	}

	signed, err := s.km.Sign(ctx, encodedClaims)
	if err != nil {
		logger.Error("failed to sign JWT", slog.Any("error", err))
		return nil, status.Errorf(codes.Internal, "not able to sign JWT")
	}
	logger.Info("signed JWT", slog.String("key-id", signed.KeyID))
	return signed, nil
}

type keySet struct {
	keys               []*key.PublicKey
	loadedAt           time.Time
	refreshHintSeconds int64
}

func (s *signer) fetchKeys() keySet {
	// Ask clients to refetch keys twice per token lifetime.
	rv := keySet{
		keys:               s.km.PublicKeys(),
		loadedAt:           s.km.LoadedAt(),
		refreshHintSeconds: int64(s.km.Expiration() / time.Second / 2),
	}

	keyIDs := make([]string, 0, len(rv.keys))
	for _, publicKey := range rv.keys {
		keyIDs = append(keyIDs, publicKey.KeyID)
	}
	s.logger.Info("fetched keys",
		slog.String("method", "FetchKeys"),
		slog.Any("key-ids", keyIDs),
		slog.Time("data-timestamp", rv.loadedAt),
		slog.Int64("refresh-hint-seconds", rv.refreshHintSeconds),
	)
	return rv
}

func (s *signer) maxTokenExpirationSeconds() int64 {
	rv := int64(s.km.Expiration() / time.Second)
	s.logger.Info("fetched metadata",
		slog.String("method", "Metadata"),
		slog.Int64("max-token-expiration-seconds", rv),
	)
	return rv
}
