package server

import (
	"context"
	"log/slog"

	"google.golang.org/protobuf/types/known/timestamppb"
	v1 "k8s.io/externaljwt/apis/v1"

	"github.com/zarvd/github-app-signer/internal/key"
)

type V1Server struct {
	v1.UnimplementedExternalJWTSignerServer

	signer
}

func NewV1Server(logger *slog.Logger, km key.KeyManager) *V1Server {
	return &V1Server{
		signer: signer{logger: logger, km: km},
	}
}

func (svr *V1Server) Sign(ctx context.Context, req *v1.SignJWTRequest) (*v1.SignJWTResponse, error) {
	signed, err := svr.sign(ctx, req.Claims)
	if err != nil {
		return nil, err
	}
	return &v1.SignJWTResponse{
		Header:    signed.Header,
		Signature: signed.Signature,
	}, nil
}

func (svr *V1Server) FetchKeys(ctx context.Context, req *v1.FetchKeysRequest) (*v1.FetchKeysResponse, error) {
	set := svr.fetchKeys()

	keys := make([]*v1.Key, 0, len(set.keys))
	for _, publicKey := range set.keys {
		keys = append(keys, &v1.Key{
			KeyId: publicKey.KeyID,
			Key:   publicKey.Key,
		})
	}
	return &v1.FetchKeysResponse{
		Keys:               keys,
		DataTimestamp:      timestamppb.New(set.loadedAt),
		RefreshHintSeconds: set.refreshHintSeconds,
	}, nil
}

func (svr *V1Server) Metadata(ctx context.Context, req *v1.MetadataRequest) (*v1.MetadataResponse, error) {
	return &v1.MetadataResponse{
		MaxTokenExpirationSeconds: svr.maxTokenExpirationSeconds(),
	}, nil
}
