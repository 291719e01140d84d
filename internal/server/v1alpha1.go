package server

import (
	"context"
	"log/slog"

	"google.golang.org/protobuf/types/known/timestamppb"
	v1alpha1 "k8s.io/externaljwt/apis/v1alpha1"

	"github.com/zarvd/github-app-signer/internal/key"
)

type V1Alpha1Server struct {
	v1alpha1.UnimplementedExternalJWTSignerServer

	signer
}

func NewV1Alpha1Server(logger *slog.Logger, km key.KeyManager) *V1Alpha1Server {
	return &V1Alpha1Server{
		signer: signer{logger: logger, km: km},
	}
}

func (svr *V1Alpha1Server) Sign(ctx context.Context, req *v1alpha1.SignJWTRequest) (*v1alpha1.SignJWTResponse, error) {
	signed, err := svr.sign(ctx, req.Claims)
	if err != nil {
		return nil, err
	}
	return &v1alpha1.SignJWTResponse{
		Header:    signed.Header,
		Signature: signed.Signature,
	}, nil
}

func (svr *V1Alpha1Server) FetchKeys(ctx context.Context, req *v1alpha1.FetchKeysRequest) (*v1alpha1.FetchKeysResponse, error) {
	set := svr.fetchKeys()

	keys := make([]*v1alpha1.Key, 0, len(set.keys))
	for _, publicKey := range set.keys {
		keys = append(keys, &v1alpha1.Key{
			KeyId: publicKey.KeyID,
			Key:   publicKey.Key,
		})
	}
	return &v1alpha1.FetchKeysResponse{
		Keys:               keys,
		DataTimestamp:      timestamppb.New(set.loadedAt),
		RefreshHintSeconds: set.refreshHintSeconds,
	}, nil
}

func (svr *V1Alpha1Server) Metadata(ctx context.Context, req *v1alpha1.MetadataRequest) (*v1alpha1.MetadataResponse, error) {
	return &v1alpha1.MetadataResponse{
		MaxTokenExpirationSeconds: svr.maxTokenExpirationSeconds(),
	}, nil
}
