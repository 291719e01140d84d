package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"google.golang.org/grpc"
	v1 "k8s.io/externaljwt/apis/v1"
	"k8s.io/externaljwt/apis/v1alpha1"

	"github.com/zarvd/github-app-signer/internal/key"
	"github.com/zarvd/github-app-signer/internal/server"
	"github.com/zarvd/github-app-signer/internal/token"
)

type CLI struct {
	Debug bool `help:"Enable debug logging"`

	Token TokenCmd `cmd:"" help:"Print a GitHub App JWT"`
	Serve ServeCmd `cmd:"" help:"Serve an ExternalJWTSigner backed by a PKCS#8 key"`
}

type TokenCmd struct {
	AppID      string        `required:"" env:"GITHUB_APP_ID" help:"GitHub App ID used as the issuer claim"`
	PrivateKey string        `required:"" type:"filecontent" env:"GITHUB_APP_PRIVATE_KEY" help:"Path to PKCS#8 PEM private key"`
	Validity   time.Duration `default:"10m" help:"Token lifetime"`
}

func (cmd *TokenCmd) Run(logger *slog.Logger) error {
	if err := token.CheckValidity(cmd.Validity); err != nil {
		return err
	}
	issuer := token.NewIssuer(
		token.WithLogger(logger),
		token.WithValidity(cmd.Validity),
	)
	jwt, err := issuer.CreateToken(cmd.AppID, cmd.PrivateKey)
	if err != nil {
		return fmt.Errorf("failed to create token: %w", err)
	}
	fmt.Println(jwt)
	return nil
}

type ServeCmd struct {
	UnixDomainSocket string        `arg:"" required:"" help:"Unix domain socket to listen on"`
	PrivateKey       string        `arg:"" type:"filecontent" required:"" help:"Path to PKCS#8 PEM private key"`
	KeyID            string        `help:"Key ID to publish, defaults to the SHA-256 of the public key"`
	Validity         time.Duration `default:"10m" help:"Maximum token lifetime reported to clients"`
}

func (cmd *ServeCmd) Run(ctx context.Context, logger *slog.Logger) error {
	signingKey, err := key.NewSigningKey(cmd.PrivateKey, cmd.KeyID)
	if err != nil {
		return fmt.Errorf("failed to decode signing key: %w", err)
	}
	km, err := key.NewStaticKeyManager(logger, signingKey, cmd.Validity)
	if err != nil {
		return fmt.Errorf("failed to create key manager: %w", err)
	}

	grpcServer := grpc.NewServer()
	v1.RegisterExternalJWTSignerServer(grpcServer, server.NewV1Server(logger, km))
	v1alpha1.RegisterExternalJWTSignerServer(grpcServer, server.NewV1Alpha1Server(logger, km))

	listener, err := net.Listen("unix", cmd.UnixDomainSocket)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	defer listener.Close()

	go func() {
		logger.Info("serving on", slog.String("address", listener.Addr().String()))
		if err := grpcServer.Serve(listener); err != nil {
			logger.Error("failed to serve", slog.Any("error", err))
		}
	}()

	<-ctx.Done()
	grpcServer.GracefulStop()
	logger.Info("shutting down")
	return nil
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var cli CLI
	cliCtx := kong.Parse(&cli, kong.Name("signer"))

	level := slog.LevelInfo
	if cli.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cliCtx.BindTo(ctx, (*context.Context)(nil))
	cliCtx.Bind(logger)

	if err := cliCtx.Run(); err != nil {
		logger.Error("failed to run CLI", slog.Any("error", err))
		os.Exit(1)
	}
}
