package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"clientportal/internal/app"
	"clientportal/internal/identity"
	"clientportal/internal/repo"
	"clientportal/internal/server"
)

func serveCmd() *cobra.Command {
	var addr, basePath string
	var devLogin bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			secret := viper.GetString("jwt-secret")
			if secret == "" {
				return fmt.Errorf("PORTAL_JWT_SECRET is required for bearer auth")
			}
			return withWorkspace(cmd.Context(), func(ctx context.Context, ws *app.Workspace) error {
				if !cmd.Flags().Changed("addr") {
					addr = ws.Config.Server.Addr
				}
				if !cmd.Flags().Changed("base-path") {
					basePath = ws.Config.Server.BasePath
				}
				logger := log.New(os.Stderr, "portal: ", log.LstdFlags)
				handler, err := server.New(server.Config{
					Engine:   ws.Engine,
					BasePath: basePath,
					DB:       ws.DB,
					Auth: server.AuthConfig{
						JWTSecret: secret,
						Issuer:    ws.Config.Auth.Issuer,
						TokenTTL:  ws.Config.TokenTTL(),
						DevLogin:  devLogin,
						Logger:    logger,
					},
				})
				if err != nil {
					return err
				}
				ctx, cancel := context.WithCancel(ctx)
				defer cancel()
				server.StartWebhookDispatcher(ctx, repo.New(ws.DB), ws.Config.Webhooks, logger)

				srv := &http.Server{Addr: addr, Handler: handler}
				go func() {
					<-ctx.Done()
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					srv.Shutdown(shutdownCtx)
				}()
				fmt.Printf("Serving client portal API on http://%s%s (OpenAPI at %s/openapi.json, Swagger UI at /docs)\n", addr, basePath, basePath)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address (default from portal.yml)")
	cmd.Flags().StringVar(&basePath, "base-path", "/v0", "API base path (default from portal.yml)")
	cmd.Flags().BoolVar(&devLogin, "dev-login", false, "enable POST /auth/dev/login")
	return cmd
}

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "token", Short: "Session tokens"}
	var userID string
	var ttl time.Duration
	issue := &cobra.Command{
		Use:   "issue",
		Short: "Mint a session token signed with PORTAL_JWT_SECRET",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd.Context(), func(ctx context.Context, ws *app.Workspace) error {
				if !cmd.Flags().Changed("ttl") {
					ttl = ws.Config.TokenTTL()
				}
				token, err := identity.IssueToken(viper.GetString("jwt-secret"), ws.Config.Auth.Issuer, userID, ttl, time.Now())
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(map[string]string{"token": token})
				}
				fmt.Println(token)
				return nil
			})
		},
	}
	issue.Flags().StringVar(&userID, "for", "", "user id the token is issued to")
	issue.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default from portal.yml)")
	_ = issue.MarkFlagRequired("for")
	cmd.AddCommand(issue)
	return cmd
}
