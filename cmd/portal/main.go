package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"clientportal/internal/app"
	"clientportal/internal/db"
	"clientportal/internal/engine"
	"clientportal/internal/identity"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "portal",
		Short: "Client portal CLI",
		Long: `portal manages client projects and their requirements.
- Project: a piece of client work with status, priority, budget, dates and progress.
- Requirement: a deliverable inside a project; statuses can move freely.
- Activity: the append-only log of what happened on a project (comments, status changes, new requirements).
- Workspace: the .portal directory holding the SQLite database; portal.yml configures the API server.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := db.EnsureWorkspace(viper.GetString("workspace"))
			return err
		},
	}
	addPersistentFlags(root)
	root.AddCommand(projectCmd())
	root.AddCommand(requirementCmd())
	root.AddCommand(activityCmd())
	root.AddCommand(tokenCmd())
	root.AddCommand(configCmd())
	root.AddCommand(serveCmd())
	return root
}

func main() {
	cobra.OnInitialize(initConfig)
	if err := newRootCmd().Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("PORTAL")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags(root *cobra.Command) {
	root.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	root.PersistentFlags().Bool("json", false, "output JSON")
	root.PersistentFlags().String("user-id", "", "acting user id")
	root.PersistentFlags().String("token", "", "session token; overrides --user-id")
	root.PersistentFlags().String("config", "", "portal.yml path (default <workspace>/portal.yml)")
	for _, name := range []string{"workspace", "json", "user-id", "token", "config"} {
		_ = viper.BindPFlag(name, root.PersistentFlags().Lookup(name))
	}
}

// currentUser resolves the acting user from the session token, falling
// back to --user-id.
func currentUser() (string, error) {
	var provider identity.Provider = identity.Static(viper.GetString("user-id"))
	if token := viper.GetString("token"); token != "" {
		sessions := identity.NewSessions(viper.GetString("jwt-secret"))
		if _, err := sessions.SignIn(token); err != nil {
			return "", fmt.Errorf("sign in: %w", err)
		}
		provider = sessions
	}
	userID, ok := provider.CurrentUserID()
	if !ok {
		return "", errors.New("no acting user; pass --user-id or --token")
	}
	return userID, nil
}

func withWorkspace(ctx context.Context, fn func(context.Context, *app.Workspace) error) error {
	ws, err := app.Open(viper.GetString("workspace"), viper.GetString("config"), log.New(os.Stderr, "portal: ", log.LstdFlags))
	if err != nil {
		return err
	}
	defer ws.Close()
	if ctx == nil {
		ctx = context.Background()
	}
	return fn(ctx, ws)
}

// withEngine runs fn as the acting user.
func withEngine(ctx context.Context, fn func(context.Context, engine.Engine, string) error) error {
	userID, err := currentUser()
	if err != nil {
		return err
	}
	return withWorkspace(ctx, func(ctx context.Context, ws *app.Workspace) error {
		return fn(ctx, ws.Engine, userID)
	})
}

func printJSONOrTable(v any) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
