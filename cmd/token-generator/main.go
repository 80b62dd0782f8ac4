// Package main implements a CLI that issues access tokens for local testing
// of the tasks API.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/phrazzld/tasks-api/internal/config"
	"github.com/phrazzld/tasks-api/internal/service/auth"
	"github.com/spf13/cobra"
)

// secretEnv is read when --secret is not given.
const secretEnv = config.EnvPrefix + "_AUTH_JWT_SECRET"

func main() {
	os.Exit(Execute(os.Args[1:], os.Stdout, os.Stderr, os.Getenv))
}

// Execute runs the CLI with the given arguments and writers and returns the
// process exit code.
func Execute(args []string, stdout, stderr io.Writer, getenv func(string) string) int {
	rootCmd := newRootCmd(stdout, getenv)

	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(stderr, "Error:", err)
		return 1
	}
	return 0
}

func newRootCmd(stdout io.Writer, getenv func(string) string) *cobra.Command {
	var (
		userID   string
		secret   string
		lifetime int
		verbose  bool
	)

	cmd := &cobra.Command{
		Use:   "token-generator",
		Short: "Issue a signed access token for the tasks API",
		Long: "Issue an HS256 access token for a user id. The secret defaults to " +
			secretEnv + " so the token matches a locally running server.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if secret == "" {
				secret = getenv(secretEnv)
			}
			if secret == "" {
				return fmt.Errorf("no secret: pass --secret or set %s", secretEnv)
			}

			id := uuid.New()
			if userID != "" {
				parsed, err := uuid.Parse(userID)
				if err != nil {
					return fmt.Errorf("invalid --user %q: %w", userID, err)
				}
				id = parsed
			}

			svc, err := auth.NewJWTService(config.AuthConfig{
				JWTSecret:            secret,
				TokenLifetimeMinutes: lifetime,
			})
			if err != nil {
				return err
			}

			token, err := svc.GenerateToken(context.Background(), id)
			if err != nil {
				return fmt.Errorf("failed to generate token: %w", err)
			}

			if verbose {
				_, _ = fmt.Fprintf(stdout, "user:     %s\n", id)
				_, _ = fmt.Fprintf(stdout, "lifetime: %dm\n", lifetime)
			}
			_, _ = fmt.Fprintln(stdout, token)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Flags().StringVarP(&userID, "user", "u", "", "User id to issue the token for (random when empty)")
	cmd.Flags().StringVarP(&secret, "secret", "s", "", "Signing secret (defaults to $"+secretEnv+")")
	cmd.Flags().IntVarP(&lifetime, "lifetime", "l", 60, "Token lifetime in minutes")
	cmd.Flags().BoolVarP(&verbose, "verbose", "V", false, "Print the user id and lifetime before the token")

	return cmd
}
