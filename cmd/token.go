package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"reelforge/internal/pkg/jwt"
)

// errMissingSecret token 命令需要 auth.jwt_secret
var errMissingSecret = errors.New("auth.jwt_secret is not configured")

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an API access token signed with auth.jwt_secret",
	RunE:  runToken,
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.Flags().String("subject", "", "token subject, e.g. the calling service name (required)")
	tokenCmd.Flags().String("role", "pipeline", "token role")
	_ = tokenCmd.MarkFlagRequired("subject")
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	if cfg.Auth.JWTSecret == "" {
		return errMissingSecret
	}

	subject, _ := cmd.Flags().GetString("subject")
	role, _ := cmd.Flags().GetString("role")

	token, err := jwt.NewJWT(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiry).GenerateToken(subject, role)
	if err != nil {
		return fmt.Errorf("failed to generate token: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
