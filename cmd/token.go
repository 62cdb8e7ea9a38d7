package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"docchat/internal/pkg/jwt"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a JWT for a user",
	Long:  `Mint a JWT signed with auth.jwt_secret, for use with docchat chat --token when auth is enabled.`,
	RunE:  runToken,
}

func init() {
	rootCmd.AddCommand(tokenCmd)

	flags := tokenCmd.Flags()
	flags.String("user", "", "user id to put in the token")
	flags.Duration("expiry", 0, "token lifetime (default: auth.access_token_expiry)")
	_ = tokenCmd.MarkFlagRequired("user")
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	if cfg.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is not configured (set DOCCHAT_AUTH_JWT_SECRET)")
	}

	userID, _ := cmd.Flags().GetString("user")
	expiry, _ := cmd.Flags().GetDuration("expiry")
	if expiry <= 0 {
		expiry = cfg.Auth.AccessTokenExpiry
	}
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}

	token, err := jwt.NewJWT(cfg.Auth.JWTSecret, expiry).GenerateToken(userID)
	if err != nil {
		return fmt.Errorf("failed to generate token: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
