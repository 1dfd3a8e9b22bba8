package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/anoixa/imagebank/config"
	"github.com/anoixa/imagebank/internal/auth"
	"github.com/spf13/cobra"
)

// tokenCmd 为指定用户签发访问令牌
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint an access token for a user id",
	Run: func(cmd *cobra.Command, args []string) {
		userID, _ := cmd.Flags().GetUint("user-id")
		if userID == 0 {
			log.Fatal("--user-id is required")
		}

		config.InitConfig()
		cfg := config.Get()

		jwtService, err := auth.NewJWTService(cfg.JWTSecret, cfg.JWTExpiresIn)
		if err != nil {
			log.Fatalf("Failed to initialize JWT: %v", err)
		}

		token, expiresAt, err := jwtService.GenerateAccessToken(userID)
		if err != nil {
			log.Fatalf("Failed to generate token: %v", err)
		}

		fmt.Println(token)
		log.Printf("Token for user %d expires at %s", userID, expiresAt.Format(time.RFC3339))
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.Flags().Uint("user-id", 0, "user id the token is issued for")
}
