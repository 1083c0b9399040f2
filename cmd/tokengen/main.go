package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/packgallery/account-idm/pkg/config"
)

// tokengen mints HS256 access tokens for exercising the authenticated
// account endpoints during development. The secret must match the
// JWT_SECRET accountd was started with.
func main() {
	jwtConfig := config.NewJwtConfigFromEnv()

	secret := flag.String("secret", jwtConfig.Secret, "Secret key for signing the token")
	issuer := flag.String("issuer", jwtConfig.Issuer, "Issuer of the token")
	audience := flag.String("audience", jwtConfig.Audience, "Audience of the token")
	username := flag.String("username", "", "Username claim (required)")
	expiry := flag.Duration("expiry", 30*time.Minute, "Token expiry duration (e.g., 30m, 1h, 24h)")
	outputFormat := flag.String("format", "compact", "Output format: compact or full")
	flag.Parse()

	if *username == "" {
		fmt.Fprintln(os.Stderr, "Error: -username is required")
		flag.Usage()
		os.Exit(1)
	}

	now := time.Now().UTC()
	expiryTime := now.Add(*expiry)

	claims := jwt.MapClaims{
		"username": *username,
		"sub":      *username,
		"iss":      *issuer,
		"aud":      *audience,
		"iat":      now.Unix(),
		"exp":      expiryTime.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenStr, err := token.SignedString([]byte(*secret))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to sign token: %v\n", err)
		os.Exit(1)
	}

	switch *outputFormat {
	case "compact":
		fmt.Println(tokenStr)
	case "full":
		claimsJSON, _ := json.MarshalIndent(claims, "", "  ")
		fmt.Printf("Token: %s\nExpires: %s\nClaims:\n%s\n", tokenStr, expiryTime.Format(time.RFC3339), claimsJSON)
	default:
		fmt.Fprintf(os.Stderr, "Error: Unknown output format: %s\n", *outputFormat)
		os.Exit(1)
	}
}
