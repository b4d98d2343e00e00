// Package main provides a CLI tool for generating test tokens for the
// dossard API. These tokens use the dev signing key and will NOT work in
// production.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"dossard/pkg/platform/middleware/auth"
	"dossard/pkg/secrets"
)

const (
	// Dev signing key - matches config.go when JWT_SIGNING_KEY is not set
	devSigningKey = "dev-secret-key-change-in-production"

	defaultTokenTTL = 12 * time.Hour
)

type tokenOutput struct {
	Token     string            `json:"token"`
	Type      string            `json:"type"`
	ExpiresIn string            `json:"expires_in,omitempty"`
	Usage     map[string]string `json:"usage"`
}

func main() {
	organizerCmd := flag.NewFlagSet("organizer", flag.ExitOnError)
	organizerName := organizerCmd.String("name", "local-organizer", "Organizer identifier embedded in the token")
	organizerKey := organizerCmd.String("signing-key", devSigningKey, "JWT signing key (must match the server)")
	organizerTTL := organizerCmd.Duration("ttl", defaultTokenTTL, "Token time-to-live")
	organizerJSON := organizerCmd.Bool("json", false, "Output as JSON")

	adminCmd := flag.NewFlagSet("admin", flag.ExitOnError)
	adminJSON := adminCmd.Bool("json", false, "Output as JSON")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "organizer":
		organizerCmd.Parse(os.Args[2:])
		generateOrganizerToken(*organizerName, *organizerKey, *organizerTTL, *organizerJSON)
	case "admin":
		adminCmd.Parse(os.Args[2:])
		generateAdminToken(*adminJSON)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`tokengen - Generate test tokens for the dossard API

WARNING: The default signing key is the dev key and will NOT work in
         production. Only use for local development and testing.

Usage:
  tokengen <command> [flags]

Commands:
  organizer  Generate an organizer bearer token (JWT)
  admin      Generate an admin token and its bcrypt hash

Examples:
  # Generate organizer token with defaults
  tokengen organizer

  # Generate organizer token for a named organizer with custom TTL
  tokengen organizer -name marathon-paris -ttl 1h

  # Generate a fresh admin token plus the hash for ADMIN_TOKEN
  tokengen admin

Use "tokengen <command> -h" for more information about a command.`)
}

func generateOrganizerToken(name, signingKey string, ttl time.Duration, jsonOutput bool) {
	svc := auth.NewTokenService(signingKey, ttl)

	token, err := svc.Issue(name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating token: %v\n", err)
		os.Exit(1)
	}

	if jsonOutput {
		printJSON(tokenOutput{
			Token:     token,
			Type:      "organizer_token",
			ExpiresIn: ttl.String(),
			Usage: map[string]string{
				"header": "Authorization: Bearer <token>",
			},
		})
		return
	}

	fmt.Println("Organizer Token (JWT)")
	fmt.Println("=====================")
	fmt.Printf("Organizer:  %s\n", name)
	fmt.Printf("Expires In: %s\n", ttl)
	fmt.Println()
	fmt.Println("Token:")
	fmt.Println(token)
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  curl -H \"Authorization: Bearer <token>\" http://localhost:8080/verify")
}

func generateAdminToken(jsonOutput bool) {
	token, err := secrets.Generate()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating token: %v\n", err)
		os.Exit(1)
	}
	hash, err := secrets.Hash(token)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error hashing token: %v\n", err)
		os.Exit(1)
	}

	if jsonOutput {
		printJSON(tokenOutput{
			Token: token,
			Type:  "admin_token",
			Usage: map[string]string{
				"header": "X-Admin-Token: " + token,
				"env":    "ADMIN_TOKEN=" + hash,
			},
		})
		return
	}

	fmt.Println("Admin API Token")
	fmt.Println("===============")
	fmt.Printf("Token: %s\n", token)
	fmt.Println()
	fmt.Println("Configure the server with the hash, not the raw token:")
	fmt.Printf("  ADMIN_TOKEN=%s\n", hash)
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  curl -H \"X-Admin-Token: " + token + "\" http://localhost:8080/audit/<identifier>")
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
		os.Exit(1)
	}
}
