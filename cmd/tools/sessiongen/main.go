package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"powder-inventory/internal/auth"
	"powder-inventory/internal/config"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	var (
		email      = flag.String("email", "", "Email address the session belongs to")
		name       = flag.String("name", "", "Display name")
		expiryMins = flag.Int("expiry", 1440, "Token expiry in minutes (default: 24 hours)")
		secret     = flag.String("secret", "", "Session secret (overrides SESSION_SECRET env var)")
	)
	flag.Parse()

	if *email == "" {
		log.Fatal("-email is required")
	}

	cfg := config.Load()
	if *secret != "" {
		cfg.SessionSecret = *secret
	}

	gate := auth.NewGate(cfg.AllowedDomain)
	if !gate.DomainAllowed(*email) {
		log.Printf("warning: %s is outside %s; the server will treat this session as logged out", *email, gate.AllowedDomain())
	}

	sessions := auth.NewSessionManager(cfg.SessionSecret, "powder-inventory", time.Duration(*expiryMins)*time.Minute)
	if err := sessions.ValidateConfig(); err != nil {
		log.Fatalf("Invalid session configuration: %v", err)
	}

	token, err := sessions.GenerateToken(auth.Identity{Email: *email, Name: *name})
	if err != nil {
		log.Fatalf("Failed to generate token: %v", err)
	}

	fmt.Printf("Session token generated successfully!\n\n")
	fmt.Printf("Email: %s\n", *email)
	fmt.Printf("Expiry: %d minutes\n", *expiryMins)
	fmt.Printf("\nToken:\n%s\n\n", token)

	fmt.Printf("Usage example:\n")
	fmt.Printf("curl -H \"Authorization: Bearer %s\" %s/assets\n", token, cfg.BaseURL)
}
