// Command admintoken prints a bearer token for the admin API.
package main

import (
	"flag"
	"fmt"
	"os"

	"payment-webhook-gateway/config"
	"payment-webhook-gateway/internal/service"
)

func main() {
	subject := flag.String("subject", "ops", "token subject recorded in admin audit logs")
	flag.Parse()

	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if cfg.Admin.JWTSecret == "" {
		fmt.Fprintln(os.Stderr, "admin.jwt_secret is not set")
		os.Exit(1)
	}

	tokens := service.NewJWTTokenService(cfg.Admin.JWTSecret, cfg.Admin.Expiry, cfg.Admin.Issuer)
	token, expiresAt, err := tokens.Generate(*subject)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to sign token: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("%s\n# expires %s\n", token, expiresAt.Format("2006-01-02T15:04:05Z07:00"))
}
