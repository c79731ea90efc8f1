// Command tokengen prints a bearer token signed with the server's JWT_SECRET.
// Identities are issued by an upstream provider in production; this is for
// operators and local development.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"savingscircle/config"
	"savingscircle/internal/adapters/auth"
	"savingscircle/internal/domain"
)

func main() {
	userID := flag.String("user", "", "user ID (required)")
	email := flag.String("email", "", "email address")
	admin := flag.Bool("admin", false, "grant the admin role")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	if *userID == "" {
		flag.Usage()
		os.Exit(2)
	}
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}
	var roles []string
	if *admin {
		roles = append(roles, domain.RoleAdmin)
	}
	token, err := auth.NewJWTIssuer(cfg.JWTSecret).Issue(*userID, *email, roles, *ttl)
	if err != nil {
		slog.Error("issue token", "err", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
