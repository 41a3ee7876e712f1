package main

import (
	"fmt"
	"log"
	"os"

	"github.com/cretedrive/rental-booking-backend/internal/utils"
)

func main() {
	fmt.Println("===========================================")
	fmt.Println("Secret Generator for the rental backend")
	fmt.Println("===========================================")
	fmt.Println()

	jwtSecret, err := utils.GenerateSecret(32)
	if err != nil {
		log.Fatalf("Failed to generate secret: %v", err)
	}

	fmt.Println("Add these to your .env file:")
	fmt.Println()
	fmt.Printf("JWT_SECRET=%s\n", jwtSecret)

	// Optional: go run ./cmd/generate-secrets <admin password>
	if len(os.Args) > 1 {
		hash, err := utils.HashPassword(os.Args[1])
		if err != nil {
			log.Fatalf("Failed to hash admin password: %v", err)
		}
		fmt.Printf("ADMIN_PASSWORD_HASH='%s'\n", hash)
	} else {
		fmt.Println()
		fmt.Println("Pass an admin password as the first argument to also get ADMIN_PASSWORD_HASH.")
	}

	fmt.Println()
	fmt.Println("⚠️  IMPORTANT: Keep these secrets safe and never commit them to version control!")
	fmt.Println("===========================================")
}
