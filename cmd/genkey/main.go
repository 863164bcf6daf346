package main

import (
	"fmt"
	"os"

	"github.com/eldtechnologies/webhookd/internal/crypto"
)

func main() {
	secret, err := crypto.GenerateSecret()
	if err != nil {
		fmt.Fprintf(os.Stderr, "generate secret: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("WEBHOOK_SECRET=%s\n", secret)
}
