// Command token_gen mints a service token for calling the analysis API.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/technosupport/ts-crimewatch/internal/tokens"
)

func main() {
	service := flag.String("service", "perception-pipeline", "Calling service name")
	duration := flag.Duration("duration", 24*time.Hour, "Token lifetime")
	flag.Parse()

	key := os.Getenv("JWT_SIGNING_KEY")
	if key == "" {
		key = "dev-secret-do-not-use-in-prod"
	}

	token, err := tokens.NewManager(key).GenerateServiceToken(*service, *duration)
	if err != nil {
		log.Fatalf("Token generation failed: %v", err)
	}
	fmt.Println(token)
}
