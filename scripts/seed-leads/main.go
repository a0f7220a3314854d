package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/wolfman30/outreach-ai-platform/internal/client"
	"github.com/wolfman30/outreach-ai-platform/internal/leads"
)

// seed-leads loads a JSON array of leads into a running API.
func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run scripts/seed-leads/main.go <leads.json>")
		fmt.Println("Example: go run scripts/seed-leads/main.go testdata/sample-leads.json")
		os.Exit(1)
	}

	apiURL := os.Getenv("API_URL")
	if apiURL == "" {
		apiURL = "http://localhost:5001/api"
	}

	data, err := os.ReadFile(os.Args[1])
	if err != nil {
		fmt.Printf("Error reading file: %v\n", err)
		os.Exit(1)
	}
	var batch []leads.CreateLeadRequest
	if err := json.Unmarshal(data, &batch); err != nil {
		fmt.Printf("Error parsing JSON: %v\n", err)
		os.Exit(1)
	}

	api := client.New(apiURL, client.WithAPIKey(os.Getenv("API_KEY")))
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	fmt.Printf("Seeding %d leads into %s\n", len(batch), apiURL)
	created := 0
	for i, req := range batch {
		id, err := api.CreateLead(ctx, req)
		if err != nil {
			fmt.Printf("  [%d] %s: %v\n", i+1, req.Name, err)
			continue
		}
		created++
		fmt.Printf("  [%d] %s -> lead %d\n", i+1, req.Name, id)
	}
	fmt.Printf("Created %d of %d leads\n", created, len(batch))
	if created < len(batch) {
		os.Exit(1)
	}
}
