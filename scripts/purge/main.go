package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/wolfman30/outreach-ai-platform/internal/client"
	"github.com/wolfman30/outreach-ai-platform/internal/http/middleware"
)

// purge removes every lead whose phone matches, along with its call logs,
// follow-ups and appointments. Handy after dialing a test number.
func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run scripts/purge/main.go <phone>")
		fmt.Println("Example: go run scripts/purge/main.go 5005550001")
		os.Exit(1)
	}
	phone := digits(os.Args[1])
	if phone == "" {
		fmt.Println("Error: phone must contain digits")
		os.Exit(1)
	}

	apiURL := os.Getenv("API_URL")
	if apiURL == "" {
		apiURL = "http://localhost:5001/api"
	}

	opts := []client.Option{client.WithAPIKey(os.Getenv("API_KEY"))}
	if secret := os.Getenv("API_JWT_SECRET"); secret != "" {
		token, err := middleware.IssueToken(secret, "purge", time.Hour)
		if err != nil {
			fmt.Printf("Error signing token: %v\n", err)
			os.Exit(1)
		}
		opts = append(opts, client.WithToken(token))
	}
	api := client.New(apiURL, opts...)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	list, err := api.ListLeads(ctx, client.LeadQuery{})
	if err != nil {
		fmt.Printf("Error listing leads: %v\n", err)
		os.Exit(1)
	}
	var ids []int64
	for _, l := range list {
		if strings.HasSuffix(digits(l.Phone), phone) {
			ids = append(ids, l.ID)
			fmt.Printf("  lead %d %s (%s)\n", l.ID, l.Name, l.Phone)
		}
	}
	if len(ids) == 0 {
		fmt.Printf("No leads with phone %s\n", phone)
		return
	}

	deleted, err := api.DeleteLeads(ctx, ids...)
	if err != nil {
		fmt.Printf("Error deleting leads: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Purged %d leads for phone %s\n", deleted, phone)
}

func digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
