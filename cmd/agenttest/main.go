package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/lumabot/wabridge/internal/agent"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	apiKey := os.Getenv("GOOGLE_API_KEY")
	if apiKey == "" {
		log.Fatal("GOOGLE_API_KEY not set")
	}
	model := os.Getenv("GEMINI_MODEL")

	message := "hey bot, say hi"
	if len(os.Args) > 1 {
		message = strings.Join(os.Args[1:], " ")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := agent.NewGeminiClient(ctx, apiKey, model,
		agent.WithInstruction("Respond concisely and helpfully."),
	)
	if err != nil {
		log.Fatalf("failed to create gemini client: %v", err)
	}
	defer client.Close()

	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Agent Test (%s)\n", client.Model())
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("\n> %s\n\n", message)

	start := time.Now()
	resp, err := client.Complete(ctx, agent.Request{Message: message})
	elapsed := time.Since(start)
	if err != nil {
		log.Fatalf("completion failed: %v", err)
	}

	fmt.Printf("%s\n\n", resp.Text)
	fmt.Printf("latency: %v  tokens: in=%d, out=%d\n",
		elapsed.Round(time.Millisecond), resp.Usage.InputTokens, resp.Usage.OutputTokens)
}
