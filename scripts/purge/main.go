package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run main.go <wa_id>")
		fmt.Println("Example: go run main.go 15551234567")
		os.Exit(1)
	}

	waID := os.Args[1]

	_ = godotenv.Load()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		fmt.Println("Error: REDIS_ADDR environment variable not set")
		os.Exit(1)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
	})
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	key := fmt.Sprintf("session:%s", waID)
	fmt.Printf("Purging transcript for %s...\n", waID)

	deleted, err := client.Del(ctx, key).Result()
	if err != nil {
		fmt.Printf("Error deleting %s: %v\n", key, err)
		os.Exit(1)
	}
	if deleted == 0 {
		fmt.Printf("No stored transcript for %s\n", waID)
		return
	}
	fmt.Printf("Deleted %s\n", key)
}
