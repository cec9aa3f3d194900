package main

import (
	"log"

	"inkstream/internal/transport/http"
)

func main() {
	if err := http.Run(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
