// transcribeclient posts one transcription request against a running
// worker and prints the response. Useful for manual end-to-end checks:
//
//	go run ./cmd/transcribeclient -url https://files.lawia.app/call.mp3 -language es
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

func main() {
	server := flag.String("server", "http://localhost:8080", "worker base URL")
	audioURL := flag.String("url", "", "audio URL to transcribe (required)")
	language := flag.String("language", "", "language hint, e.g. es")
	task := flag.String("task", "", "transcribe or translate")
	words := flag.Bool("words", false, "request word-level timestamps")
	flag.Parse()

	if *audioURL == "" {
		log.Fatal("-url is required")
	}

	payload, err := json.Marshal(map[string]any{
		"audioUrl":       *audioURL,
		"language":       *language,
		"task":           *task,
		"wordTimestamps": *words,
	})
	if err != nil {
		log.Fatalf("failed to encode request: %v", err)
	}

	client := &http.Client{Timeout: 30 * time.Minute}
	resp, err := client.Post(*server+"/v1/transcriptions", "application/json", bytes.NewReader(payload))
	if err != nil {
		log.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Fatalf("failed to read response: %v", err)
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, body, "", "  "); err != nil {
		pretty.Write(body)
	}

	fmt.Printf("HTTP %d\n%s\n", resp.StatusCode, pretty.String())
}
