package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"time"
)

// Seeds a demo pot through the HTTP API: three approvers with a 2-of-3
// quorum, an initial deposit, and one pending withdraw request. Useful for
// poking at the endpoints locally.

var baseURL string

func init() {
	flag.StringVar(&baseURL, "url", "http://localhost:8080", "API base URL")
}

func main() {
	flag.Parse()
	client := &http.Client{Timeout: 5 * time.Second}

	log.Println("--- Seeding demo pot ---")

	potID := post(client, "alice", "/api/v1/pots", map[string]interface{}{
		"name":          "team-lunch",
		"approvers":     []string{"alice", "bob", "carol"},
		"min_approvals": 2,
	}, "pot_id")
	log.Printf("Created pot %d", potID)

	post(client, "dave", fmt.Sprintf("/api/v1/pots/%d/deposits", potID), map[string]interface{}{
		"amount": 10000,
	}, "")
	log.Printf("Deposited 10000 into pot %d", potID)

	reqID := post(client, "bob", fmt.Sprintf("/api/v1/pots/%d/requests", potID), map[string]interface{}{
		"to":          "eve",
		"amount":      4000,
		"description": "friday lunch",
	}, "request_id")
	log.Printf("Proposed request %d, awaiting 2 approvals", reqID)
}

// post sends a JSON body with the caller identity header and returns the
// named int64 field of the response, or 0 when field is empty.
func post(client *http.Client, caller, path string, body map[string]interface{}, field string) int64 {
	payload, err := json.Marshal(body)
	if err != nil {
		log.Fatalf("marshal %s: %v", path, err)
	}

	req, err := http.NewRequest(http.MethodPost, baseURL+path, bytes.NewReader(payload))
	if err != nil {
		log.Fatalf("request %s: %v", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Caller", caller)

	resp, err := client.Do(req)
	if err != nil {
		log.Fatalf("POST %s: %v", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		log.Fatalf("POST %s: unexpected status %d", path, resp.StatusCode)
	}
	if field == "" {
		return 0
	}

	var out map[string]int64
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		log.Fatalf("decode %s: %v", path, err)
	}
	return out[field]
}
