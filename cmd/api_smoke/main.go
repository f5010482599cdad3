package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"task_tracker/internal/logger"

	"github.com/google/uuid"
)

// Exercises a running server end to end: create a user, create and complete a
// task, read stats, then clean up.
func main() {
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}
	base := flag.String("url", "http://localhost:"+port, "server base url")
	flag.Parse()

	client := &http.Client{Timeout: 10 * time.Second}
	run := "smoke-" + uuid.NewString()

	var user struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	}
	mustCall(client, http.MethodPost, *base+"/api/users", map[string]any{"email": run + "@example.com"}, http.StatusCreated, &user)
	logger.Info("user created", "id", user.ID, "email", user.Email)

	var task struct {
		ID string `json:"id"`
	}
	mustCall(client, http.MethodPost, *base+"/api/tasks", map[string]any{"title": "smoke", "userId": user.ID}, http.StatusCreated, &task)
	mustCall(client, http.MethodPatch, *base+"/api/tasks/"+task.ID+"/completion", map[string]any{"completed": true}, http.StatusOK, nil)

	var stats map[string]any
	mustCall(client, http.MethodGet, *base+"/api/tasks/stats?userId="+user.ID, nil, http.StatusOK, &stats)
	logger.Info("stats", "stats", stats)

	mustCall(client, http.MethodDelete, *base+"/api/tasks/"+task.ID, nil, http.StatusOK, nil)
	fmt.Println("smoke ok")
}

func mustCall(client *http.Client, method, url string, body any, wantStatus int, out any) {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			logger.Fatal("marshal", "error", err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, rd)
	if err != nil {
		logger.Fatal("build request", "error", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := client.Do(req)
	if err != nil {
		logger.Fatal("request failed", "method", method, "url", url, "error", err)
	}
	defer res.Body.Close()

	raw, _ := io.ReadAll(res.Body)
	if res.StatusCode != wantStatus {
		logger.Fatal("unexpected status", "method", method, "url", url, "status", res.StatusCode, "body", string(raw))
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			logger.Fatal("decode response", "error", err)
		}
	}
}
