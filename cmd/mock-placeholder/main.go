package main

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/josh-kwaku/user-directory/internal/logging"
)

//go:embed users.yaml
var usersYAML []byte

type company struct {
	Name string `yaml:"name" json:"name"`
}

type address struct {
	Street  string `yaml:"street" json:"street"`
	Suite   string `yaml:"suite" json:"suite"`
	City    string `yaml:"city" json:"city"`
	Zipcode string `yaml:"zipcode" json:"zipcode"`
}

type user struct {
	ID       int     `yaml:"id" json:"id"`
	Name     string  `yaml:"name" json:"name"`
	Username string  `yaml:"username" json:"username"`
	Email    string  `yaml:"email" json:"email"`
	Phone    string  `yaml:"phone" json:"phone"`
	Website  string  `yaml:"website" json:"website"`
	Address  address `yaml:"address" json:"address"`
	Company  company `yaml:"company" json:"company"`
}

func loadUsers(data []byte) ([]user, error) {
	var users []user
	if err := yaml.Unmarshal(data, &users); err != nil {
		return nil, fmt.Errorf("loadUsers: %w", err)
	}
	return users, nil
}

func main() {
	logging.Init("mock-placeholder", "info", os.Getenv("APP_ENV"))

	users, err := loadUsers(usersYAML)
	if err != nil {
		slog.Error("failed to load fixture users", "error", err)
		os.Exit(1)
	}

	addr := ":8081"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET /users", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, users)
	})

	slog.Info("mock placeholder started", "addr", addr, "users", len(users))
	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}
