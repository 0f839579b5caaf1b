package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"taskflow/internal/client"
	"taskflow/internal/logger"

	flag "github.com/spf13/pflag"
)

// smoke drives a running server through the register, login, create,
// complete, search and delete cycle with two users and checks that neither
// can see or modify the other's tasks.
func main() {
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}
	// use 127.0.0.1 to prefer IPv4 (avoid resolving to [::1])
	baseURL := flag.String("url", "http://127.0.0.1:"+port, "server base URL")
	flag.Parse()

	logger.Init("info", false)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	api := client.New(*baseURL, nil)
	suffix := time.Now().UnixNano()

	tokenA := signUp(ctx, api, "smokeA", fmt.Sprintf("smoke-a-%d@example.com", suffix))
	tokenB := signUp(ctx, api, "smokeB", fmt.Sprintf("smoke-b-%d@example.com", suffix))

	due := time.Now().Add(24 * time.Hour)
	task, err := api.CreateTask(ctx, tokenA, client.NewTask{Title: "Buy milk", DueDate: &due})
	if err != nil {
		logger.Fatal("create task", "error", err)
	}

	if _, err := api.UpdateTask(ctx, tokenB, task.ID, client.TaskUpdate{Completed: ptr(true)}); client.StatusCode(err) != 404 {
		logger.Fatal("foreign update was not rejected", "error", err)
	}
	if tasks, err := api.ListTasks(ctx, tokenB, ""); err != nil || len(tasks) != 0 {
		logger.Fatal("user B sees tasks", "count", len(tasks), "error", err)
	}

	if _, err := api.UpdateTask(ctx, tokenA, task.ID, client.TaskUpdate{Completed: ptr(true)}); err != nil {
		logger.Fatal("complete task", "error", err)
	}
	found, err := api.SearchTasks(ctx, tokenA, client.Search{Completed: ptr(true)})
	if err != nil || len(found) != 1 {
		logger.Fatal("search completed", "count", len(found), "error", err)
	}

	if err := api.DeleteTask(ctx, tokenA, task.ID); err != nil {
		logger.Fatal("delete task", "error", err)
	}
	if tasks, err := api.ListTasks(ctx, tokenA, ""); err != nil || len(tasks) != 0 {
		logger.Fatal("list after delete", "count", len(tasks), "error", err)
	}

	logger.Info("smoke test passed", "url", *baseURL)
}

func signUp(ctx context.Context, api *client.Client, name, email string) string {
	const password = "smoke-password"
	if err := api.Register(ctx, name, email, password); err != nil {
		logger.Fatal("register", "email", email, "error", err)
	}
	res, err := api.Login(ctx, email, password)
	if err != nil {
		logger.Fatal("login", "email", email, "error", err)
	}
	return res.Token
}

func ptr[T any](v T) *T { return &v }
