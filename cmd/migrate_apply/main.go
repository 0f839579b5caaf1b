package main

import (
	"context"
	"fmt"
	"os"

	"taskflow/internal/db"
	"taskflow/internal/logger"
	"taskflow/internal/migrations"

	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"
)

func main() {
	apply := flag.BoolP("apply", "a", false, "apply migrations (default: list them)")
	dsn := flag.String("database-url", "", "postgres DSN (default: $DATABASE_URL)")
	flag.Parse()

	logger.Init("info", false)

	if !*apply {
		names, err := migrations.Names()
		if err != nil {
			logger.Fatal("list migrations", "error", err)
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return
	}

	_ = godotenv.Load()
	if *dsn == "" {
		*dsn = os.Getenv("DATABASE_URL")
	}
	if *dsn == "" {
		logger.Fatal("DATABASE_URL not set")
	}

	ctx := context.Background()
	pool := db.MustConnect(ctx, *dsn)
	defer pool.Close()

	err := migrations.Apply(ctx, pool, func(name string) {
		fmt.Printf("applied %s\n", name)
	})
	if err != nil {
		logger.Fatal("migration failed", "error", err)
	}
}
