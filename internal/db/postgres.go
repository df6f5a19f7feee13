package db

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

var DB *sqlx.DB

func dsnFromEnv() string {
	host := os.Getenv("PG_HOST")
	port := os.Getenv("PG_PORT")
	user := os.Getenv("PG_USER")
	dbname := os.Getenv("PG_DB")
	password := os.Getenv("PG_PASSWORD")
	sslmode := os.Getenv("PG_SSL")
	if sslmode == "" {
		sslmode = "require"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", user, password, host, port, dbname, sslmode)
}

func InitPostgres() error {
	dsn := dsnFromEnv()

	var err error

	for i := 0; i < 10; i++ {
		DB, err = sqlx.Connect("postgres", dsn)
		if err == nil {
			maxConns := 10
			if raw := os.Getenv("PG_POOL_MAX"); raw != "" {
				if n, convErr := strconv.Atoi(raw); convErr == nil && n > 0 {
					maxConns = n
				}
			}
			DB.SetMaxOpenConns(maxConns)
			DB.SetMaxIdleConns(maxConns / 2)
			return nil
		}
		time.Sleep(500 * time.Millisecond)
	}
	return err
}
