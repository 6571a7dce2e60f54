package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/urfave/cli/v2"

	_ "github.com/mattn/go-sqlite3"

	"ambpromo/internal/services"
)

func init() {
	// for development
	//nolint:errcheck
	godotenv.Load("../../.env")

	// for production
	//nolint:errcheck
	godotenv.Load("./.env")
}

func main() {
	app := &cli.App{
		Name: "export",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "output",
				Value: "",
				Usage: "output csv path, defaults to exports/users_<timestamp>.csv",
			},
		},
		Action: func(c *cli.Context) error {
			db, err := getDb()
			if err != nil {
				return err
			}

			path := c.String("output")
			if path == "" {
				if err := os.MkdirAll(services.DIR_EXPORTS, 0o755); err != nil {
					return err
				}
				path = filepath.Join(services.DIR_EXPORTS, fmt.Sprintf("users_%s.csv", time.Now().Format("20060102_150405")))
			}

			count, err := services.ExportUsersCSV(c.Context, db, path)
			if err != nil {
				return err
			}

			fmt.Printf("Exported %d users to %s\n", count, path)

			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func getDb() (*bun.DB, error) {
	dsn := os.Getenv("DB_PATH")
	if dsn == "" {
		dsn = "bot.db"
	}

	sqldb, err := sql.Open("sqlite3", dsn+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, err
	}

	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	return db, nil
}
