package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/urfave/cli/v2"

	_ "github.com/mattn/go-sqlite3"

	"ambpromo/internal/datastore"
	"ambpromo/internal/models"
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
		Name: "migrate",
		Commands: []*cli.Command{
			commandMigration(),
			commandBackfillPromoCodes(),
			commandSeedOffers(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func commandMigration() *cli.Command {
	return &cli.Command{
		Name: "migrate",
		Action: func(c *cli.Context) error {
			db, err := getDb()
			if err != nil {
				log.Fatal(err)
			}

			err = datastore.Migrate(c.Context, db)
			if err != nil {
				log.Fatal(err)
			}

			fmt.Println("Migration success")

			return nil
		},
	}
}

func commandBackfillPromoCodes() *cli.Command {
	return &cli.Command{
		Name:        "backfill-promo-codes",
		Description: "Assign promo codes to users created before codes existed",
		Action: func(c *cli.Context) error {
			db, err := getDb()
			if err != nil {
				log.Fatal(err)
			}

			err = datastore.BackfillPromoCodes(c.Context, db)
			if err != nil {
				log.Fatal(err)
			}

			fmt.Println("Backfill success")

			return nil
		},
	}
}

func commandSeedOffers() *cli.Command {
	return &cli.Command{
		Name:        "seed-offers",
		Description: "Insert the default reward offers",
		Action: func(c *cli.Context) error {
			db, err := getDb()
			if err != nil {
				log.Fatal(err)
			}

			offers := []models.Offer{
				{Title: "10% discount coupon", Cost: 1},
				{Title: "25% discount coupon", Cost: 3},
				{Title: "Free product", Cost: 5},
			}

			for _, offer := range offers {
				_, err := datastore.CreateOffer(c.Context, db, &offer)
				if err != nil {
					log.Println(err)
				}
			}

			fmt.Println("Seed success")

			return nil
		},
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
