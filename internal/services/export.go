package services

import (
	"context"
	"encoding/csv"
	"os"
	"strconv"
	"time"

	"github.com/uptrace/bun"

	"ambpromo/internal/datastore"
)

// ExportUsersCSV writes the user table in the legacy export column
// order, paging through the table to bound memory.
func ExportUsersCSV(ctx context.Context, db *bun.DB, path string) (int, error) {
	file, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	defer w.Flush()

	if err := w.Write([]string{"user_id", "username", "first_name", "last_name", "ref_by", "joined_date"}); err != nil {
		return 0, err
	}

	count := 0
	limit := 500
	offset := 0
	for {
		users, err := datastore.GetUsersSortedByCreatedAt(ctx, db, limit, offset)
		if err != nil {
			return count, err
		}
		if len(users) == 0 {
			break
		}

		for _, user := range users {
			refBy := ""
			if user.ReferrerID != nil {
				refBy = strconv.FormatInt(*user.ReferrerID, 10)
			}
			row := []string{
				strconv.FormatInt(user.ID, 10),
				user.Username,
				user.FirstName,
				user.LastName,
				refBy,
				user.JoinedAt.Format(time.RFC3339),
			}
			if err := w.Write(row); err != nil {
				return count, err
			}
			count++
		}

		offset += limit
	}

	return count, nil
}
