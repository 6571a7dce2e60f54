package services

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ambpromo/internal/datastore"
)

func TestExportUsersCSV(t *testing.T) {
	checker := &fakeChecker{subscribed: map[int64]bool{}}
	notifier := newFakeNotifier()
	_, db := setupTestContainer(t, checker, notifier)
	ctx := context.Background()

	referrer := createServiceTestUser(t, db, 1)
	referral := createServiceTestUser(t, db, 2)
	attributed, err := datastore.AttributeReferral(ctx, db, referral.ID, referrer.ID)
	require.NoError(t, err)
	require.True(t, attributed)

	path := filepath.Join(t.TempDir(), "users.csv")
	count, err := ExportUsersCSV(ctx, db, path)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{"user_id", "username", "first_name", "last_name", "ref_by", "joined_date"}, rows[0])

	byID := map[string][]string{}
	for _, row := range rows[1:] {
		byID[row[0]] = row
	}
	assert.Equal(t, "", byID["1"][4])
	assert.Equal(t, strconv.FormatInt(referrer.ID, 10), byID["2"][4])
}
