package testutil

import (
	"context"
	"fmt"
	"testing"

	"ehclient/lib/appdb"
	"ehclient/lib/telemetry"
)

type ServiceParams struct {
	Name string
	// if unspecified, it will use `:memory:`
	DbFile string
}

type ServiceResult struct {
	DB appdb.DB
}

// SetupService installs test telemetry and opens a migrated database, both
// are torn down with the test.
func SetupService(t testing.TB, params ServiceParams) ServiceResult {
	t.Helper()
	cleanup := telemetry.SetupForTesting(t, fmt.Sprintf("test:%s", params.Name))
	t.Cleanup(cleanup)

	file := ":memory:"
	if params.DbFile != "" {
		file = params.DbFile
	}
	sqlite, err := appdb.Config{File: file}.OpenDB()
	if err != nil {
		t.Fatal(err)
	}
	db, err := appdb.New(context.Background(), sqlite)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	return ServiceResult{DB: db}
}
