// Package ddbtest holds test helpers shared by every ddbiface.Database backend:
// a temporary table harness and a conformance suite.
package ddbtest

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/acksell/singletable/dynamodb/awsenv"
	"github.com/acksell/singletable/dynamodb/ddbiface"
	"github.com/acksell/singletable/dynamodb/ddbremote"
	"github.com/acksell/singletable/dynamodb/ddbstore"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// Harness timeouts. Exceeding either fails the test.
const (
	CreateTimeout = 2 * time.Second
	DeleteTimeout = 1 * time.Second
)

// Factory returns a Database for a fresh, uniquely named table that has not
// been created yet.
type Factory func(t testing.TB) ddbiface.Database

// TemporaryTable creates the table behind db and deletes it when the test ends.
func TemporaryTable(t testing.TB, db ddbiface.Database) ddbiface.Database {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), CreateTimeout)
	defer cancel()
	_, err := db.CreateTable(ctx)
	require.NoError(t, err, "create table %s", db.TableName())

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), DeleteTimeout)
		defer cancel()
		_, err := db.DeleteTable(ctx)
		require.NoError(t, err, "delete table %s", db.TableName())
	})
	return db
}

// NewTableName returns a unique table name.
func NewTableName() string {
	return "single-table-" + uuid.NewString()
}

// StoreFactory returns emulated tables on the given backend.
func StoreFactory(backend ddbstore.Backend) Factory {
	return func(t testing.TB) ddbiface.Database {
		store, err := ddbstore.New(NewTableName(), ddbstore.Options{
			Backend: backend,
			Logger:  zaptest.NewLogger(t),
		})
		require.NoError(t, err)
		t.Cleanup(func() { store.Close() })
		return store
	}
}

var (
	remoteGateOnce sync.Once
	remoteGate     *ddbremote.Gate
)

// RemoteFactory returns DynamoDB tables reached through AWS_ENDPOINT_URL.
// Tests using it are skipped when the variable is unset. All remote tables in
// the process share one admission gate.
func RemoteFactory() Factory {
	return func(t testing.TB) ddbiface.Database {
		settings := awsenv.Settings{}.FromEnv()
		if settings.EndpointURL == "" {
			t.Skipf("%s not set, e.g. export %s=http://localhost:2000", awsenv.EnvEndpointURL, awsenv.EnvEndpointURL)
		}
		cfg, _, err := awsenv.LoadConfig(context.Background(), settings)
		require.NoError(t, err)

		remoteGateOnce.Do(func() {
			remoteGate = ddbremote.NewGate(ddbremote.GateOptions{})
		})
		db := ddbremote.New(dynamodb.NewFromConfig(cfg), NewTableName(), ddbremote.Options{
			WaitTimeout: CreateTimeout,
			Logger:      zaptest.NewLogger(t),
		})
		return remoteGate.Wrap(db)
	}
}

// RemoteConfigured reports whether RemoteFactory will run rather than skip.
func RemoteConfigured() bool {
	return os.Getenv(awsenv.EnvEndpointURL) != ""
}
