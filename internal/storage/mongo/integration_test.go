//go:build integration

package mongo_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/felixgeelhaar/academiax/internal/storage/mongo"
	"github.com/felixgeelhaar/academiax/internal/storage/storagetest"
)

// setupMongo starts a MongoDB container and returns its connection URI
func setupMongo(t *testing.T) (string, func()) {
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "mongo:7",
			ExposedPorts: []string{"27017/tcp"},
			WaitingFor:   wait.ForListeningPort("27017/tcp").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("failed to start MongoDB container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		container.Terminate(ctx)
		t.Fatalf("failed to get host: %v", err)
	}
	port, err := container.MappedPort(ctx, "27017/tcp")
	if err != nil {
		container.Terminate(ctx)
		t.Fatalf("failed to get port: %v", err)
	}

	cleanup := func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}

	return fmt.Sprintf("mongodb://%s:%s", host, port.Port()), cleanup
}

func TestIntegration_MongoStore(t *testing.T) {
	uri, cleanup := setupMongo(t)
	defer cleanup()

	store, err := mongo.Connect(uri, "academiax_test")
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer store.Close(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Ping(ctx); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}

	storagetest.Run(t, store)
}
