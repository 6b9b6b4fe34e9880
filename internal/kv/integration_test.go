package kv

import (
	"context"
	"os"
	"testing"

	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func requireIntegration(t *testing.T, backend string) {
	t.Helper()

	if os.Getenv("KV_INTEGRATION") != "1" {
		t.Skipf("set KV_INTEGRATION=1 to run against a %s container", backend)
	}
}

// startContainer runs req and returns the host and mapped port for port.
func startContainer(ctx context.Context, t *testing.T, req testcontainers.ContainerRequest, port string) (string, string) {
	t.Helper()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("start %s: %v", req.Image, err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Errorf("terminate %s: %v", req.Image, err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("container host: %v", err)
	}
	mapped, err := container.MappedPort(ctx, nat.Port(port))
	if err != nil {
		t.Fatalf("mapped port %s: %v", port, err)
	}
	return host, mapped.Port()
}

func redisRequest() testcontainers.ContainerRequest {
	return testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}
}

func postgresRequest() testcontainers.ContainerRequest {
	return testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "quiz",
			"POSTGRES_PASSWORD": "quiz",
			"POSTGRES_DB":       "quiz",
		},
		// The server restarts once after initdb.
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
	}
}
