// Package testctr holds helpers for tests that run containers.
package testctr

import (
	"context"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
)

// SkipIfDockerNotAvailable skips t when no Docker daemon answers.
func SkipIfDockerNotAvailable(t testing.TB) {
	t.Helper()
	if !DockerAvailable() {
		t.Skip("Docker not available")
	}
}

// DockerAvailable reports whether a Docker daemon can be reached.
func DockerAvailable() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	provider, err := testcontainers.NewDockerProvider()
	if err != nil {
		return false
	}
	defer provider.Close()
	return provider.Health(ctx) == nil
}
