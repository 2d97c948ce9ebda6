package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
)

// RequireDocker skips t in -short mode and when no healthy container
// provider is reachable. Provider discovery panics when no docker host can
// be found, so the check runs under recover.
func RequireDocker(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("container tests skipped in -short mode")
	}
	if err := dockerHealth(); err != nil {
		t.Skipf("container provider unavailable: %v", err)
	}
}

func dockerHealth() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()
	provider, err := testcontainers.NewDockerProvider()
	if err != nil {
		return err
	}
	defer provider.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return provider.Health(ctx)
}
