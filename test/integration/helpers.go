package integration

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"github.com/stretchr/testify/require"
)

const envActivation = "CREWD_INTEGRATION"

// skipUnlessIntegration skips the test unless integration tests are enabled
// through the environment.
func skipUnlessIntegration(t *testing.T) {
	t.Helper()

	if os.Getenv(envActivation) != "true" {
		t.Skipf("Skipping integration test: %s is not set to 'true'", envActivation)
	}
}

// buildCrewd builds the crewd binary into a temp dir and returns its path.
func buildCrewd(t *testing.T) string {
	t.Helper()

	binary := filepath.Join(t.TempDir(), "crewd-test")
	buildCmd := exec.Command("go", "build", "-o", binary, "../../cmd/crewd")
	out, err := buildCmd.CombinedOutput()
	require.NoError(t, err, "Failed to build crewd binary: %s", out)

	return binary
}

// runCrewd executes the crewd binary with the given arguments and returns
// stdout and stderr.
func runCrewd(ctx context.Context, binary string, args ...string) (stdout, stderr string, err error) {
	var outData, errData bytes.Buffer
	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Stdout = &outData
	cmd.Stderr = &errData

	err = cmd.Run()

	return outData.String(), errData.String(), err
}

// dockerHelper provides utilities for interacting with Docker in tests.
type dockerHelper struct {
	client *client.Client
}

func newDockerHelper(t *testing.T) *dockerHelper {
	t.Helper()

	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	require.NoError(t, err, "Failed to create Docker client")

	return &dockerHelper{client: cli}
}

// cleanupContainer force-removes a container by name, ignoring missing ones.
func (d *dockerHelper) cleanupContainer(t *testing.T, containerName string) {
	t.Helper()

	ctx := context.Background()
	err := d.client.ContainerRemove(ctx, containerName, container.RemoveOptions{Force: true})
	if err != nil && !client.IsErrNotFound(err) {
		t.Logf("Failed to remove container %s: %v", containerName, err)
	}
}
