package api

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// ServerEnv provides a containerized nestegg-mcp server for integration
// tests. The server keeps its JSON stores on a container-local data
// directory, so every environment starts from an empty slate.
type ServerEnv struct {
	t          *testing.T
	server     testcontainers.Container
	ctx        context.Context
	cancel     context.CancelFunc
	baseURL    string
	resultsDir string
}

// ServerEnvOptions configures the test environment.
type ServerEnvOptions struct {
	ExtraEnv map[string]string
}

var (
	imageBuildOnce sync.Once
	imageBuildErr  error
)

// buildServerImage builds the nestegg-mcp:test Docker image once per test run.
func buildServerImage() error {
	imageBuildOnce.Do(func() {
		ctx := context.Background()

		req := testcontainers.GenericContainerRequest{
			ContainerRequest: testcontainers.ContainerRequest{
				FromDockerfile: testcontainers.FromDockerfile{
					Context:    findProjectRoot(),
					Dockerfile: "tests/docker/Dockerfile.server",
					Repo:       "nestegg-mcp",
					Tag:        "test",
					KeepImage:  true,
				},
			},
		}

		_, imageBuildErr = testcontainers.GenericContainer(ctx, req)
		if imageBuildErr != nil {
			// Image may have built successfully even if container creation failed
			if strings.Contains(imageBuildErr.Error(), "nestegg-mcp:test") {
				imageBuildErr = nil
			}
		}
	})
	return imageBuildErr
}

// NewServerEnv starts a nestegg-mcp container with default options.
func NewServerEnv(t *testing.T) *ServerEnv {
	return NewServerEnvWithOptions(t, ServerEnvOptions{})
}

// NewServerEnvWithOptions starts a nestegg-mcp container.
func NewServerEnvWithOptions(t *testing.T, opts ServerEnvOptions) *ServerEnv {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	if err := buildServerImage(); err != nil {
		t.Fatalf("failed to build server image: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)

	// Create results directory
	datetime := time.Now().Format("20060102-150405")
	resultsDir := filepath.Join(findProjectRoot(), "tests", "logs", datetime+"-"+t.Name())
	os.MkdirAll(resultsDir, 0755)

	serverEnv := map[string]string{
		"NESTEGG_DATA_PATH": "/app/data",
		"NESTEGG_LOG_LEVEL": "debug",
	}
	for k, v := range opts.ExtraEnv {
		serverEnv[k] = v
	}

	serverContainer, err := testcontainers.Run(ctx, "nestegg-mcp:test",
		testcontainers.WithExposedPorts("4270/tcp"),
		testcontainers.WithEnv(serverEnv),
		testcontainers.WithWaitStrategy(
			wait.ForHTTP("/health").WithPort("4270/tcp").WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		cancel()
		t.Fatalf("failed to start nestegg-mcp: %v", err)
	}

	mappedPort, err := serverContainer.MappedPort(ctx, "4270/tcp")
	if err != nil {
		serverContainer.Terminate(ctx)
		cancel()
		t.Fatalf("failed to get mapped port: %v", err)
	}

	host, err := serverContainer.Host(ctx)
	if err != nil {
		serverContainer.Terminate(ctx)
		cancel()
		t.Fatalf("failed to get host: %v", err)
	}

	baseURL := fmt.Sprintf("http://%s:%s", host, mappedPort.Port())
	t.Logf("Server environment ready: %s", baseURL)

	return &ServerEnv{
		t:          t,
		server:     serverContainer,
		ctx:        ctx,
		cancel:     cancel,
		baseURL:    baseURL,
		resultsDir: resultsDir,
	}
}

// BaseURL returns the root URL of the running server.
func (e *ServerEnv) BaseURL() string {
	return e.baseURL
}

// MCPURL returns the streamable HTTP endpoint of the running server.
func (e *ServerEnv) MCPURL() string {
	return e.baseURL + "/mcp"
}

// Cleanup tears down the container.
// Uses a fresh context for teardown in case the main context expired.
func (e *ServerEnv) Cleanup() {
	if e == nil {
		return
	}

	cleanupCtx, cleanupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cleanupCancel()

	// Collect logs before teardown
	e.collectLogs(cleanupCtx)

	if e.server != nil {
		e.server.Terminate(cleanupCtx)
	}
	if e.cancel != nil {
		e.cancel()
	}
}

// SaveResult saves test output to the results directory.
func (e *ServerEnv) SaveResult(name string, data []byte) {
	os.WriteFile(filepath.Join(e.resultsDir, name), data, 0644)
}

func (e *ServerEnv) collectLogs(ctx context.Context) {
	if e.server == nil {
		return
	}
	reader, err := e.server.Logs(ctx)
	if err != nil {
		return
	}
	defer reader.Close()
	logs, _ := io.ReadAll(reader)
	os.WriteFile(filepath.Join(e.resultsDir, "nestegg-mcp.log"), logs, 0644)
}

func findProjectRoot() string {
	dir, _ := os.Getwd()
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "."
		}
		dir = parent
	}
}
