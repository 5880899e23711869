// Package sparqltesting starts a throwaway SPARQL endpoint in a container
// for integration tests.
package sparqltesting

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const fusekiPort = "3030/tcp"

type DBConfig struct {
	ContainerImage string
	Dataset        string
}

func (cfg *DBConfig) Validate() error {
	if cfg.ContainerImage == "" {
		cfg.ContainerImage = "secoresearch/fuseki:latest"
	}
	if cfg.Dataset == "" {
		cfg.Dataset = "ds"
	}
	return nil
}

type DB struct {
	log       *slog.Logger
	cfg       *DBConfig
	baseURL   string
	container testcontainers.Container
}

// QueryURL returns the SPARQL query endpoint for the container's dataset.
func (db *DB) QueryURL() string {
	return fmt.Sprintf("%s/%s/sparql", db.baseURL, db.cfg.Dataset)
}

// UpdateURL returns the SPARQL update endpoint for the container's dataset.
func (db *DB) UpdateURL() string {
	return fmt.Sprintf("%s/%s/update", db.baseURL, db.cfg.Dataset)
}

func (db *DB) Close() {
	terminateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := db.container.Terminate(terminateCtx); err != nil {
		db.log.Error("failed to terminate Fuseki container", "error", err)
	}
}

// NewDB creates a new Fuseki testcontainer.
func NewDB(ctx context.Context, log *slog.Logger, cfg *DBConfig) (*DB, error) {
	if cfg == nil {
		cfg = &DBConfig{}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate DB config: %w", err)
	}

	req := testcontainers.ContainerRequest{
		Image:        cfg.ContainerImage,
		ExposedPorts: []string{fusekiPort},
		Env: map[string]string{
			"ENABLE_UPDATE": "true",
		},
		WaitingFor: wait.ForHTTP("/$/ping").WithPort(fusekiPort).WithStartupTimeout(2 * time.Minute),
	}

	// Retry container start up to 3 times for retryable errors
	var container testcontainers.Container
	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		var err error
		container, err = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: req,
			Started:          true,
		})
		if err != nil {
			lastErr = err
			if isRetryableContainerStartErr(err) && attempt < 3 {
				time.Sleep(time.Duration(attempt) * 750 * time.Millisecond)
				continue
			}
			return nil, fmt.Errorf("failed to start Fuseki container after retries: %w", lastErr)
		}
		break
	}

	if container == nil {
		return nil, fmt.Errorf("failed to start Fuseki container after retries: %w", lastErr)
	}

	host, err := container.Host(ctx)
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get Fuseki host: %w", err)
	}
	mapped, err := container.MappedPort(ctx, nat.Port(fusekiPort))
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get Fuseki mapped port: %w", err)
	}

	db := &DB{
		log:       log,
		cfg:       cfg,
		baseURL:   fmt.Sprintf("http://%s:%s", host, mapped.Port()),
		container: container,
	}

	return db, nil
}

func isRetryableContainerStartErr(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "wait until ready") ||
		strings.Contains(s, "mapped port") ||
		strings.Contains(s, "timeout") ||
		strings.Contains(s, "context deadline exceeded") ||
		strings.Contains(s, "/containers/") && strings.Contains(s, "json") ||
		strings.Contains(s, "Get \"http://%2Fvar%2Frun%2Fdocker.sock")
}
