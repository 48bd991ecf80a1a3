// Package azureblob uploads rendered clips to Azure Blob Storage. The
// destination container and blob name come from the job's destination URL;
// credentials come from a connection string in the environment so they never
// travel through the queue.
package azureblob

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"

	"reframe/internal/config"
	"reframe/internal/logging"
)

// ErrNoCredentials is returned when the connection string env var is unset.
var ErrNoCredentials = errors.New("azureblob: connection string not set")

// Destination identifies the container and blob parsed from a destination URL.
type Destination struct {
	Container string
	Blob      string
}

// ParseDestination splits a blob URL of the form
// https://account.blob.core.windows.net/container/path/clip.mp4 into its
// container and blob components.
func ParseDestination(rawURL string) (Destination, error) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return Destination{}, fmt.Errorf("azureblob: parse destination: %w", err)
	}
	trimmed := strings.Trim(parsed.Path, "/")
	container, blob, found := strings.Cut(trimmed, "/")
	if !found || container == "" || blob == "" {
		return Destination{}, fmt.Errorf("azureblob: destination %q lacks container/blob path", rawURL)
	}
	return Destination{Container: container, Blob: blob}, nil
}

// Uploader pushes files to blob storage.
type Uploader struct {
	connEnv     string
	concurrency uint16
	timeout     time.Duration
	logger      *slog.Logger

	// newClient is swapped in tests.
	newClient func(connectionString string) (blobClient, error)
}

type blobClient interface {
	CreateContainer(ctx context.Context, container string) error
	UploadFile(ctx context.Context, container, blob string, file *os.File, concurrency uint16) error
}

// NewUploader builds an uploader from configuration.
func NewUploader(cfg *config.Config, logger *slog.Logger) *Uploader {
	return &Uploader{
		connEnv:     cfg.Azure.ConnectionStringEnv,
		concurrency: uint16(cfg.Azure.UploadConcurrency),
		timeout:     time.Duration(cfg.Azure.TimeoutSeconds) * time.Second,
		logger:      logging.NewComponentLogger(logger, "azureblob"),
		newClient:   newSDKClient,
	}
}

// Upload sends localPath to the destination URL, creating the container when
// it does not exist and overwriting any existing blob.
func (u *Uploader) Upload(ctx context.Context, destinationURL, localPath string) error {
	dest, err := ParseDestination(destinationURL)
	if err != nil {
		return err
	}
	connectionString := strings.TrimSpace(os.Getenv(u.connEnv))
	if connectionString == "" {
		return fmt.Errorf("%w (env %s)", ErrNoCredentials, u.connEnv)
	}

	client, err := u.newClient(connectionString)
	if err != nil {
		return fmt.Errorf("azureblob: build client: %w", err)
	}

	if u.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.timeout)
		defer cancel()
	}

	if err := client.CreateContainer(ctx, dest.Container); err != nil {
		return fmt.Errorf("azureblob: create container %q: %w", dest.Container, err)
	}

	file, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("azureblob: open %s: %w", localPath, err)
	}
	defer file.Close()

	if err := client.UploadFile(ctx, dest.Container, dest.Blob, file, u.concurrency); err != nil {
		return fmt.Errorf("azureblob: upload %s: %w", dest.Blob, err)
	}
	u.logger.InfoContext(ctx, "uploaded rendered clip",
		logging.String("container", dest.Container),
		logging.String("blob", dest.Blob),
	)
	return nil
}

type sdkClient struct {
	client *azblob.Client
}

func newSDKClient(connectionString string) (blobClient, error) {
	client, err := azblob.NewClientFromConnectionString(connectionString, nil)
	if err != nil {
		return nil, err
	}
	return &sdkClient{client: client}, nil
}

func (c *sdkClient) CreateContainer(ctx context.Context, container string) error {
	_, err := c.client.CreateContainer(ctx, container, nil)
	if bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
		return nil
	}
	return err
}

func (c *sdkClient) UploadFile(ctx context.Context, container, blob string, file *os.File, concurrency uint16) error {
	options := &azblob.UploadFileOptions{}
	if concurrency > 0 {
		options.Concurrency = concurrency
	}
	_, err := c.client.UploadFile(ctx, container, blob, file, options)
	return err
}
