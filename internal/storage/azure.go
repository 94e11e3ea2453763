package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/streaming"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/appendblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/sirupsen/logrus"
)

// AzureStorage keeps objects in Azure Blob Storage. Block-blob uploads are
// committed in a single operation, so Store is atomic from the reader's
// perspective; Append uses an append blob for the identity log.
type AzureStorage struct {
	client        *azblob.Client
	containerName string
}

var _ Backend = (*AzureStorage)(nil)

// NewAzureStorage creates an Azure Blob client using managed identity.
func NewAzureStorage(accountName, containerName string) (*AzureStorage, error) {
	if accountName == "" {
		return nil, fmt.Errorf("storage account name is required")
	}

	credential, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure credential: %w", err)
	}

	serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net/", accountName)
	client, err := azblob.NewClient(serviceURL, credential, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure blob client: %w", err)
	}

	s := &AzureStorage{
		client:        client,
		containerName: containerName,
	}

	if err := s.ensureContainer(); err != nil {
		return nil, fmt.Errorf("failed to ensure container exists: %w", err)
	}

	return s, nil
}

func (s *AzureStorage) ensureContainer() error {
	ctx := context.Background()

	_, err := s.client.CreateContainer(ctx, s.containerName, nil)
	if err != nil {
		if !strings.Contains(err.Error(), "ContainerAlreadyExists") {
			return fmt.Errorf("failed to create container: %w", err)
		}
		logrus.Debugf("Container %s already exists", s.containerName)
	} else {
		logrus.Infof("Created container %s", s.containerName)
	}

	return nil
}

// Store uploads an object as a block blob.
func (s *AzureStorage) Store(name string, data []byte) error {
	ctx := context.Background()

	_, err := s.client.UploadBuffer(ctx, s.containerName, name, data, &azblob.UploadBufferOptions{
		BlockSize:   int64(1024 * 1024),
		Concurrency: 3,
	})
	if err != nil {
		return fmt.Errorf("failed to upload blob %s: %w", name, err)
	}
	return nil
}

// Retrieve downloads an object, mapping a missing blob to ErrNotFound.
func (s *AzureStorage) Retrieve(name string) ([]byte, error) {
	ctx := context.Background()

	response, err := s.client.DownloadStream(ctx, s.containerName, name, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to download blob %s: %w", name, err)
	}
	defer response.Body.Close()

	data, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read blob content: %w", err)
	}
	return data, nil
}

// Append adds a block to an append blob, creating the blob on first use.
// The create is conditional on the blob not existing: an unconditional
// create is a Put Blob that would truncate the log on every call.
func (s *AzureStorage) Append(name string, data []byte) error {
	ctx := context.Background()
	client := s.appendClient(name)

	if _, err := client.Create(ctx, createIfAbsentOptions()); !createOK(err) {
		return fmt.Errorf("failed to create append blob %s: %w", name, err)
	}

	_, err := client.AppendBlock(ctx, streaming.NopCloser(bytes.NewReader(data)), nil)
	if err != nil {
		return fmt.Errorf("failed to append to blob %s: %w", name, err)
	}
	return nil
}

// createIfAbsentOptions makes the create a no-op when the blob already
// exists, via If-None-Match: *.
func createIfAbsentOptions() *appendblob.CreateOptions {
	return &appendblob.CreateOptions{
		AccessConditions: &blob.AccessConditions{
			ModifiedAccessConditions: &blob.ModifiedAccessConditions{
				IfNoneMatch: to.Ptr(azcore.ETagAny),
			},
		},
	}
}

// createOK reports whether a conditional create left a usable blob: either
// it was created now, or the condition failed because it already exists.
func createOK(err error) bool {
	return err == nil || bloberror.HasCode(err, bloberror.BlobAlreadyExists)
}

func (s *AzureStorage) appendClient(name string) *appendblob.Client {
	return s.client.ServiceClient().
		NewContainerClient(s.containerName).
		NewAppendBlobClient(name)
}

// List returns the names of all blobs with the given prefix.
func (s *AzureStorage) List(prefix string) ([]string, error) {
	ctx := context.Background()

	var blobNames []string
	pager := s.client.NewListBlobsFlatPager(s.containerName, &azblob.ListBlobsFlatOptions{
		Prefix: &prefix,
	})

	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list blobs: %w", err)
		}
		for _, blob := range page.Segment.BlobItems {
			if blob.Name != nil {
				blobNames = append(blobNames, *blob.Name)
			}
		}
	}

	return blobNames, nil
}

// Delete removes a blob. Deleting a missing blob is not an error.
func (s *AzureStorage) Delete(name string) error {
	ctx := context.Background()

	_, err := s.client.DeleteBlob(ctx, s.containerName, name, nil)
	if err != nil && !bloberror.HasCode(err, bloberror.BlobNotFound) {
		return fmt.Errorf("failed to delete blob %s: %w", name, err)
	}
	return nil
}
