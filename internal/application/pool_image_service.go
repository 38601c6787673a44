package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"

	"github.com/bnema/guac-console/internal/domain"
	"github.com/bnema/guac-console/internal/ports"
	jsoniter "github.com/json-iterator/go"
)

const (
	poolImagePath       = "api/session/data/poolimage"
	uploadPoolImagePath = "api/session/data/uploadpoolimage"
	defaultUploadType   = "application/octet-stream"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// PoolImageService reads and replaces the pool image of the current session.
type PoolImageService struct {
	requester ports.Requester
	cache     ports.ResponseCache
	log       *slog.Logger
}

func NewPoolImageService(requester ports.Requester, cache ports.ResponseCache, log *slog.Logger) *PoolImageService {
	return &PoolImageService{
		requester: requester,
		cache:     cache,
		log:       log,
	}
}

// GetPoolImage returns the pool image visible to identity within dataSource. Results
// are cached in the users namespace, so repeated reads do not reach the server.
func (s *PoolImageService) GetPoolImage(ctx context.Context, dataSource, identity string) (domain.PoolImage, error) {
	resp, err := s.requester.Request(ctx, domain.RequestDescriptor{
		Method:    http.MethodGet,
		Path:      poolImagePath,
		Cache:     domain.CacheUsers,
		Partition: poolImagePartition(dataSource, identity),
	})
	if err != nil {
		return domain.PoolImage{}, fmt.Errorf("get pool image: %w", err)
	}

	image := domain.PoolImage{
		ContentType: resp.ContentType(),
		Data:        resp.Body,
	}
	if isJSON(image.ContentType) && len(resp.Body) > 0 {
		var metadata domain.ImageMetadata
		if err := json.Unmarshal(resp.Body, &metadata); err != nil {
			s.log.Warn("pool image payload is not an image object", "error", err)
		} else {
			image.Image = &metadata
		}
	}

	return image, nil
}

// UploadPoolImage replaces the pool image with file. Once the server accepts it the
// users namespace is cleared, so the next read goes to the server.
func (s *PoolImageService) UploadPoolImage(ctx context.Context, file domain.UploadFile, identity string) error {
	if len(file.Data) == 0 {
		return errors.New("upload file is empty")
	}

	contentType := file.ContentType
	if contentType == "" {
		contentType = defaultUploadType
	}

	_, err := s.requester.Request(ctx, domain.RequestDescriptor{
		Method:      http.MethodPost,
		Path:        uploadPoolImagePath,
		Body:        file.Data,
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("upload pool image: %w", err)
	}

	s.cache.InvalidateAll(domain.CacheUsers)
	s.log.Info("pool image uploaded", "identity", identity, "file", file.Name, "bytes", len(file.Data))

	return nil
}

func poolImagePartition(dataSource, identity string) string {
	return dataSource + "/" + identity
}

func isJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && mediaType == "application/json"
}
