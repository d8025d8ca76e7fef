package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"factoryfeed/internal/config"
	"factoryfeed/internal/middleware"
	"factoryfeed/internal/models"
	"factoryfeed/internal/storage"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	DefaultImageMaxUploadSizeMB = 10
	MaxImageWidth               = 800
	MaxImageHeight              = 600
	JPEGQuality                 = 85
	WebPQuality                 = 80

	// ImagePlaceholder is shown in place of an image whose file is gone.
	ImagePlaceholder = "[image not available]"
)

var imageContentTypes = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
}

// ImageUpload is a raw image attached to a new post.
type ImageUpload struct {
	Filename string
	Content  []byte
}

// PreparedImage is a decoded, down-sized image ready to be stored.
type PreparedImage struct {
	Ext         string
	ContentType string
	Data        []byte
	Width       int
	Height      int
}

// ImageService validates, down-sizes and stores post images.
type ImageService struct {
	store              storage.ObjectStore
	maxUploadSizeBytes int64
}

func NewImageService(store storage.ObjectStore, cfg *config.Config) *ImageService {
	maxMB := DefaultImageMaxUploadSizeMB
	if cfg != nil && cfg.ImageMaxUploadSizeMB > 0 {
		maxMB = cfg.ImageMaxUploadSizeMB
	}
	return &ImageService{store: store, maxUploadSizeBytes: int64(maxMB) * 1024 * 1024}
}

// ImageExt returns the normalized extension of filename when it is an accepted image type.
func ImageExt(filename string) (string, bool) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	_, ok := imageContentTypes[ext]
	return ext, ok
}

// ImageKey is the object key for a post's image.
func ImageKey(postID uint, ext string) string {
	return fmt.Sprintf("post_%d.%s", postID, ext)
}

// Prepare checks the upload, decodes it and shrinks it to fit within 800x600,
// keeping the aspect ratio. Images already small enough are re-encoded as is.
func (s *ImageService) Prepare(in ImageUpload) (*PreparedImage, error) {
	ext, ok := ImageExt(in.Filename)
	if !ok {
		return nil, models.NewValidationError("Unsupported image type (allowed: jpg, jpeg, png, gif, webp)")
	}
	if len(in.Content) == 0 {
		return nil, models.NewValidationError("No file uploaded")
	}
	if int64(len(in.Content)) > s.maxUploadSizeBytes {
		return nil, models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", s.maxUploadSizeBytes/(1024*1024)))
	}

	decoded, _, err := image.Decode(bytes.NewReader(in.Content))
	if err != nil {
		return nil, models.NewValidationError("Invalid image file")
	}

	resized := resizeToFit(decoded, MaxImageWidth, MaxImageHeight)
	data, err := encodeImage(resized, ext)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	b := resized.Bounds()
	return &PreparedImage{
		Ext:         ext,
		ContentType: imageContentTypes[ext],
		Data:        data,
		Width:       b.Dx(),
		Height:      b.Dy(),
	}, nil
}

// Store writes the prepared image under the post's key and returns that key.
func (s *ImageService) Store(ctx context.Context, postID uint, img *PreparedImage) (string, error) {
	key := ImageKey(postID, img.Ext)
	if err := s.store.Put(ctx, key, bytes.NewReader(img.Data), int64(len(img.Data)), img.ContentType); err != nil {
		return "", models.NewInternalError(err)
	}
	return key, nil
}

// Open returns the stored image. A missing object yields ok=false and no error,
// so callers render ImagePlaceholder instead of failing.
func (s *ImageService) Open(ctx context.Context, key string) (rc io.ReadCloser, contentType string, ok bool, err error) {
	ext, valid := ImageExt(key)
	if !valid {
		return nil, "", false, nil
	}
	rc, err = s.store.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, "", false, nil
	}
	if err != nil {
		return nil, "", false, models.NewInternalError(err)
	}
	return rc, imageContentTypes[ext], true, nil
}

// Remove deletes a stored image; failures are logged, never returned.
func (s *ImageService) Remove(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.store.Delete(ctx, key); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to delete post image",
			slog.String("key", key), slog.String("error", err.Error()))
	}
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 0 || h <= 0 || (w <= maxWidth && h <= maxHeight) {
		return src
	}

	scale := min(float64(maxWidth)/float64(w), float64(maxHeight)/float64(h))
	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func encodeImage(img image.Image, ext string) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	var err error
	switch ext {
	case "jpg", "jpeg":
		err = jpeg.Encode(buf, img, &jpeg.Options{Quality: JPEGQuality})
	case "png":
		err = png.Encode(buf, img)
	case "gif":
		err = gif.Encode(buf, img, nil)
	case "webp":
		err = webp.Encode(buf, img, &webp.Options{Quality: WebPQuality})
	default:
		err = fmt.Errorf("unsupported image extension %q", ext)
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
