package uploads

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/angelmondragon/wholesale-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/wholesale-backend/pkg/errors"
	"github.com/angelmondragon/wholesale-backend/pkg/logger"
)

const (
	defaultMaxMB   = 5
	randomSuffixLn = 6
	randomAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
)

// allowedTypes maps each accepted sniffed mime type to the stored extension.
var allowedTypes = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

// Result describes a stored image.
type Result struct {
	Success  bool   `json:"success"`
	ImageURL string `json:"image_url"`
	Filename string `json:"filename"`
}

// Service validates and stores admin image uploads.
type Service interface {
	Upload(ctx context.Context, body io.Reader) (*Result, error)
	MaxBytes() int64
}

type service struct {
	store     Store
	publicURL string
	maxBytes  int64
	logg      *logger.Logger
	now       func() time.Time
}

func NewService(cfg config.UploadsConfig, store Store, logg *logger.Logger) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("upload store is required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	maxMB := cfg.MaxMB
	if maxMB <= 0 {
		maxMB = defaultMaxMB
	}
	publicURL := strings.TrimRight(cfg.PublicURL, "/")
	if publicURL == "" {
		publicURL = "/uploads"
	}
	return &service{
		store:     store,
		publicURL: publicURL,
		maxBytes:  int64(maxMB) << 20,
		logg:      logg,
		now:       time.Now,
	}, nil
}

func (s *service) MaxBytes() int64 { return s.maxBytes }

// Upload sniffs the content type, enforces the size cap and writes the file
// under a generated name.
func (s *service) Upload(ctx context.Context, body io.Reader) (*Result, error) {
	if body == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no file uploaded")
	}
	data, err := io.ReadAll(io.LimitReader(body, s.maxBytes+1))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read upload")
	}
	if len(data) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no file uploaded")
	}

	ext, ok := allowedTypes[mimetype.Detect(data).String()]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid file type, please upload JPG, PNG, or WEBP")
	}
	if int64(len(data)) > s.maxBytes {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "file too large, maximum size is %dMB", s.maxBytes>>20)
	}

	suffix, err := randomSuffix(randomSuffixLn)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate filename")
	}
	filename := fmt.Sprintf("%d-%s.%s", s.now().UnixMilli(), suffix, ext)

	if err := s.store.Put(ctx, filename, data); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to upload file")
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"filename": filename,
		"bytes":    len(data),
	}), "image uploaded")

	return &Result{
		Success:  true,
		ImageURL: path.Join(s.publicURL, filename),
		Filename: filename,
	}, nil
}

func randomSuffix(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = randomAlphabet[int(b)%len(randomAlphabet)]
	}
	return string(buf), nil
}
