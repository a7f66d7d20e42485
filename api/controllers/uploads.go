package controllers

import (
	"errors"
	"net/http"

	"github.com/angelmondragon/wholesale-backend/api/responses"
	"github.com/angelmondragon/wholesale-backend/internal/uploads"
	pkgerrors "github.com/angelmondragon/wholesale-backend/pkg/errors"
	"github.com/angelmondragon/wholesale-backend/pkg/logger"
)

const (
	uploadField = "file"
	// room for multipart boundaries and headers around the file part
	multipartOverhead = 64 << 10
	uploadMemory      = 1 << 20
)

// AdminUpload stores the image posted in the "file" multipart field.
func AdminUpload(svc uploads.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "upload service unavailable"))
			return
		}
		limit := svc.MaxBytes() + multipartOverhead
		tooLargeErr := pkgerrors.Newf(pkgerrors.CodeValidation, "file too large, maximum size is %dMB", svc.MaxBytes()>>20)
		if r.ContentLength > limit {
			responses.WriteError(r.Context(), logg, w, tooLargeErr)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, limit)
		if err := r.ParseMultipartForm(uploadMemory); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				responses.WriteError(r.Context(), logg, w, tooLargeErr)
				return
			}
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "no file uploaded"))
			return
		}
		defer func() {
			if r.MultipartForm != nil {
				_ = r.MultipartForm.RemoveAll()
			}
		}()

		file, _, err := r.FormFile(uploadField)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "no file uploaded"))
			return
		}
		defer file.Close()

		result, err := svc.Upload(r.Context(), file)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
