package handler

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/doctor-api/pkg/blobstore"
)

// FormUpload opens the multipart file under field. A missing file yields
// a nil upload so the service can report it alongside its other checks.
// The returned close func is never nil.
func FormUpload(c *gin.Context, field string) (*blobstore.Upload, func(), error) {
	header, err := c.FormFile(field)
	if err != nil {
		if stderrors.Is(err, http.ErrMissingFile) {
			return nil, func() {}, nil
		}
		return nil, func() {}, err
	}

	f, err := header.Open()
	if err != nil {
		return nil, func() {}, err
	}
	return &blobstore.Upload{Name: header.Filename, Size: header.Size, Content: f}, func() { f.Close() }, nil
}
