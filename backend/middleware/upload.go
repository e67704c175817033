package middleware

import (
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"elearning/backend/media"
	"elearning/backend/utils"
)

const (
	uploadKey = "upload"
	// UploadField is the multipart field carrying the file.
	UploadField = "file"
)

type UploadedFile struct {
	Ref         string
	Thumbnail   string
	ContentType string
}

// Upload stores the request's file before the handler runs. Images also get a thumbnail.
// Stored files are removed again when the handler fails.
func Upload(storage media.Storage, kind media.Kind, logger *zap.SugaredLogger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile(UploadField)
		if err != nil {
			// no file; the handler decides whether one was required
			return c.Next()
		}
		f, err := fh.Open()
		if err != nil {
			return errors.Wrap(err, "open upload")
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return errors.Wrap(err, "read upload")
		}

		contentType, err := media.Detect(data, kind)
		if err != nil {
			return utils.BadRequest(c, "Unsupported file type")
		}

		ctx := c.UserContext()
		up := &UploadedFile{ContentType: contentType}
		if up.Ref, err = storage.Save(ctx, fh.Filename, contentType, data); err != nil {
			return err
		}
		if kind == media.KindImage {
			thumb, err := media.Thumbnail(data)
			if err != nil {
				logger.Warnw("thumbnail failed", "file", fh.Filename, "error", err)
			} else if up.Thumbnail, err = storage.Save(ctx, "thumb-"+fh.Filename+".jpg", "image/jpeg", thumb); err != nil {
				logger.Warnw("save thumbnail failed", "file", fh.Filename, "error", err)
				up.Thumbnail = ""
			}
		}
		c.Locals(uploadKey, up)

		err = c.Next()
		if err != nil || c.Response().StatusCode() >= fiber.StatusBadRequest {
			for _, ref := range []string{up.Ref, up.Thumbnail} {
				if ref == "" {
					continue
				}
				if derr := storage.Delete(ctx, ref); derr != nil {
					logger.Warnw("cleanup upload failed", "ref", ref, "error", derr)
				}
			}
		}
		return err
	}
}

// Uploaded returns the file stored by Upload, or nil.
func Uploaded(c *fiber.Ctx) *UploadedFile {
	up, _ := c.Locals(uploadKey).(*UploadedFile)
	return up
}
