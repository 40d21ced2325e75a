// internal/service/submission/attachments.go
package submission

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"time"

	"mohandz-service/internal/pkg/i18n"
	"mohandz-service/internal/pkg/notify"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Attachment is one file picked in the request form.
type Attachment struct {
	Name string
	Size int64
	Open func() (io.ReadCloser, error)
}

type uploadResult struct {
	name    string
	locator string
	err     error
}

var whitespace = regexp.MustCompile(`\s`)

// objectPath is public/{user id or "guest"}/{unix millis}-{seq}_{name}, with
// every whitespace rune in the name replaced by "_". seq is the file's
// position in its batch, so equal names in one submission get distinct paths.
func objectPath(userID *uuid.UUID, at time.Time, seq int, name string) string {
	owner := "guest"
	if userID != nil {
		owner = userID.String()
	}
	return fmt.Sprintf("public/%s/%d-%d_%s", owner, at.UnixMilli(), seq, whitespace.ReplaceAllString(name, "_"))
}

// screen drops files over the size limit, warning once per dropped file.
func (s *Service) screen(files []Attachment, lang i18n.Lang, sink notify.Sink) []Attachment {
	kept := make([]Attachment, 0, len(files))
	for _, f := range files {
		if f.Size > s.cfg.MaxFileBytes {
			s.metrics.RecordUpload("rejected")
			sink.Notify(notify.Event{
				Kind:    notify.KindWarning,
				Message: f.Name + ": " + i18n.T(lang, i18n.FileTooLarge),
			})
			continue
		}
		kept = append(kept, f)
	}
	return kept
}

// uploadAll uploads every file concurrently. One failure never cancels the
// others; results keep the input order.
func (s *Service) uploadAll(ctx context.Context, userID *uuid.UUID, files []Attachment) []uploadResult {
	results := make([]uploadResult, len(files))
	at := s.now()

	var g errgroup.Group
	g.SetLimit(s.cfg.MaxFiles)
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			results[i] = uploadResult{name: f.Name}
			locator, err := s.upload(ctx, objectPath(userID, at, i+1, f.Name), f)
			if err != nil {
				s.metrics.RecordUpload("failed")
				s.logger.Warn("attachment upload failed", zap.String("file", f.Name), zap.Error(err))
				results[i].err = err
				return nil
			}
			s.metrics.RecordUpload("success")
			results[i].locator = locator
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (s *Service) upload(ctx context.Context, path string, f Attachment) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()

	stored, err := s.bucket.Upload(ctx, path, rc)
	if err != nil {
		return "", err
	}
	return s.bucket.PublicURL(stored), nil
}
