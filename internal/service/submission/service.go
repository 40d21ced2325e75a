// internal/service/submission/service.go
package submission

import (
	"context"
	"fmt"
	"strings"
	"time"

	"mohandz-service/internal/domain/request"
	xerrors "mohandz-service/internal/pkg/errors"
	"mohandz-service/internal/pkg/i18n"
	"mohandz-service/internal/pkg/metrics"
	"mohandz-service/internal/pkg/notify"
	"mohandz-service/internal/pkg/storage"
	"mohandz-service/internal/pkg/validation"
	"mohandz-service/internal/service/authstate"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	KindServiceRequest = "service_request"
	KindContact        = "contact"

	DefaultMaxFiles     = 5
	DefaultMaxFileBytes = 10 * 1024 * 1024
)

type RequestStore interface {
	Create(ctx context.Context, req *request.ServiceRequest) error
}

type ContactStore interface {
	Create(ctx context.Context, m *request.ContactMessage) error
}

// Limiter is implemented by *session.RateLimiter.
type Limiter interface {
	CheckSubmissionAttempt(ctx context.Context, ip, form string) (bool, error)
}

// Announcer is told about every stored service request.
type Announcer interface {
	RequestSubmitted(ctx context.Context, req *request.ServiceRequest)
}

type Config struct {
	MaxFiles     int
	MaxFileBytes int64
}

type Deps struct {
	Requests  RequestStore
	Contacts  ContactStore
	Bucket    storage.Bucket
	Limiter   Limiter
	Announcer Announcer
	Metrics   metrics.Recorder
	Logger    *zap.Logger
	Config    Config
}

type Service struct {
	requests  RequestStore
	contacts  ContactStore
	bucket    storage.Bucket
	limiter   Limiter
	announcer Announcer
	metrics   metrics.Recorder
	logger    *zap.Logger
	cfg       Config
	now       func() time.Time
}

func NewService(d Deps) *Service {
	if d.Config.MaxFiles <= 0 {
		d.Config.MaxFiles = DefaultMaxFiles
	}
	if d.Config.MaxFileBytes <= 0 {
		d.Config.MaxFileBytes = DefaultMaxFileBytes
	}
	if d.Metrics == nil {
		d.Metrics = metrics.Noop{}
	}
	return &Service{
		requests:  d.Requests,
		contacts:  d.Contacts,
		bucket:    d.Bucket,
		limiter:   d.Limiter,
		announcer: d.Announcer,
		metrics:   d.Metrics,
		logger:    d.Logger,
		cfg:       d.Config,
		now:       time.Now,
	}
}

// Submitter is who is sending a form.
type Submitter struct {
	UserID *uuid.UUID
	IP     string
	Lang   i18n.Lang
}

// SubmitterFrom builds a Submitter from a session snapshot.
func SubmitterFrom(snap authstate.Snapshot, ip string, lang i18n.Lang) Submitter {
	sub := Submitter{IP: ip, Lang: lang}
	if snap.Identity != nil {
		id := snap.Identity.ID
		sub.UserID = &id
	}
	return sub
}

// Result is returned for a stored submission. Cleared tells the form to
// reset; it is only true on success.
type Result struct {
	Request     *request.ServiceRequest `json:"request,omitempty"`
	Contact     *request.ContactMessage `json:"contact,omitempty"`
	Cleared     bool                    `json:"cleared"`
	Rejected    []string                `json:"rejected_files,omitempty"`
	FailedFiles []string                `json:"failed_files,omitempty"`
}

// Prefill returns the request form defaults for the session user.
func Prefill(snap authstate.Snapshot) request.Prefill {
	u := snap.User()
	if u == nil {
		return request.Prefill{}
	}
	return request.Prefill{FullName: u.FullName, Email: u.Email, Phone: u.Phone}
}

// ========== Service requests ==========

// SubmitServiceRequest validates the form, uploads what it can and stores
// the request. Exactly one success or error notification reaches sink;
// per-file problems add warnings.
func (s *Service) SubmitServiceRequest(ctx context.Context, sub Submitter, form request.ServiceRequestForm, files []Attachment, sink notify.Sink) (*Result, error) {
	form = trimRequestForm(form)

	if err := validateServiceRequest(form); err != nil {
		s.metrics.RecordSubmission(KindServiceRequest, "invalid")
		s.fail(sink, sub.Lang, i18n.RequestFailed, i18n.T(sub.Lang, validation.MessageKey(err)))
		return nil, err
	}
	if len(files) > s.cfg.MaxFiles {
		s.metrics.RecordSubmission(KindServiceRequest, "invalid")
		s.fail(sink, sub.Lang, i18n.FileCountLimit, "")
		return nil, xerrors.Invalid("files", "max_count")
	}
	if err := s.checkRate(ctx, sub, KindServiceRequest, sink); err != nil {
		return nil, err
	}

	res := &Result{}
	accepted := s.screen(files, sub.Lang, sink)
	for _, f := range files {
		if f.Size > s.cfg.MaxFileBytes {
			res.Rejected = append(res.Rejected, f.Name)
		}
	}

	var locators []string
	if len(accepted) > 0 {
		for _, r := range s.uploadAll(ctx, sub.UserID, accepted) {
			if r.err != nil {
				res.FailedFiles = append(res.FailedFiles, r.name)
				sink.Notify(notify.Event{
					Kind:    notify.KindWarning,
					Message: r.name + ": " + i18n.T(sub.Lang, i18n.FileUploadFailed),
				})
				continue
			}
			locators = append(locators, r.locator)
		}
	}

	req := &request.ServiceRequest{
		FullName: form.FullName,
		Email:    form.Email,
		Phone:    form.Phone,
		Details:  form.Details,
		UserID:   sub.UserID,
		FileURLs: locators,
		Status:   request.StatusNew,
	}
	if form.ServiceTitle != "" {
		title := form.ServiceTitle
		req.ServiceTitle = &title
	}

	if err := s.requests.Create(ctx, req); err != nil {
		s.logger.Error("failed to store service request", zap.Error(err))
		s.metrics.RecordSubmission(KindServiceRequest, "failed")
		s.fail(sink, sub.Lang, i18n.RequestFailed, i18n.T(sub.Lang, i18n.RequestFailedDetail))
		return nil, fmt.Errorf("failed to store service request: %w", err)
	}

	s.logger.Info("service request stored",
		zap.Int64("request_id", req.ID),
		zap.Int("attachments", len(locators)),
		zap.Int("failed_attachments", len(res.FailedFiles)),
	)
	s.metrics.RecordSubmission(KindServiceRequest, "success")
	sink.Notify(notify.Event{
		Kind:    notify.KindSuccess,
		Message: i18n.T(sub.Lang, i18n.RequestSent),
		Detail:  i18n.T(sub.Lang, i18n.RequestSentDetail),
	})
	if s.announcer != nil {
		s.announcer.RequestSubmitted(ctx, req)
	}

	res.Request = req
	res.Cleared = true
	return res, nil
}

// validateServiceRequest: every field but the service title is required,
// email must have the basic shape and the phone must be a Saudi mobile.
func validateServiceRequest(f request.ServiceRequestForm) error {
	for _, field := range []struct{ name, value string }{
		{"full_name", f.FullName},
		{"email", f.Email},
		{"phone", f.Phone},
		{"details", f.Details},
	} {
		if field.value == "" {
			return xerrors.Invalid(field.name, "required")
		}
	}
	if !validation.IsValidEmail(f.Email) {
		return xerrors.Invalid("email", "shape")
	}
	if !validation.IsValidSaudiPhone(f.Phone) {
		return xerrors.Invalid("phone", "saudi_mobile")
	}
	return nil
}

func trimRequestForm(f request.ServiceRequestForm) request.ServiceRequestForm {
	f.FullName = strings.TrimSpace(f.FullName)
	f.Email = strings.TrimSpace(f.Email)
	f.Phone = strings.TrimSpace(f.Phone)
	f.Details = strings.TrimSpace(f.Details)
	f.ServiceTitle = strings.TrimSpace(f.ServiceTitle)
	return f
}

// ========== Contact messages ==========

// SubmitContact stores a contact message. The phone is optional but must be
// a Saudi mobile when given.
func (s *Service) SubmitContact(ctx context.Context, sub Submitter, form request.ContactForm, sink notify.Sink) (*Result, error) {
	form.FullName = strings.TrimSpace(form.FullName)
	form.Email = strings.TrimSpace(form.Email)
	form.Phone = strings.TrimSpace(form.Phone)
	form.ServiceType = strings.TrimSpace(form.ServiceType)
	form.Message = strings.TrimSpace(form.Message)

	if err := validateContact(form); err != nil {
		s.metrics.RecordSubmission(KindContact, "invalid")
		s.fail(sink, sub.Lang, i18n.ContactFailed, i18n.T(sub.Lang, validation.MessageKey(err)))
		return nil, err
	}
	if err := s.checkRate(ctx, sub, KindContact, sink); err != nil {
		return nil, err
	}

	msg := &request.ContactMessage{
		FullName: form.FullName,
		Email:    form.Email,
		Message:  form.Message,
		UserID:   sub.UserID,
		Status:   request.StatusNew,
	}
	if form.Phone != "" {
		phone := form.Phone
		msg.Phone = &phone
	}
	if form.ServiceType != "" {
		st := form.ServiceType
		msg.ServiceType = &st
	}

	if err := s.contacts.Create(ctx, msg); err != nil {
		s.logger.Error("failed to store contact message", zap.Error(err))
		s.metrics.RecordSubmission(KindContact, "failed")
		s.fail(sink, sub.Lang, i18n.ContactFailed, i18n.T(sub.Lang, i18n.RequestFailedDetail))
		return nil, fmt.Errorf("failed to store contact message: %w", err)
	}

	s.metrics.RecordSubmission(KindContact, "success")
	sink.Notify(notify.Event{Kind: notify.KindSuccess, Message: i18n.T(sub.Lang, i18n.ContactSent)})
	return &Result{Contact: msg, Cleared: true}, nil
}

func validateContact(f request.ContactForm) error {
	for _, field := range []struct{ name, value string }{
		{"full_name", f.FullName},
		{"email", f.Email},
		{"message", f.Message},
	} {
		if field.value == "" {
			return xerrors.Invalid(field.name, "required")
		}
	}
	if !validation.IsValidEmail(f.Email) {
		return xerrors.Invalid("email", "shape")
	}
	if f.Phone != "" && !validation.IsValidSaudiPhone(f.Phone) {
		return xerrors.Invalid("phone", "saudi_mobile")
	}
	return nil
}

// ========== Helpers ==========

func (s *Service) checkRate(ctx context.Context, sub Submitter, kind string, sink notify.Sink) error {
	if s.limiter == nil || sub.IP == "" {
		return nil
	}
	ok, err := s.limiter.CheckSubmissionAttempt(ctx, sub.IP, kind)
	if err != nil {
		// A limiter outage lets the submission through.
		s.logger.Warn("submission rate limit check failed", zap.Error(err))
		return nil
	}
	if !ok {
		s.metrics.RecordSubmission(kind, "rate_limited")
		s.fail(sink, sub.Lang, i18n.TooManyAttempts, "")
		return xerrors.ErrRateLimited
	}
	return nil
}

func (s *Service) fail(sink notify.Sink, lang i18n.Lang, title i18n.Key, detail string) {
	sink.Notify(notify.Event{Kind: notify.KindError, Message: i18n.T(lang, title), Detail: detail})
}
