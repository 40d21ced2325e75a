package submission

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"mohandz-service/internal/domain/auth"
	"mohandz-service/internal/domain/profile"
	"mohandz-service/internal/domain/request"
	xerrors "mohandz-service/internal/pkg/errors"
	"mohandz-service/internal/pkg/i18n"
	"mohandz-service/internal/pkg/notify"
	"mohandz-service/internal/pkg/storage"
	"mohandz-service/internal/service/authstate"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memRequests struct {
	mu     sync.Mutex
	stored []*request.ServiceRequest
	err    error
}

func (m *memRequests) Create(_ context.Context, r *request.ServiceRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	r.ID = int64(len(m.stored) + 1)
	m.stored = append(m.stored, r)
	return nil
}

type memContacts struct {
	stored []*request.ContactMessage
}

func (m *memContacts) Create(_ context.Context, c *request.ContactMessage) error {
	c.ID = int64(len(m.stored) + 1)
	m.stored = append(m.stored, c)
	return nil
}

// flakyBucket fails every object whose path contains fail.
type flakyBucket struct {
	*storage.FSBucket
	fail string

	mu    sync.Mutex
	calls int
}

func (b *flakyBucket) Upload(ctx context.Context, path string, r io.Reader) (string, error) {
	b.mu.Lock()
	b.calls++
	b.mu.Unlock()
	if b.fail != "" && strings.Contains(path, b.fail) {
		return "", errors.New("storage quota exceeded")
	}
	return b.FSBucket.Upload(ctx, path, r)
}

type denyAll struct{}

func (denyAll) CheckSubmissionAttempt(context.Context, string, string) (bool, error) {
	return false, nil
}

type announcerFunc func(*request.ServiceRequest)

func (f announcerFunc) RequestSubmitted(_ context.Context, r *request.ServiceRequest) { f(r) }

type fixture struct {
	svc      *Service
	fs       afero.Fs
	bucket   *flakyBucket
	requests *memRequests
	contacts *memContacts
}

var fixedNow = time.UnixMilli(1_700_000_000_000)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	fs := afero.NewMemMapFs()
	fsb, err := storage.NewFSBucket(fs, "project_files", "https://mohandz.sa/files")
	require.NoError(t, err)

	f := &fixture{
		fs:       fs,
		bucket:   &flakyBucket{FSBucket: fsb},
		requests: &memRequests{},
		contacts: &memContacts{},
	}
	f.svc = NewService(Deps{
		Requests: f.requests,
		Contacts: f.contacts,
		Bucket:   f.bucket,
		Logger:   zap.NewNop(),
	})
	f.svc.now = func() time.Time { return fixedNow }
	return f
}

func file(name string, size int64) Attachment {
	return Attachment{
		Name: name,
		Size: size,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader("%PDF-1.4 " + name)), nil
		},
	}
}

func validForm() request.ServiceRequestForm {
	return request.ServiceRequestForm{
		FullName:     "Ali Hassan",
		Email:        "ali@example.com",
		Phone:        "0512345678",
		Details:      "Structural review for a two-storey villa",
		ServiceTitle: "Structural Design",
	}
}

var guest = Submitter{IP: "10.0.0.1", Lang: i18n.English}

func TestSubmitServiceRequest_WithAttachments(t *testing.T) {
	f := newFixture(t)
	sink := notify.NewCollector()

	res, err := f.svc.SubmitServiceRequest(context.Background(), guest, validForm(),
		[]Attachment{file("site plan.pdf", 1024), file("survey.pdf", 2048)}, sink)
	require.NoError(t, err)

	assert.True(t, res.Cleared)
	require.Len(t, f.requests.stored, 1)
	stored := f.requests.stored[0]
	assert.Equal(t, request.StatusNew, stored.Status)
	assert.Nil(t, stored.UserID)
	require.NotNil(t, stored.ServiceTitle)
	assert.Equal(t, "Structural Design", *stored.ServiceTitle)
	assert.Equal(t, []string{
		"https://mohandz.sa/files/project_files/public/guest/1700000000000-1_site_plan.pdf",
		"https://mohandz.sa/files/project_files/public/guest/1700000000000-2_survey.pdf",
	}, stored.FileURLs)

	exists, err := afero.Exists(f.fs, "project_files/public/guest/1700000000000-1_site_plan.pdf")
	require.NoError(t, err)
	assert.True(t, exists)

	assert.Equal(t, 1, sink.Count(notify.KindSuccess))
	assert.Equal(t, 0, sink.Count(notify.KindError))
	assert.Equal(t, "✅ Your request has been sent successfully", sink.Events()[0].Message)
}

func TestSubmitServiceRequest_TooManyFilesUploadsNothing(t *testing.T) {
	f := newFixture(t)
	sink := notify.NewCollector()

	files := make([]Attachment, 6)
	for i := range files {
		files[i] = file(fmt.Sprintf("f%d.pdf", i), 10)
	}
	res, err := f.svc.SubmitServiceRequest(context.Background(), guest, validForm(), files, sink)

	assert.Nil(t, res)
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)
	assert.Zero(t, f.bucket.calls)
	assert.Empty(t, f.requests.stored)
	require.Len(t, sink.Events(), 1)
	assert.Equal(t, "Cannot upload more than 5 files", sink.Events()[0].Message)
}

func TestSubmitServiceRequest_OversizedFileIsSkipped(t *testing.T) {
	f := newFixture(t)
	sink := notify.NewCollector()

	res, err := f.svc.SubmitServiceRequest(context.Background(), guest, validForm(),
		[]Attachment{file("huge.dwg", DefaultMaxFileBytes+1), file("ok.pdf", 100)}, sink)
	require.NoError(t, err)

	assert.Equal(t, []string{"huge.dwg"}, res.Rejected)
	assert.Len(t, res.Request.FileURLs, 1)
	assert.Equal(t, 1, f.bucket.calls)
	assert.Equal(t, 1, sink.Count(notify.KindWarning))
	assert.Contains(t, sink.Events()[0].Message, "huge.dwg")
	assert.Equal(t, 1, sink.Count(notify.KindSuccess))
}

func TestSubmitServiceRequest_PartialUploadFailure(t *testing.T) {
	f := newFixture(t)
	f.bucket.fail = "bad"
	sink := notify.NewCollector()

	res, err := f.svc.SubmitServiceRequest(context.Background(), guest, validForm(),
		[]Attachment{file("a.pdf", 1), file("bad.pdf", 1), file("c.pdf", 1)}, sink)
	require.NoError(t, err)

	assert.Equal(t, 3, f.bucket.calls, "a failure must not cancel the other uploads")
	assert.Equal(t, []string{"bad.pdf"}, res.FailedFiles)
	assert.Len(t, res.Request.FileURLs, 2)
	assert.True(t, res.Cleared)
	assert.Equal(t, 1, sink.Count(notify.KindWarning))
	assert.Equal(t, 1, sink.Count(notify.KindSuccess))
	assert.Equal(t, 0, sink.Count(notify.KindError))
}

func TestSubmitServiceRequest_SameNameFilesAreBothStored(t *testing.T) {
	f := newFixture(t)
	sink := notify.NewCollector()

	res, err := f.svc.SubmitServiceRequest(context.Background(), guest, validForm(),
		[]Attachment{file("scan.jpg", 10), file("scan.jpg", 10)}, sink)
	require.NoError(t, err)

	assert.Empty(t, res.FailedFiles)
	assert.Equal(t, []string{
		"https://mohandz.sa/files/project_files/public/guest/1700000000000-1_scan.jpg",
		"https://mohandz.sa/files/project_files/public/guest/1700000000000-2_scan.jpg",
	}, res.Request.FileURLs)
	assert.Equal(t, 0, sink.Count(notify.KindWarning))
}

func TestSubmitServiceRequest_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*request.ServiceRequestForm)
		field  string
		rule   string
		detail string
	}{
		{"missing details", func(f *request.ServiceRequestForm) { f.Details = "  " }, "details", "required", "Please fill in all required fields."},
		{"missing name", func(f *request.ServiceRequestForm) { f.FullName = "" }, "full_name", "required", "Please fill in all required fields."},
		{"bad email", func(f *request.ServiceRequestForm) { f.Email = "ali@example" }, "email", "shape", "Please enter a valid email address."},
		{"non-saudi phone", func(f *request.ServiceRequestForm) { f.Phone = "+971501234567" }, "phone", "saudi_mobile", "Please enter a valid Saudi phone number (e.g., 0512345678)."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			sink := notify.NewCollector()
			form := validForm()
			tt.mutate(&form)

			_, err := f.svc.SubmitServiceRequest(context.Background(), guest, form, []Attachment{file("a.pdf", 1)}, sink)
			var ve *xerrors.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
			assert.Equal(t, tt.rule, ve.Rule)

			assert.Empty(t, f.requests.stored)
			assert.Zero(t, f.bucket.calls)
			require.Len(t, sink.Events(), 1)
			assert.Equal(t, notify.KindError, sink.Events()[0].Kind)
			assert.Equal(t, tt.detail, sink.Events()[0].Detail)
		})
	}
}

func TestSubmitServiceRequest_StoreFailure(t *testing.T) {
	f := newFixture(t)
	f.requests.err = errors.New("connection reset")
	sink := notify.NewCollector()

	res, err := f.svc.SubmitServiceRequest(context.Background(), guest, validForm(), nil, sink)
	assert.Nil(t, res)
	require.Error(t, err)
	require.Len(t, sink.Events(), 1)
	assert.Equal(t, notify.KindError, sink.Events()[0].Kind)
	assert.Equal(t, "❌ Failed to send request", sink.Events()[0].Message)
}

func TestSubmitServiceRequest_SignedInUserAndAnnouncer(t *testing.T) {
	f := newFixture(t)
	var announced *request.ServiceRequest
	f.svc.announcer = announcerFunc(func(r *request.ServiceRequest) { announced = r })

	id := uuid.New()
	sub := Submitter{UserID: &id, Lang: i18n.Arabic}
	res, err := f.svc.SubmitServiceRequest(context.Background(), sub, validForm(), []Attachment{file("plan\tv2.pdf", 5)}, notify.Discard)
	require.NoError(t, err)

	require.NotNil(t, res.Request.UserID)
	assert.Equal(t, id, *res.Request.UserID)
	assert.Equal(t, res.Request, announced)
	assert.Contains(t, res.Request.FileURLs[0], "/public/"+id.String()+"/1700000000000-1_plan_v2.pdf")
}

func TestSubmitServiceRequest_RateLimited(t *testing.T) {
	f := newFixture(t)
	f.svc.limiter = denyAll{}
	sink := notify.NewCollector()

	_, err := f.svc.SubmitServiceRequest(context.Background(), guest, validForm(), nil, sink)
	assert.ErrorIs(t, err, xerrors.ErrRateLimited)
	assert.Empty(t, f.requests.stored)
	assert.Equal(t, 1, sink.Count(notify.KindError))
}

func TestSubmitContact(t *testing.T) {
	form := request.ContactForm{FullName: "Sara", Email: "sara@example.com", Message: "Do you do MEP design?"}

	t.Run("phone optional", func(t *testing.T) {
		f := newFixture(t)
		sink := notify.NewCollector()
		res, err := f.svc.SubmitContact(context.Background(), guest, form, sink)
		require.NoError(t, err)
		assert.True(t, res.Cleared)
		assert.Nil(t, res.Contact.Phone)
		assert.Equal(t, request.StatusNew, res.Contact.Status)
		assert.Equal(t, 1, sink.Count(notify.KindSuccess))
	})

	t.Run("phone checked when given", func(t *testing.T) {
		f := newFixture(t)
		bad := form
		bad.Phone = "12345"
		_, err := f.svc.SubmitContact(context.Background(), guest, bad, notify.Discard)
		assert.ErrorIs(t, err, xerrors.ErrInvalidInput)
		assert.Empty(t, f.contacts.stored)

		good := form
		good.Phone = "512345678"
		res, err := f.svc.SubmitContact(context.Background(), guest, good, notify.Discard)
		require.NoError(t, err)
		require.NotNil(t, res.Contact.Phone)
		assert.Equal(t, "512345678", *res.Contact.Phone)
	})

	t.Run("message required", func(t *testing.T) {
		f := newFixture(t)
		empty := form
		empty.Message = ""
		_, err := f.svc.SubmitContact(context.Background(), guest, empty, notify.Discard)
		assert.ErrorIs(t, err, xerrors.ErrInvalidInput)
	})
}

func TestObjectPath(t *testing.T) {
	id := uuid.MustParse("7c9e6679-7425-40de-944b-e07fc1f90ae7")
	at := time.UnixMilli(42)
	assert.Equal(t, "public/guest/42-1_my_file_.pdf", objectPath(nil, at, 1, "my file .pdf"))
	assert.Equal(t, "public/7c9e6679-7425-40de-944b-e07fc1f90ae7/42-3_a_b.png", objectPath(&id, at, 3, "a\tb.png"))
}

func TestPrefill(t *testing.T) {
	assert.Equal(t, request.Prefill{}, Prefill(authstate.Snapshot{}))

	id := uuid.New()
	snap := authstate.Snapshot{
		Identity: &auth.User{ID: id, Email: "ali@example.com", UserMetadata: map[string]interface{}{"full_name": "Ali"}},
		Profile:  &profile.Profile{ID: id, Role: "client", Phone: "0512345678"},
	}
	assert.Equal(t, request.Prefill{FullName: "Ali", Email: "ali@example.com", Phone: "0512345678"}, Prefill(snap))
}

func TestSubmitterFrom(t *testing.T) {
	assert.Nil(t, SubmitterFrom(authstate.Snapshot{}, "1.2.3.4", i18n.Arabic).UserID)

	id := uuid.New()
	sub := SubmitterFrom(authstate.Snapshot{Identity: &auth.User{ID: id}}, "1.2.3.4", i18n.English)
	require.NotNil(t, sub.UserID)
	assert.Equal(t, id, *sub.UserID)
	assert.Equal(t, i18n.English, sub.Lang)
}
