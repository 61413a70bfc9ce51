package service

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/skillopus-api/internal/dto"
	"github.com/noah-isme/skillopus-api/internal/models"
	"github.com/noah-isme/skillopus-api/internal/repository"
)

type stubUploader struct {
	calls    int
	lastName string
	lastBody []byte
}

func (s *stubUploader) Upload(_ context.Context, name string, reader io.Reader) (string, error) {
	s.calls++
	s.lastName = name
	body, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	s.lastBody = body
	return "https://cdn.example.com/videos/" + name, nil
}

var mp4Header = []byte{0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p', 'm', 'p', '4', '2', 0x00, 0x00, 0x00, 0x00, 'm', 'p', '4', '2', 'i', 's', 'o', 'm'}

func buildFileHeader(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	form, err := multipart.NewReader(body, writer.Boundary()).ReadForm(10 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["file"][0]
}

type lessonFixture struct {
	svc       LessonService
	uploader  *stubUploader
	publisher *recordingPublisher
	acme      tenant
	globex    tenant
	repo      repository.LessonRepository
	enrolls   repository.EnrollmentRepository
}

func newLessonFixture(t *testing.T, maxMB int) lessonFixture {
	t.Helper()
	db := setupTestDB(t)
	f := lessonFixture{
		uploader:  &stubUploader{},
		publisher: &recordingPublisher{},
		acme:      seedTenant(t, db, "acme"),
		globex:    seedTenant(t, db, "globex"),
		repo:      repository.NewLessonRepository(db),
		enrolls:   repository.NewEnrollmentRepository(db),
	}
	f.svc = NewLessonService(f.repo, repository.NewCourseRepository(db), f.uploader, maxMB, newValidator(), f.publisher, testLogger())
	return f
}

func TestLessonServiceCreateWithContentURLDefaultsOrder(t *testing.T) {
	f := newLessonFixture(t, 1)
	ctx := context.Background()

	lesson, err := f.svc.Create(ctx, f.acme.actor(f.acme.instructor), f.acme.course.ID, dto.LessonCreateRequest{
		Title: "Closures", ContentURL: "https://cdn.example.com/closures.mp4",
	}, nil)
	require.NoError(t, err)
	require.Equal(t, 3, lesson.LessonOrder)
	require.Equal(t, []string{EventLessonCreated}, f.publisher.types())

	_, err = f.svc.Create(ctx, f.acme.actor(f.acme.instructor), f.acme.course.ID, dto.LessonCreateRequest{Title: "Empty"}, nil)
	require.ErrorIs(t, err, ErrLessonContentRequired)

	_, err = f.svc.Create(ctx, f.acme.actor(f.acme.student), f.acme.course.ID, dto.LessonCreateRequest{Title: "Nope", ContentURL: "https://x.io/a.mp4"}, nil)
	require.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.Create(ctx, f.acme.actor(f.acme.admin), f.globex.course.ID, dto.LessonCreateRequest{Title: "Nope", ContentURL: "https://x.io/a.mp4"}, nil)
	require.ErrorIs(t, err, ErrCourseNotFound)
}

func TestLessonServiceUploadsSniffedVideo(t *testing.T) {
	f := newLessonFixture(t, 1)
	ctx := context.Background()

	video := append(append([]byte{}, mp4Header...), bytes.Repeat([]byte{0x01}, 512)...)
	lesson, err := f.svc.Create(ctx, f.acme.actor(f.acme.admin), f.acme.course.ID, dto.LessonCreateRequest{Title: "Video"}, buildFileHeader(t, "intro.mp4", video))
	require.NoError(t, err)
	require.Equal(t, "https://cdn.example.com/videos/intro.mp4", lesson.ContentURL)
	require.Equal(t, video, f.uploader.lastBody)

	_, err = f.svc.Create(ctx, f.acme.actor(f.acme.admin), f.acme.course.ID, dto.LessonCreateRequest{Title: "Text"}, buildFileHeader(t, "notes.mp4", []byte("just some notes")))
	require.ErrorIs(t, err, ErrUploadTypeNotAllowed)

	large := append(append([]byte{}, mp4Header...), bytes.Repeat([]byte{0x02}, 1<<20)...)
	_, err = f.svc.Create(ctx, f.acme.actor(f.acme.admin), f.acme.course.ID, dto.LessonCreateRequest{Title: "Huge"}, buildFileHeader(t, "huge.mp4", large))
	require.ErrorIs(t, err, ErrUploadTooLarge)
	require.Equal(t, 1, f.uploader.calls)
}

func TestLessonServiceUploadsDisabledWithoutStorage(t *testing.T) {
	db := setupTestDB(t)
	acme := seedTenant(t, db, "acme")
	svc := NewLessonService(repository.NewLessonRepository(db), repository.NewCourseRepository(db), nil, 10, newValidator(), nil, testLogger())

	_, err := svc.Create(context.Background(), acme.actor(acme.admin), acme.course.ID, dto.LessonCreateRequest{Title: "Video"}, buildFileHeader(t, "intro.mp4", mp4Header))
	require.ErrorIs(t, err, ErrUploadsDisabled)
}

func TestLessonServiceStudentGateAndUpdate(t *testing.T) {
	f := newLessonFixture(t, 1)
	ctx := context.Background()

	listed, err := f.svc.ListByCourse(ctx, f.acme.actor(f.acme.student), f.acme.course.ID)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	require.Equal(t, "Lesson 1", listed[0].Title)

	_, err = f.svc.Get(ctx, f.acme.actor(f.acme.student), f.globex.lessons[0].ID)
	require.ErrorIs(t, err, ErrLessonNotFound)

	order := 0
	title := "Welcome"
	updated, err := f.svc.Update(ctx, f.acme.actor(f.acme.instructor), f.acme.lessons[1].ID, dto.LessonUpdateRequest{Title: &title, LessonOrder: &order})
	require.NoError(t, err)
	require.Equal(t, "Welcome", updated.Title)

	reordered, err := f.svc.ListByCourse(ctx, f.acme.actor(f.acme.admin), f.acme.course.ID)
	require.NoError(t, err)
	require.Equal(t, "Welcome", reordered[0].Title)

	_, err = f.svc.Update(ctx, f.acme.actor(f.acme.student), f.acme.lessons[1].ID, dto.LessonUpdateRequest{Title: &title})
	require.ErrorIs(t, err, ErrForbidden)
}

func TestLessonServiceDeletePrunesProgress(t *testing.T) {
	f := newLessonFixture(t, 1)
	ctx := context.Background()
	now := time.Now()

	enrollment := models.Enrollment{StudentID: f.acme.student.ID, CourseID: f.acme.course.ID, OrganizationID: f.acme.org.ID, EnrolledAt: now}
	require.NoError(t, f.enrolls.Create(ctx, &enrollment))
	require.NoError(t, f.enrolls.AppendProgress(ctx, enrollment.ID, models.LessonProgress{LessonID: f.acme.lessons[0].ID, Status: true, CompletedAt: &now}))

	require.NoError(t, f.svc.Delete(ctx, f.acme.actor(f.acme.admin), f.acme.lessons[0].ID))

	stored, err := f.enrolls.GetByID(ctx, enrollment.ID)
	require.NoError(t, err)
	require.Empty(t, stored.Progress)

	require.ErrorIs(t, f.svc.Delete(ctx, f.acme.actor(f.acme.admin), f.acme.lessons[0].ID), ErrLessonNotFound)
}
