package service

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/skillopus-api/internal/dto"
	"github.com/noah-isme/skillopus-api/internal/models"
	"github.com/noah-isme/skillopus-api/internal/observability"
	"github.com/noah-isme/skillopus-api/internal/repository"
)

var (
	// ErrLessonNotFound indicates the lesson does not exist in the caller's organization.
	ErrLessonNotFound = errors.New("lesson not found")
	// ErrLessonContentRequired indicates neither a file nor a content URL was supplied.
	ErrLessonContentRequired = errors.New("lesson requires a video file or content_url")
	// ErrUploadTooLarge indicates the payload exceeded the configured limit.
	ErrUploadTooLarge = errors.New("file exceeds maximum allowed size")
	// ErrUploadTypeNotAllowed indicates the sniffed MIME type is not a video.
	ErrUploadTypeNotAllowed = errors.New("only video files can be uploaded")
	// ErrUploadsDisabled indicates no media storage is configured.
	ErrUploadsDisabled = errors.New("file uploads are not configured")
)

// FileUploader abstracts uploading binary data and returning a URL.
type FileUploader interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

// LessonService manages the ordered lessons of a course.
type LessonService interface {
	Create(ctx context.Context, actor Actor, courseID uint, payload dto.LessonCreateRequest, file *multipart.FileHeader) (dto.LessonResponse, error)
	ListByCourse(ctx context.Context, actor Actor, courseID uint) ([]dto.LessonResponse, error)
	Get(ctx context.Context, actor Actor, id uint) (dto.LessonResponse, error)
	Update(ctx context.Context, actor Actor, id uint, payload dto.LessonUpdateRequest) (dto.LessonResponse, error)
	Delete(ctx context.Context, actor Actor, id uint) error
}

type lessonService struct {
	lessons   repository.LessonRepository
	courses   repository.CourseRepository
	uploader  FileUploader
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	events    EventPublisher
	logger    zerolog.Logger
	tracer    trace.Tracer
	maxSize   int64
}

// NewLessonService constructs the lesson service. A nil uploader disables multipart video uploads.
func NewLessonService(lessons repository.LessonRepository, courses repository.CourseRepository, uploader FileUploader, maxSizeMB int, validate *validator.Validate, events EventPublisher, logger zerolog.Logger) LessonService {
	if maxSizeMB <= 0 {
		maxSizeMB = 200
	}
	return &lessonService{
		lessons:   lessons,
		courses:   courses,
		uploader:  uploader,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		events:    events,
		logger:    logger.With().Str("component", "lesson_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/skillopus-api/internal/service/lesson"),
		maxSize:   int64(maxSizeMB) * 1024 * 1024,
	}
}

func (s *lessonService) Create(ctx context.Context, actor Actor, courseID uint, payload dto.LessonCreateRequest, file *multipart.FileHeader) (dto.LessonResponse, error) {
	payload.Title = strings.TrimSpace(s.sanitizer.Sanitize(payload.Title))
	payload.ContentURL = strings.TrimSpace(payload.ContentURL)
	if err := s.validator.Struct(payload); err != nil {
		return dto.LessonResponse{}, err
	}

	course, err := loadManagedCourse(ctx, s.courses, actor, courseID)
	if err != nil {
		return dto.LessonResponse{}, err
	}

	contentURL := payload.ContentURL
	if file != nil {
		contentURL, err = s.uploadVideo(ctx, course.ID, file)
		if err != nil {
			return dto.LessonResponse{}, err
		}
	}
	if contentURL == "" {
		return dto.LessonResponse{}, ErrLessonContentRequired
	}

	order := 0
	if payload.LessonOrder != nil {
		order = *payload.LessonOrder
	} else {
		order, err = s.lessons.NextOrder(ctx, course.ID)
		if err != nil {
			return dto.LessonResponse{}, err
		}
	}

	lesson := models.Lesson{
		CourseID:    course.ID,
		Title:       payload.Title,
		ContentURL:  contentURL,
		LessonOrder: order,
	}
	if err := s.lessons.Create(ctx, &lesson); err != nil {
		return dto.LessonResponse{}, err
	}

	s.logger.Info().Uint("lesson_id", lesson.ID).Uint("course_id", course.ID).Uint("actor_id", actor.ID).Msg("lesson created")
	emit(ctx, s.events, EventLessonCreated, actor, course.OrganizationID, lesson.ID, map[string]interface{}{
		"course_id": course.ID,
		"title":     lesson.Title,
	})

	return dto.NewLessonResponse(lesson), nil
}

func (s *lessonService) ListByCourse(ctx context.Context, actor Actor, courseID uint) ([]dto.LessonResponse, error) {
	course, err := loadVisibleCourse(ctx, s.courses, actor, courseID)
	if err != nil {
		return nil, err
	}

	lessons, err := s.lessons.ListByCourse(ctx, course.ID)
	if err != nil {
		return nil, err
	}
	return dto.NewLessonResponseSlice(lessons), nil
}

func (s *lessonService) Get(ctx context.Context, actor Actor, id uint) (dto.LessonResponse, error) {
	lesson, err := s.lessons.GetByID(ctx, id)
	if err != nil {
		return dto.LessonResponse{}, notFound(err, ErrLessonNotFound)
	}
	if _, err := loadVisibleCourse(ctx, s.courses, actor, lesson.CourseID); err != nil {
		if errors.Is(err, ErrCourseNotFound) {
			return dto.LessonResponse{}, ErrLessonNotFound
		}
		return dto.LessonResponse{}, err
	}
	return dto.NewLessonResponse(lesson), nil
}

func (s *lessonService) Update(ctx context.Context, actor Actor, id uint, payload dto.LessonUpdateRequest) (dto.LessonResponse, error) {
	if payload.Title != nil {
		title := strings.TrimSpace(s.sanitizer.Sanitize(*payload.Title))
		payload.Title = &title
	}
	if err := s.validator.Struct(payload); err != nil {
		return dto.LessonResponse{}, err
	}

	lesson, err := s.loadManaged(ctx, actor, id)
	if err != nil {
		return dto.LessonResponse{}, err
	}

	if payload.Title != nil {
		lesson.Title = *payload.Title
	}
	if payload.ContentURL != nil && strings.TrimSpace(*payload.ContentURL) != "" {
		lesson.ContentURL = strings.TrimSpace(*payload.ContentURL)
	}
	if payload.LessonOrder != nil {
		lesson.LessonOrder = *payload.LessonOrder
	}

	if err := s.lessons.Update(ctx, &lesson); err != nil {
		return dto.LessonResponse{}, err
	}

	s.logger.Info().Uint("lesson_id", lesson.ID).Uint("actor_id", actor.ID).Msg("lesson updated")
	return dto.NewLessonResponse(lesson), nil
}

func (s *lessonService) Delete(ctx context.Context, actor Actor, id uint) error {
	lesson, err := s.loadManaged(ctx, actor, id)
	if err != nil {
		return err
	}

	if err := s.lessons.Delete(ctx, lesson); err != nil {
		return notFound(err, ErrLessonNotFound)
	}

	s.logger.Info().Uint("lesson_id", lesson.ID).Uint("course_id", lesson.CourseID).Uint("actor_id", actor.ID).Msg("lesson deleted")
	return nil
}

func (s *lessonService) loadManaged(ctx context.Context, actor Actor, id uint) (models.Lesson, error) {
	lesson, err := s.lessons.GetByID(ctx, id)
	if err != nil {
		return models.Lesson{}, notFound(err, ErrLessonNotFound)
	}
	if _, err := loadManagedCourse(ctx, s.courses, actor, lesson.CourseID); err != nil {
		if errors.Is(err, ErrCourseNotFound) {
			return models.Lesson{}, ErrLessonNotFound
		}
		return models.Lesson{}, err
	}
	return lesson, nil
}

// uploadVideo sniffs the leading bytes of the file and streams it to the uploader.
func (s *lessonService) uploadVideo(ctx context.Context, courseID uint, file *multipart.FileHeader) (string, error) {
	ctx, span := s.tracer.Start(ctx, "lessons.upload_video")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("upload.course_id", int64(courseID)),
		attribute.String("upload.original_name", strings.TrimSpace(file.Filename)),
		attribute.Int64("upload.request_size", file.Size),
		attribute.Int64("upload.max_bytes", s.maxSize),
	)

	if s.uploader == nil {
		span.SetStatus(codes.Error, "uploads disabled")
		return "", ErrUploadsDisabled
	}

	if file.Size > s.maxSize {
		observability.LessonUploadsTotal().WithLabelValues("too_large").Inc()
		span.RecordError(ErrUploadTooLarge)
		span.SetStatus(codes.Error, "payload too large")
		return "", ErrUploadTooLarge
	}

	handle, err := file.Open()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "open failed")
		return "", err
	}
	defer handle.Close()

	detected, err := mimetype.DetectReader(handle)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "sniff failed")
		return "", err
	}
	span.SetAttributes(attribute.String("upload.detected_mime", detected.String()))
	if !strings.HasPrefix(detected.String(), "video/") {
		observability.LessonUploadsTotal().WithLabelValues("rejected_type").Inc()
		span.RecordError(ErrUploadTypeNotAllowed)
		span.SetStatus(codes.Error, "type not allowed")
		return "", ErrUploadTypeNotAllowed
	}

	if _, err := handle.Seek(0, io.SeekStart); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "rewind failed")
		return "", err
	}

	url, err := s.uploader.Upload(ctx, file.Filename, io.LimitReader(handle, s.maxSize))
	if err != nil {
		observability.LessonUploadsTotal().WithLabelValues("storage_error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "storage failed")
		return "", err
	}

	observability.LessonUploadsTotal().WithLabelValues("stored").Inc()
	span.SetStatus(codes.Ok, "stored")
	return url, nil
}
