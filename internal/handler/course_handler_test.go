package handler_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/skillopus-api/internal/dto"
	"github.com/noah-isme/skillopus-api/internal/models"
)

func TestCourseHandlerCatalogIsPublic(t *testing.T) {
	a := newTestApp(t)

	for _, route := range []string{"/courses/catalog", "/courses/organizations"} {
		resp := a.call(t, http.MethodGet, apiPath(route), models.User{}, nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode, route)

		var groups []dto.CatalogGroup
		decodeData(t, resp, &groups)
		require.Len(t, groups, 2)
	}

	resp := a.call(t, http.MethodGet, apiPath("/courses"), models.User{}, nil)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestCourseHandlerCreateAndVisibility(t *testing.T) {
	a := newTestApp(t)
	payload := dto.CourseCreateRequest{Title: "Concurrency in Practice", InstructorID: a.acme.instructor.ID}

	resp := a.call(t, http.MethodPost, apiPath("/courses"), a.acme.instructor, payload)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = a.call(t, http.MethodPost, apiPath("/courses"), a.acme.admin, dto.CourseCreateRequest{Title: "Concurrency", InstructorID: a.acme.student.ID})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = a.call(t, http.MethodPost, apiPath("/courses"), a.acme.admin, payload)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var draft dto.CourseResponse
	decodeData(t, resp, &draft)
	require.Equal(t, models.CourseStatusDraft, draft.Status)

	resp = a.call(t, http.MethodGet, apiPath("/courses/%d", draft.ID), a.acme.student, nil)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = a.call(t, http.MethodGet, apiPath("/courses/%d", draft.ID), a.globex.admin, nil)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp = a.call(t, http.MethodGet, apiPath("/courses"), a.acme.student, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var visible []dto.CourseResponse
	decodeData(t, resp, &visible)
	require.Len(t, visible, 1)

	active := models.CourseStatusActive
	resp = a.call(t, http.MethodPatch, apiPath("/courses/%d", draft.ID), a.acme.instructor, dto.CourseUpdateRequest{Status: &active})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = a.call(t, http.MethodGet, apiPath("/courses/%d", draft.ID), a.acme.student, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = a.call(t, http.MethodDelete, apiPath("/courses/%d", draft.ID), a.acme.admin, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = a.call(t, http.MethodGet, apiPath("/courses/abc"), a.acme.admin, nil)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestLessonHandlerJSONAndMultipart(t *testing.T) {
	a := newTestApp(t)

	resp := a.call(t, http.MethodPost, apiPath("/courses/%d/lessons", a.acme.course.ID), a.acme.instructor, dto.LessonCreateRequest{
		Title:      "Channels",
		ContentURL: "https://cdn.example.com/acme/3.mp4",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var lesson dto.LessonResponse
	decodeData(t, resp, &lesson)
	require.Equal(t, 3, lesson.LessonOrder)

	resp = a.call(t, http.MethodPost, apiPath("/courses/%d/lessons", a.acme.course.ID), a.acme.student, dto.LessonCreateRequest{
		Title:      "Nope",
		ContentURL: "https://cdn.example.com/acme/4.mp4",
	})
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	// uploads are not configured in the test app, so a file is rejected up front
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	require.NoError(t, writer.WriteField("title", "Select"))
	require.NoError(t, writer.WriteField("lesson_order", "9"))
	part, err := writer.CreateFormFile("file", "select.mp4")
	require.NoError(t, err)
	_, err = part.Write([]byte("\x00\x00\x00\x18ftypmp42\x00\x00\x00\x00mp42isom"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, apiPath("/courses/%d/lessons", a.acme.course.ID), body)
	req.Header.Set(fiber.HeaderContentType, writer.FormDataContentType())
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+tokenFor(t, a.acme.admin))
	resp, err = a.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = a.call(t, http.MethodGet, apiPath("/courses/%d/lessons", a.acme.course.ID), a.acme.student, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var lessons []dto.LessonResponse
	decodeData(t, resp, &lessons)
	require.Len(t, lessons, 3)
	require.Equal(t, "Lesson 1", lessons[0].Title)

	resp = a.call(t, http.MethodDelete, apiPath("/lessons/%d", lesson.ID), a.globex.admin, nil)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp = a.call(t, http.MethodDelete, apiPath("/lessons/%d", lesson.ID), a.acme.admin, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}
