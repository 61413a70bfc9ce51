package handler_test

import (
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/skillopus-api/internal/dto"
	"github.com/noah-isme/skillopus-api/internal/models"
)

func TestUserHandlerRequiresAdmin(t *testing.T) {
	a := newTestApp(t)

	resp := a.call(t, http.MethodGet, apiPath("/users"), a.acme.instructor, nil)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = a.call(t, http.MethodGet, apiPath("/users?role=student&page_size=10"), a.acme.admin, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var users []dto.UserResponse
	body := decodeData(t, resp, &users)
	require.Len(t, users, 1)
	var meta dto.PaginationMeta
	require.NoError(t, jsonUnmarshal(body.Meta, &meta))
	require.Equal(t, int64(1), meta.TotalItems)

	resp = a.call(t, http.MethodGet, apiPath("/users/%d", a.globex.student.ID), a.acme.admin, nil)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp = a.call(t, http.MethodDelete, apiPath("/users/%d", a.acme.admin.ID), a.acme.admin, nil)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	contact := "+62 812"
	resp = a.call(t, http.MethodPatch, apiPath("/users/%d", a.acme.student.ID), a.acme.admin, dto.UserUpdateRequest{Contact: &contact})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = a.call(t, http.MethodDelete, apiPath("/users/%d", a.acme.student.ID), a.acme.admin, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestOrganizationHandlerLifecycle(t *testing.T) {
	a := newTestApp(t)

	resp := a.call(t, http.MethodPost, apiPath("/organizations"), models.User{}, dto.OrganizationCreateRequest{Name: "acme Academy"})
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp = a.call(t, http.MethodPost, apiPath("/organizations"), models.User{}, dto.OrganizationCreateRequest{Name: "Initech", SecretCode: "tps"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp = a.call(t, http.MethodGet, apiPath("/organizations"), models.User{}, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var orgs []dto.OrganizationOption
	decodeData(t, resp, &orgs)
	require.Len(t, orgs, 3)

	resp = a.call(t, http.MethodGet, apiPath("/organizations/%d", a.globex.org.ID), a.acme.admin, nil)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp = a.call(t, http.MethodDelete, apiPath("/organizations/%d", a.acme.org.ID), a.acme.student, nil)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = a.call(t, http.MethodDelete, apiPath("/organizations/%d", a.acme.org.ID), a.acme.admin, nil)
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestInstructorHandlerAssignAndRemove(t *testing.T) {
	a := newTestApp(t)

	resp := a.call(t, http.MethodGet, apiPath("/instructors"), a.acme.student, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var instructors []dto.InstructorResponse
	decodeData(t, resp, &instructors)
	require.Len(t, instructors, 1)
	require.Equal(t, int64(1), instructors[0].CourseCount)

	resp = a.call(t, http.MethodPost, apiPath("/instructors"), a.acme.instructor, dto.InstructorAssignRequest{InstructorID: a.acme.student.ID})
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = a.call(t, http.MethodPost, apiPath("/instructors"), a.acme.admin, dto.InstructorAssignRequest{InstructorID: a.acme.student.ID, Department: "Math"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp = a.call(t, http.MethodPost, apiPath("/instructors"), a.acme.admin, dto.InstructorAssignRequest{InstructorID: a.acme.student.ID})
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp = a.call(t, http.MethodDelete, apiPath("/instructors/%d", a.acme.instructor.ID), a.acme.admin, nil)
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp = a.call(t, http.MethodDelete, apiPath("/instructors/%d", a.acme.student.ID), a.acme.admin, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}
