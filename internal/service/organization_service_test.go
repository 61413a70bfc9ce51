package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/skillopus-api/internal/dto"
	"github.com/noah-isme/skillopus-api/internal/models"
	"github.com/noah-isme/skillopus-api/internal/repository"
)

func TestOrganizationServiceCreateSanitizesAndRejectsDuplicates(t *testing.T) {
	db := setupTestDB(t)
	svc := NewOrganizationService(repository.NewOrganizationRepository(db), newValidator(), testLogger())

	created, err := svc.Create(context.Background(), dto.OrganizationCreateRequest{
		Name:        "  <b>Initech</b> ",
		Description: "<script>alert(1)</script>Printers",
		SecretCode:  "tps",
	})
	require.NoError(t, err)
	require.Equal(t, "Initech", created.Name)
	require.Equal(t, "Printers", created.Description)
	require.True(t, created.HasSecret)

	_, err = svc.Create(context.Background(), dto.OrganizationCreateRequest{Name: "initech"})
	require.ErrorIs(t, err, ErrOrganizationExists)

	options, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, options, 1)
	require.Equal(t, "Initech", options[0].Name)
}

func TestOrganizationServiceScopesToOwnTenant(t *testing.T) {
	db := setupTestDB(t)
	acme := seedTenant(t, db, "acme")
	globex := seedTenant(t, db, "globex")
	svc := NewOrganizationService(repository.NewOrganizationRepository(db), newValidator(), testLogger())

	_, err := svc.Get(context.Background(), acme.actor(acme.admin), globex.org.ID)
	require.ErrorIs(t, err, ErrOrganizationNotFound)

	got, err := svc.Get(context.Background(), acme.actor(acme.student), acme.org.ID)
	require.NoError(t, err)
	require.Equal(t, acme.org.ID, got.ID)

	description := "Rockets"
	_, err = svc.Update(context.Background(), acme.actor(acme.instructor), acme.org.ID, dto.OrganizationUpdateRequest{Description: &description})
	require.ErrorIs(t, err, ErrForbidden)

	updated, err := svc.Update(context.Background(), acme.actor(acme.admin), acme.org.ID, dto.OrganizationUpdateRequest{Description: &description})
	require.NoError(t, err)
	require.Equal(t, "Rockets", updated.Description)

	name := "globex Academy"
	_, err = svc.Update(context.Background(), acme.actor(acme.admin), acme.org.ID, dto.OrganizationUpdateRequest{Name: &name})
	require.ErrorIs(t, err, ErrOrganizationExists)
}

func TestOrganizationServiceDeleteRequiresEmptyTenant(t *testing.T) {
	db := setupTestDB(t)
	acme := seedTenant(t, db, "acme")
	svc := NewOrganizationService(repository.NewOrganizationRepository(db), newValidator(), testLogger())

	err := svc.Delete(context.Background(), acme.actor(acme.admin), acme.org.ID)
	require.ErrorIs(t, err, ErrOrganizationInUse)

	require.NoError(t, repository.NewCourseRepository(db).Delete(context.Background(), acme.course.ID))
	require.NoError(t, db.Where("id IN ?", []uint{acme.instructor.ID, acme.student.ID}).Delete(&models.User{}).Error)

	require.NoError(t, svc.Delete(context.Background(), acme.actor(acme.admin), acme.org.ID))

	var remaining int64
	require.NoError(t, db.Model(&models.User{}).Where("organization_id = ?", acme.org.ID).Count(&remaining).Error)
	require.Zero(t, remaining)
}
