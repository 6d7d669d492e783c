package information_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/citylink/citylink/internal/information"
	"github.com/citylink/citylink/internal/platform/httpx"
	"github.com/citylink/citylink/internal/policy"
	"github.com/citylink/citylink/internal/tags"
)

type attachKey struct {
	informationID int64
	tagID         int64
}

type stubRepo struct {
	nextID      int64
	byID        map[int64]*information.Information
	tags        map[int64]tags.Tag
	attachments map[attachKey]bool
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		nextID:      1,
		byID:        map[int64]*information.Information{},
		tags:        map[int64]tags.Tag{1: {ID: 1, Name: "roads"}, 2: {ID: 2, Name: "parks"}},
		attachments: map[attachKey]bool{},
	}
}

func (s *stubRepo) FindByID(_ context.Context, id int64) (*information.Information, error) {
	if info, ok := s.byID[id]; ok {
		cp := *info
		cp.Tags = nil
		return &cp, nil
	}
	return nil, httpx.ErrNotFound
}

func (s *stubRepo) List(_ context.Context, limit, offset int) ([]information.Information, error) {
	out := make([]information.Information, 0, len(s.byID))
	for _, info := range s.byID {
		cp := *info
		cp.Tags = nil
		out = append(out, cp)
	}
	return out, nil
}

func (s *stubRepo) ListTags(_ context.Context, informationID int64) ([]tags.Tag, error) {
	var out []tags.Tag
	for key := range s.attachments {
		if key.informationID == informationID {
			out = append(out, s.tags[key.tagID])
		}
	}
	return out, nil
}

func (s *stubRepo) Create(_ context.Context, in information.NewInformation) (int64, error) {
	info := &information.Information{
		ID:              s.nextID,
		Title:           in.Title,
		Content:         in.Content,
		Summary:         in.Summary,
		PublicationDate: time.Now(),
	}
	s.nextID++
	s.byID[info.ID] = info
	return info.ID, nil
}

func (s *stubRepo) Update(_ context.Context, id int64, in information.NewInformation) error {
	info, ok := s.byID[id]
	if !ok {
		return httpx.ErrNotFound
	}
	info.Title = in.Title
	info.Content = in.Content
	info.Summary = in.Summary
	return nil
}

func (s *stubRepo) Delete(_ context.Context, id int64) error {
	if _, ok := s.byID[id]; !ok {
		return httpx.ErrNotFound
	}
	delete(s.byID, id)
	return nil
}

func (s *stubRepo) TagExists(_ context.Context, tagID int64) (bool, error) {
	_, ok := s.tags[tagID]
	return ok, nil
}

func (s *stubRepo) AttachTag(_ context.Context, informationID, tagID int64) error {
	key := attachKey{informationID, tagID}
	if s.attachments[key] {
		return httpx.ErrDuplicate
	}
	s.attachments[key] = true
	return nil
}

func (s *stubRepo) DetachTag(_ context.Context, informationID, tagID int64) error {
	key := attachKey{informationID, tagID}
	if !s.attachments[key] {
		return httpx.ErrNotFound
	}
	delete(s.attachments, key)
	return nil
}

var (
	admin    = policy.Identity{ID: 1, Role: policy.RoleAdmin}
	resident = policy.Identity{ID: 20, Role: policy.RoleStandard}
)

func article() information.NewInformation {
	summary := "short"
	return information.NewInformation{Title: "Recycling schedule", Content: "Full text", Summary: &summary}
}

func TestCreateAdminOnly(t *testing.T) {
	svc := information.NewService(newStubRepo(), nil)

	_, err := svc.Create(context.Background(), resident, article(), nil)
	require.ErrorIs(t, err, httpx.ErrForbidden)

	info, err := svc.Create(context.Background(), admin, article(), []int64{1, 2})
	require.NoError(t, err)
	require.Len(t, info.Tags, 2)
}

func TestCreateUnknownTag(t *testing.T) {
	svc := information.NewService(newStubRepo(), nil)
	_, err := svc.Create(context.Background(), admin, article(), []int64{999})
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestUpdateAndDeleteAdminOnly(t *testing.T) {
	svc := information.NewService(newStubRepo(), nil)
	info, err := svc.Create(context.Background(), admin, article(), nil)
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), resident, info.ID, article())
	require.ErrorIs(t, err, httpx.ErrForbidden)

	_, err = svc.Update(context.Background(), admin, 9999, article())
	require.ErrorIs(t, err, httpx.ErrNotFound)

	updated := article()
	updated.Title = "Updated schedule"
	got, err := svc.Update(context.Background(), admin, info.ID, updated)
	require.NoError(t, err)
	require.Equal(t, "Updated schedule", got.Title)

	require.ErrorIs(t, svc.Delete(context.Background(), resident, info.ID), httpx.ErrForbidden)
	require.NoError(t, svc.Delete(context.Background(), admin, info.ID))
}

func TestAttachDetachTag(t *testing.T) {
	svc := information.NewService(newStubRepo(), nil)
	info, err := svc.Create(context.Background(), admin, article(), nil)
	require.NoError(t, err)

	_, err = svc.AttachTag(context.Background(), resident, info.ID, 1)
	require.ErrorIs(t, err, httpx.ErrForbidden)

	got, err := svc.AttachTag(context.Background(), admin, info.ID, 1)
	require.NoError(t, err)
	require.Len(t, got.Tags, 1)

	_, err = svc.AttachTag(context.Background(), admin, info.ID, 1)
	require.ErrorIs(t, err, httpx.ErrDuplicate)

	_, err = svc.AttachTag(context.Background(), admin, info.ID, 999)
	require.ErrorIs(t, err, httpx.ErrNotFound)

	got, err = svc.DetachTag(context.Background(), admin, info.ID, 1)
	require.NoError(t, err)
	require.Empty(t, got.Tags)

	// Detaching an unattached tag is a request-shape problem, not a 404.
	_, err = svc.DetachTag(context.Background(), admin, info.ID, 2)
	require.ErrorIs(t, err, httpx.ErrValidation)
}
