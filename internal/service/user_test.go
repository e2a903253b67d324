package service

import (
	"context"
	"errors"
	"testing"

	"noslimites/api/internal/model"
)

func TestUserService_UpdateProfile_RejectsBlankDisplayName(t *testing.T) {
	var updated bool
	users := &mockUserRepository{
		updateProfileFn: func(ctx context.Context, id int64, req *model.UpdateProfileRequest) (*model.User, error) {
			updated = true
			return &model.User{ID: id}, nil
		},
	}
	svc := NewUserService(users, nil)

	for _, blank := range []string{"", "   ", "\t\n"} {
		name := blank
		if _, err := svc.UpdateProfile(context.Background(), 1, &name, nil, nil); !errors.Is(err, model.ErrEmptyDisplayName) {
			t.Errorf("UpdateProfile(%q) error = %v, want ErrEmptyDisplayName", blank, err)
		}
	}
	if updated {
		t.Error("no update may reach the repository for a blank name")
	}
}

func TestUserService_UpdateProfile_TrimsDisplayName(t *testing.T) {
	var savedName *string
	users := &mockUserRepository{
		updateProfileFn: func(ctx context.Context, id int64, req *model.UpdateProfileRequest) (*model.User, error) {
			savedName = req.DisplayName
			return &model.User{ID: id, DisplayName: req.DisplayName}, nil
		},
	}
	svc := NewUserService(users, nil)

	name := "  Camille  "
	if _, err := svc.UpdateProfile(context.Background(), 1, &name, nil, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if savedName == nil || *savedName != "Camille" {
		t.Errorf("saved name = %v, want trimmed", savedName)
	}
}

func TestUserService_UpdateProfile_NilNameLeavesUnchanged(t *testing.T) {
	var gotReq *model.UpdateProfileRequest
	users := &mockUserRepository{
		updateProfileFn: func(ctx context.Context, id int64, req *model.UpdateProfileRequest) (*model.User, error) {
			gotReq = req
			return &model.User{ID: id}, nil
		},
	}
	svc := NewUserService(users, nil)

	if _, err := svc.UpdateProfile(context.Background(), 1, nil, nil, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotReq == nil || gotReq.DisplayName != nil {
		t.Error("nil display name must pass through as nil")
	}
}

func TestUserService_DeleteAccount(t *testing.T) {
	var deleted int64
	users := &mockUserRepository{
		getByIDFn: func(ctx context.Context, id int64) (*model.User, error) {
			return &model.User{ID: id}, nil
		},
		deleteFn: func(ctx context.Context, id int64) error {
			deleted = id
			return nil
		},
	}
	svc := NewUserService(users, nil)

	if err := svc.DeleteAccount(context.Background(), 9); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted != 9 {
		t.Errorf("deleted = %d, want 9", deleted)
	}
}
