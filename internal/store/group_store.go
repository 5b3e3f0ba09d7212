package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/samuelsuu/subuzz/internal/models"
)

var ErrGroupNotFound = errors.New("group not found")

// GroupStore abstracts group lookups.
type GroupStore interface {
	IsMember(ctx context.Context, groupID, userID string) (bool, error)
	ListMemberIDs(ctx context.Context, groupID, excludeUserID string) ([]string, error)
	GetGroup(ctx context.Context, groupID string) (models.Group, error)
}

// GroupRepo is a sqlx implementation of GroupStore.
type GroupRepo struct {
	db *sqlx.DB
}

// NewGroupRepo constructs a GroupRepo.
func NewGroupRepo(db *sqlx.DB) *GroupRepo {
	return &GroupRepo{db: db}
}

// IsMember checks current membership. Called on every join attempt since
// membership can change between sessions.
func (r *GroupRepo) IsMember(ctx context.Context, groupID, userID string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM group_members WHERE group_id=$1 AND user_id=$2)`, groupID, userID)
	return exists, err
}

// ListMemberIDs returns the group's member ids excluding the given user.
func (r *GroupRepo) ListMemberIDs(ctx context.Context, groupID, excludeUserID string) ([]string, error) {
	var ids []string
	err := r.db.SelectContext(ctx, &ids,
		`SELECT user_id FROM group_members WHERE group_id=$1 AND user_id<>$2`, groupID, excludeUserID)
	return ids, err
}

// GetGroup fetches a single group.
func (r *GroupRepo) GetGroup(ctx context.Context, groupID string) (models.Group, error) {
	var group models.Group
	err := r.db.GetContext(ctx, &group,
		`SELECT id, name, description, avatar_url, created_by, created_at FROM groups WHERE id=$1`, groupID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Group{}, ErrGroupNotFound
	}
	return group, err
}
