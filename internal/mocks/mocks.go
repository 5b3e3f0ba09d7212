package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/samuelsuu/subuzz/internal/identity"
	"github.com/samuelsuu/subuzz/internal/models"
	"github.com/samuelsuu/subuzz/internal/push"
	"github.com/samuelsuu/subuzz/internal/store"
)

type MessageStoreMock struct {
	mock.Mock
}

func (m *MessageStoreMock) InsertMessage(ctx context.Context, msg models.NewMessage) (models.Message, error) {
	args := m.Called(ctx, msg)
	var stored models.Message
	if val := args.Get(0); val != nil {
		stored = val.(models.Message)
	}
	return stored, args.Error(1)
}

type GroupStoreMock struct {
	mock.Mock
}

func (m *GroupStoreMock) IsMember(ctx context.Context, groupID, userID string) (bool, error) {
	args := m.Called(ctx, groupID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *GroupStoreMock) ListMemberIDs(ctx context.Context, groupID, excludeUserID string) ([]string, error) {
	args := m.Called(ctx, groupID, excludeUserID)
	var ids []string
	if val := args.Get(0); val != nil {
		ids = val.([]string)
	}
	return ids, args.Error(1)
}

func (m *GroupStoreMock) GetGroup(ctx context.Context, groupID string) (models.Group, error) {
	args := m.Called(ctx, groupID)
	var group models.Group
	if val := args.Get(0); val != nil {
		group = val.(models.Group)
	}
	return group, args.Error(1)
}

type PushStoreMock struct {
	mock.Mock
}

func (m *PushStoreMock) ListSubscriptions(ctx context.Context, userID string) ([]models.PushSubscription, error) {
	args := m.Called(ctx, userID)
	var subs []models.PushSubscription
	if val := args.Get(0); val != nil {
		subs = val.([]models.PushSubscription)
	}
	return subs, args.Error(1)
}

func (m *PushStoreMock) UpsertSubscription(ctx context.Context, sub models.PushSubscription) error {
	args := m.Called(ctx, sub)
	return args.Error(0)
}

func (m *PushStoreMock) RemoveSubscription(ctx context.Context, endpoint string) error {
	args := m.Called(ctx, endpoint)
	return args.Error(0)
}

type VerifierMock struct {
	mock.Mock
}

func (m *VerifierMock) VerifyToken(ctx context.Context, token string) (identity.User, error) {
	args := m.Called(ctx, token)
	var user identity.User
	if val := args.Get(0); val != nil {
		user = val.(identity.User)
	}
	return user, args.Error(1)
}

type PushSenderMock struct {
	mock.Mock
}

func (m *PushSenderMock) Send(ctx context.Context, sub models.PushSubscription, payload models.PushPayload) error {
	args := m.Called(ctx, sub, payload)
	return args.Error(0)
}

var _ store.MessageStore = (*MessageStoreMock)(nil)
var _ store.GroupStore = (*GroupStoreMock)(nil)
var _ store.PushStore = (*PushStoreMock)(nil)
var _ identity.Verifier = (*VerifierMock)(nil)
var _ push.Sender = (*PushSenderMock)(nil)
