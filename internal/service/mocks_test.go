package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"churchsite/internal/model"
	"churchsite/internal/repository"
)

var errProviderDown = errors.New("provider down")

// MockMemberRepository is a mock implementation of MemberRepository.
type MockMemberRepository struct {
	mock.Mock
}

var _ repository.MemberRepository = (*MockMemberRepository)(nil)

func (m *MockMemberRepository) Create(ctx context.Context, member *model.Member) error {
	args := m.Called(ctx, member)
	return args.Error(0)
}

func (m *MockMemberRepository) Update(ctx context.Context, member *model.Member) error {
	args := m.Called(ctx, member)
	return args.Error(0)
}

func (m *MockMemberRepository) FindByEmail(ctx context.Context, email string) (*model.Member, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Member), args.Error(1)
}

func (m *MockMemberRepository) FindActiveByEmail(ctx context.Context, email string) (*model.Member, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Member), args.Error(1)
}

func (m *MockMemberRepository) ListActive(ctx context.Context) ([]model.Member, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Member), args.Error(1)
}

// MockPrayerRequestRepository is a mock implementation of PrayerRequestRepository.
type MockPrayerRequestRepository struct {
	mock.Mock
}

var _ repository.PrayerRequestRepository = (*MockPrayerRequestRepository)(nil)

func (m *MockPrayerRequestRepository) Create(ctx context.Context, request *model.PrayerRequest) error {
	args := m.Called(ctx, request)
	return args.Error(0)
}

func (m *MockPrayerRequestRepository) FindActiveByID(ctx context.Context, id uuid.UUID) (*model.PrayerRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PrayerRequest), args.Error(1)
}

func (m *MockPrayerRequestRepository) ListActive(ctx context.Context) ([]model.PrayerRequest, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.PrayerRequest), args.Error(1)
}

func (m *MockPrayerRequestRepository) Deactivate(ctx context.Context, id, memberID uuid.UUID) (bool, error) {
	args := m.Called(ctx, id, memberID)
	return args.Bool(0), args.Error(1)
}
