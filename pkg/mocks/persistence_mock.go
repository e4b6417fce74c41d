// Package mocks provides testify mocks of the persistence and event bus interfaces.
package mocks

import (
	"context"
	"time"

	"github.com/dukex/leadflow/pkg/models"
	"github.com/dukex/leadflow/pkg/persistence"
	"github.com/stretchr/testify/mock"
)

// MockPersistence is a mock implementation of persistence.Persistence interface.
type MockPersistence struct {
	mock.Mock

	Workflows   *MockWorkflowRepository
	Enrollments *MockEnrollmentRepository
	Schedules   *MockScheduleRepository
}

func NewMockPersistence() *MockPersistence {
	return &MockPersistence{
		Workflows:   &MockWorkflowRepository{},
		Enrollments: &MockEnrollmentRepository{},
		Schedules:   &MockScheduleRepository{},
	}
}

func (m *MockPersistence) WorkflowRepository() persistence.WorkflowRepository {
	return m.Workflows
}

func (m *MockPersistence) EnrollmentRepository() persistence.EnrollmentRepository {
	return m.Enrollments
}

func (m *MockPersistence) ScheduleRepository() persistence.ScheduleRepository {
	return m.Schedules
}

func (m *MockPersistence) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *MockPersistence) Close(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

// MockWorkflowRepository is a mock implementation of persistence.WorkflowRepository interface.
type MockWorkflowRepository struct {
	mock.Mock
}

func (m *MockWorkflowRepository) List(ctx context.Context, opts persistence.ListWorkflowsOptions) (*persistence.WorkflowListResult, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*persistence.WorkflowListResult), args.Error(1)
}

func (m *MockWorkflowRepository) GetByID(ctx context.Context, id string) (*models.Workflow, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Workflow), args.Error(1)
}

func (m *MockWorkflowRepository) Save(ctx context.Context, workflow *models.Workflow) error {
	args := m.Called(ctx, workflow)

	return args.Error(0)
}

func (m *MockWorkflowRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)

	return args.Error(0)
}

// MockEnrollmentRepository is a mock implementation of persistence.EnrollmentRepository interface.
type MockEnrollmentRepository struct {
	mock.Mock
}

func (m *MockEnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	args := m.Called(ctx, enrollment)

	return args.Error(0)
}

func (m *MockEnrollmentRepository) GetByID(ctx context.Context, id string) (*models.Enrollment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Enrollment), args.Error(1)
}

func (m *MockEnrollmentRepository) ListByWorkflow(ctx context.Context, workflowID string) ([]*models.Enrollment, error) {
	args := m.Called(ctx, workflowID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.Enrollment), args.Error(1)
}

func (m *MockEnrollmentRepository) AppendSteps(
	ctx context.Context,
	id string,
	steps []*models.WorkflowExecutionStep,
	status models.EnrollmentStatus,
	completedAt *time.Time,
) (*models.Enrollment, error) {
	args := m.Called(ctx, id, steps, status, completedAt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Enrollment), args.Error(1)
}

func (m *MockEnrollmentRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)

	return args.Error(0)
}

// MockScheduleRepository is a mock implementation of persistence.ScheduleRepository interface.
type MockScheduleRepository struct {
	mock.Mock
}

func (m *MockScheduleRepository) Upsert(ctx context.Context, schedule *models.ResumeSchedule) error {
	args := m.Called(ctx, schedule)

	return args.Error(0)
}

func (m *MockScheduleRepository) Get(ctx context.Context, enrollmentID string) (*models.ResumeSchedule, error) {
	args := m.Called(ctx, enrollmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.ResumeSchedule), args.Error(1)
}

func (m *MockScheduleRepository) Delete(ctx context.Context, enrollmentID string) error {
	args := m.Called(ctx, enrollmentID)

	return args.Error(0)
}

func (m *MockScheduleRepository) List(ctx context.Context) ([]*models.ResumeSchedule, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.ResumeSchedule), args.Error(1)
}

func (m *MockScheduleRepository) Due(ctx context.Context, now time.Time) ([]*models.ResumeSchedule, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.ResumeSchedule), args.Error(1)
}
