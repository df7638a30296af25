package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockSuggestionManager struct {
	mock.Mock
}

func (m *MockSuggestionManager) SuggestQuestions(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}
