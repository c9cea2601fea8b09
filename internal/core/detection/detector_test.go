package detection

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/purify/internal/core/model"
)

type MockClassifier struct {
	mock.Mock
}

func (m *MockClassifier) Classify(ctx context.Context, texts []string) ([]model.ScoreVector, error) {
	args := m.Called(ctx, texts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ScoreVector), args.Error(1)
}

func TestDetectBatch(t *testing.T) {
	ctx := context.Background()

	t.Run("one classifier call, order preserved", func(t *testing.T) {
		texts := []string{"안녕하세요", "이 멍청한 새끼"}
		classifier := new(MockClassifier)
		classifier.On("Classify", ctx, texts).Return([]model.ScoreVector{
			vec("clean", 0.95, "abuse", 0.02, "insult", 0.03),
			vec("clean", 0.05, "abuse", 0.91, "insult", 0.1),
		}, nil).Once()

		detector := NewDetector(classifier, testPolicy)
		got, err := detector.DetectBatch(ctx, texts, 0.5)

		require.NoError(t, err)
		require.Len(t, got, 2)

		assert.Equal(t, "안녕하세요", got[0].Text)
		assert.False(t, got[0].IsAbusive)
		assert.InDelta(t, 0.02, got[0].Confidence, 1e-9)

		assert.Equal(t, "이 멍청한 새끼", got[1].Text)
		assert.True(t, got[1].IsAbusive)
		assert.InDelta(t, 0.91, got[1].Confidence, 1e-9)
		assert.Equal(t, []model.Label{"abuse"}, got[1].Labels)
		assert.Len(t, got[1].Scores, 3)

		classifier.AssertNumberOfCalls(t, "Classify", 1)
	})

	t.Run("empty input skips the classifier", func(t *testing.T) {
		classifier := new(MockClassifier)
		detector := NewDetector(classifier, testPolicy)

		got, err := detector.DetectBatch(ctx, nil, 0.5)

		require.NoError(t, err)
		assert.Empty(t, got)
		classifier.AssertNotCalled(t, "Classify", mock.Anything, mock.Anything)
	})

	t.Run("count mismatch fails the batch", func(t *testing.T) {
		texts := []string{"a", "b"}
		classifier := new(MockClassifier)
		classifier.On("Classify", ctx, texts).Return([]model.ScoreVector{vec("clean", 0.9, "abuse", 0.1)}, nil)

		got, err := NewDetector(classifier, testPolicy).DetectBatch(ctx, texts, 0.5)

		assert.ErrorIs(t, err, ErrContractViolation)
		assert.Nil(t, got)
	})

	t.Run("empty vector is a contract violation", func(t *testing.T) {
		texts := []string{"a"}
		classifier := new(MockClassifier)
		classifier.On("Classify", ctx, texts).Return([]model.ScoreVector{{}}, nil)

		_, err := NewDetector(classifier, testPolicy).DetectBatch(ctx, texts, 0.5)

		assert.ErrorIs(t, err, ErrContractViolation)
		assert.ErrorIs(t, err, ErrEmptyScoreVector)
	})

	t.Run("duplicate label is a contract violation", func(t *testing.T) {
		texts := []string{"a"}
		classifier := new(MockClassifier)
		classifier.On("Classify", ctx, texts).Return([]model.ScoreVector{vec("clean", 0.9, "clean", 0.1)}, nil)

		_, err := NewDetector(classifier, testPolicy).DetectBatch(ctx, texts, 0.5)

		assert.ErrorIs(t, err, ErrContractViolation)
	})

	t.Run("score outside range is a contract violation", func(t *testing.T) {
		texts := []string{"a", "b"}
		classifier := new(MockClassifier)
		classifier.On("Classify", ctx, texts).Return([]model.ScoreVector{
			vec("clean", 0.9, "abuse", 0.1),
			vec("clean", math.NaN(), "abuse", 0.1),
		}, nil)

		_, err := NewDetector(classifier, testPolicy).DetectBatch(ctx, texts, 0.5)

		assert.ErrorIs(t, err, ErrContractViolation)
	})

	t.Run("classifier error propagates", func(t *testing.T) {
		texts := []string{"a"}
		boom := errors.New("connection refused")
		classifier := new(MockClassifier)
		classifier.On("Classify", ctx, texts).Return(nil, boom)

		_, err := NewDetector(classifier, testPolicy).DetectBatch(ctx, texts, 0.5)

		assert.ErrorIs(t, err, boom)
		assert.NotErrorIs(t, err, ErrContractViolation)
	})
}
