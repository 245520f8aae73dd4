package analyzers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lumera/seopilot/internal/seo"
)

func TestContent_ThinContent(t *testing.T) {
	page := "https://shop.example.com/products/tea"
	snapshot := seo.Snapshot{
		page: {URL: page, StatusCode: 200, WordCount: 50, Title: "Tea"},
	}

	report, err := NewContent(testClock(), zap.NewNop()).Analyze(context.Background(), snapshot)
	require.NoError(t, err)
	require.Len(t, report.Tasks, 1)
	require.Contains(t, report.Tasks[0].Description, "Thin content, 50 words")
	require.Equal(t, seo.ActionModify, report.Tasks[0].Action)
}

func TestContent_ThinCheckSkipsUtilityPages(t *testing.T) {
	page := "https://shop.example.com/cart"
	snapshot := seo.Snapshot{
		page: {URL: page, StatusCode: 200, WordCount: 10},
	}

	report, err := NewContent(testClock(), zap.NewNop()).Analyze(context.Background(), snapshot)
	require.NoError(t, err)
	require.Empty(t, report.Tasks)
}

func TestContent_DuplicateTitles(t *testing.T) {
	a := "https://shop.example.com/products/a"
	b := "https://shop.example.com/products/b"
	c := "https://shop.example.com/products/c"
	snapshot := seo.Snapshot{
		a: {URL: a, StatusCode: 200, WordCount: 500, Title: "Great Tea"},
		b: {URL: b, StatusCode: 200, WordCount: 500, Title: "great tea"},
		c: {URL: c, StatusCode: 200, WordCount: 500, Title: "Unique Tea"},
	}

	report, err := NewContent(testClock(), zap.NewNop()).Analyze(context.Background(), snapshot)
	require.NoError(t, err)
	require.Equal(t, 1.0, report.Metrics["duplicate_titles"])
	require.Len(t, report.Tasks, 1)
	// The alphabetically first page keeps the title; the duplicate gets the task.
	require.Equal(t, b, report.Tasks[0].TargetURL)
	require.Contains(t, report.Tasks[0].Description, a)
}

func TestContent_DuplicateDescriptions(t *testing.T) {
	a := "https://shop.example.com/products/a"
	b := "https://shop.example.com/products/b"
	snapshot := seo.Snapshot{
		a: {URL: a, StatusCode: 200, WordCount: 500, Title: "A", Description: "Same words."},
		b: {URL: b, StatusCode: 200, WordCount: 500, Title: "B", Description: "Same words."},
	}

	report, err := NewContent(testClock(), zap.NewNop()).Analyze(context.Background(), snapshot)
	require.NoError(t, err)
	require.Equal(t, 1.0, report.Metrics["duplicate_descriptions"])
	require.Equal(t, seo.PriorityMedium, report.Tasks[0].Priority)
}

func TestContent_AverageWordCount(t *testing.T) {
	snapshot := seo.Snapshot{
		"https://shop.example.com/a": {URL: "https://shop.example.com/a", StatusCode: 200, WordCount: 400, Title: "A"},
		"https://shop.example.com/b": {URL: "https://shop.example.com/b", StatusCode: 200, WordCount: 600, Title: "B"},
	}

	report, err := NewContent(testClock(), zap.NewNop()).Analyze(context.Background(), snapshot)
	require.NoError(t, err)
	require.Equal(t, 500.0, report.KPIs["avg_word_count"])
}
