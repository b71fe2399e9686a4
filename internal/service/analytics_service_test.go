package service

import (
	"testing"
	"time"

	"staff_portal_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fpt(v float64) *float64 { return &v }
func ipt(v int) *int         { return &v }
func bpt(v bool) *bool       { return &v }

func TestComputeSnapshotEmpty(t *testing.T) {
	snap := computeSnapshot(1, nil, time.Now())

	assert.Equal(t, uint(1), snap.SurveyID)
	assert.Zero(t, snap.TotalSubmissions)
	assert.Nil(t, snap.AverageScore)
	assert.Nil(t, snap.AverageTimeSpent)
	assert.Nil(t, snap.PassRate)
}

func TestComputeSnapshotAggregates(t *testing.T) {
	subs := []model.Submission{
		{PercentageScore: fpt(100), TimeSpentSeconds: ipt(60), Passed: bpt(true)},
		{PercentageScore: fpt(50), TimeSpentSeconds: ipt(120), Passed: bpt(false)},
		{PercentageScore: fpt(75), Passed: bpt(true)},
	}

	snap := computeSnapshot(9, subs, time.Now())

	assert.Equal(t, int64(3), snap.TotalSubmissions)
	assert.Equal(t, int64(3), snap.CompletedSubmissions)
	require.NotNil(t, snap.AverageScore)
	assert.Equal(t, 75.0, *snap.AverageScore)
	require.NotNil(t, snap.AverageTimeSpent)
	assert.Equal(t, 90.0, *snap.AverageTimeSpent)
	require.NotNil(t, snap.PassRate)
	assert.InDelta(t, 66.666, *snap.PassRate, 0.01)
}

// Surveys without a passing score yield attempts with nil Passed; the rate
// stays undefined rather than reading as 0%.
func TestComputeSnapshotNoPassFail(t *testing.T) {
	subs := []model.Submission{
		{PercentageScore: fpt(40)},
		{PercentageScore: fpt(80)},
	}

	snap := computeSnapshot(2, subs, time.Now())

	require.NotNil(t, snap.AverageScore)
	assert.Equal(t, 60.0, *snap.AverageScore)
	assert.Nil(t, snap.PassRate)
	assert.Nil(t, snap.AverageTimeSpent)
}
