package engine

import (
	"testing"

	"carewise-staffing/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func analysisWith(residentID string, cells map[domain.SlotKey]float64) *domain.ResidentAnalysis {
	a := &domain.ResidentAnalysis{ResidentID: residentID}
	for key, hours := range cells {
		a.Matrix[key.Day][key.Slot] += hours
		a.ShiftTotals[key.Slot] += hours
		a.TotalCareHours += hours
	}
	return a
}

func TestWeeklyRecommendations(t *testing.T) {
	e := newTestEngine()

	analyses := map[string]*domain.ResidentAnalysis{
		"r1": analysisWith("r1", map[domain.SlotKey]float64{
			slotKey(domain.Monday, domain.ShiftDay):    2.0,
			slotKey(domain.Tuesday, domain.ShiftSwing): 1.0,
		}),
	}

	recs := e.WeeklyRecommendations(analyses)
	require.Len(t, recs, 2)

	// 护理小时降序：周一 day 在前
	assert.Equal(t, domain.Monday, recs[0].Day)
	assert.Equal(t, domain.ShiftDay, recs[0].ShiftType)
	assert.InDelta(t, 2.0, recs[0].CareHours, 1e-9)
	assert.Equal(t, 1, recs[0].StaffRequired)
	assert.Equal(t, 1, recs[0].ResidentCount)
	assert.Contains(t, recs[0].Reasoning, "Care hours: 2.0h for 1 residents on Monday day shift")

	assert.Equal(t, domain.Tuesday, recs[1].Day)
	assert.Equal(t, domain.ShiftSwing, recs[1].ShiftType)

	for _, rec := range recs {
		assert.GreaterOrEqual(t, rec.ConfidenceScore, 60)
		assert.LessOrEqual(t, rec.ConfidenceScore, 100)
	}
}

func TestWeeklyRecommendationsSkipsEmptyCells(t *testing.T) {
	e := newTestEngine()

	assert.Empty(t, e.WeeklyRecommendations(nil))

	// 只有周三有护理需求，其余单元格不生成推荐
	analyses := map[string]*domain.ResidentAnalysis{
		"r1": analysisWith("r1", map[domain.SlotKey]float64{
			slotKey(domain.Wednesday, domain.ShiftNoc): 4.0,
		}),
	}
	recs := e.WeeklyRecommendations(analyses)
	require.Len(t, recs, 1)
	assert.Equal(t, domain.Wednesday, recs[0].Day)
	assert.Equal(t, domain.ShiftNoc, recs[0].ShiftType)
}

func TestTemplateRecommendations(t *testing.T) {
	e := newTestEngine()

	analyses := map[string]*domain.ResidentAnalysis{
		"r1": analysisWith("r1", map[domain.SlotKey]float64{
			slotKey(domain.Monday, domain.ShiftDay): 17.0,
			slotKey(domain.Monday, domain.ShiftNoc): 3.0,
		}),
	}

	recs := e.TemplateRecommendations(analyses)
	require.Len(t, recs, 2)

	day := recs[0]
	assert.Equal(t, domain.ShiftDay, day.ShiftType)
	assert.Equal(t, "06:00", day.StartTime)
	assert.Equal(t, "14:00", day.EndTime)
	assert.InDelta(t, 8.0, day.DurationHours, 1e-9)
	assert.Equal(t, 2, day.StaffNeeded)
	assert.Contains(t, day.Reasoning, "Need 2 staff for 17.0h care on Monday day shift")

	noc := recs[1]
	assert.Equal(t, domain.ShiftNoc, noc.ShiftType)
	assert.Equal(t, "22:00", noc.StartTime)
	assert.Equal(t, "06:00", noc.EndTime)
}

func TestOptimalShiftRecommendations(t *testing.T) {
	e := newTestEngine()

	snap := &domain.Snapshot{
		Templates: []domain.ShiftTemplate{
			{ID: "tpl-1", Name: "Day Shift", ShiftType: domain.ShiftDay,
				StartTime: "07:00", DurationHours: 8},
		},
	}
	requirements := map[domain.ShiftSlot]*domain.ShiftStaffing{
		domain.ShiftDay: {
			ShiftType: domain.ShiftDay, TotalCareHours: 10,
			BaseStaffRequired: 1, TotalStaffRecommended: 1,
			ResidentCount: 5, HighAcuityCount: 0,
		},
		domain.ShiftSwing: {
			ShiftType: domain.ShiftSwing, TotalCareHours: 20,
			BaseStaffRequired: 3, TotalStaffRecommended: 4, AcuityAdjustment: 1,
			ResidentCount: 5, HighAcuityCount: 4,
		},
		domain.ShiftNoc: {
			ShiftType: domain.ShiftNoc, TotalStaffRecommended: 0,
		},
	}

	recs := e.OptimalShiftRecommendations(snap, requirements)
	require.Len(t, recs, 2)

	// 高 acuity 多的班次排在最前
	assert.Equal(t, domain.ShiftSwing, recs[0].ShiftType)
	assert.Equal(t, 4, recs[0].StaffRequired)
	// swing 无模板 → 标准班次时间
	assert.Equal(t, "14:00", recs[0].RecommendedStartTime)
	assert.Equal(t, "22:00", recs[0].RecommendedEndTime)

	day := recs[1]
	assert.Equal(t, "tpl-1", day.TemplateID)
	assert.Equal(t, "07:00", day.RecommendedStartTime)
	assert.Equal(t, "15:00", day.RecommendedEndTime)

	for _, rec := range recs {
		assert.GreaterOrEqual(t, rec.ConfidenceScore, 0.6)
		assert.LessOrEqual(t, rec.ConfidenceScore, 1.0)
		assert.NotEmpty(t, rec.Reasoning)
	}
}

func TestShiftEndTime(t *testing.T) {
	assert.Equal(t, "15:00", shiftEndTime("07:00", 8))
	assert.Equal(t, "06:00", shiftEndTime("22:00", 8))
	assert.Equal(t, "16:00", shiftEndTime("bogus", 8))
}

func TestFacilityInsights(t *testing.T) {
	e := newTestEngine()

	snap := &domain.Snapshot{
		FacilityID: "fac-1",
		Residents:  []domain.Resident{{ResidentID: "r1"}, {ResidentID: "r2"}, {ResidentID: "r3"}},
		Staff:      []domain.StaffMember{cna("s1", 40), cna("s2", 40)},
		CareRecords: []domain.CareRecord{
			{ResidentID: "r1", Task: "bathing", TotalHours: 1},
			{ResidentID: "r2", Task: "bathing", TotalHours: 1},
			{ResidentID: "r3", Task: "bathing", TotalHours: 1},
		},
	}
	analyses := map[string]*domain.ResidentAnalysis{
		"r1": {ResidentID: "r1", TotalCareHours: 2, AcuityScore: 2, CareIntensity: domain.IntensityLow},
		"r2": {ResidentID: "r2", TotalCareHours: 4, AcuityScore: 4, CareIntensity: domain.IntensityLow},
		"r3": {ResidentID: "r3", TotalCareHours: 9, AcuityScore: 7, CareIntensity: domain.IntensityHigh},
	}

	insights := e.FacilityInsights(snap, analyses)
	assert.Equal(t, "fac-1", insights.FacilityID)
	assert.Equal(t, 3, insights.TotalResidents)
	assert.InDelta(t, 15.0, insights.TotalCareHours, 1e-9)
	assert.InDelta(t, 4.33, insights.AverageAcuityScore, 1e-9)
	assert.Equal(t, 2, insights.IntensityDistribution[domain.IntensityLow])
	assert.Equal(t, 1, insights.IntensityDistribution[domain.IntensityHigh])

	// 只有多于一名住户的分组构成模式
	require.Len(t, insights.CarePatterns, 1)
	pattern := insights.CarePatterns[0]
	assert.Equal(t, "low_care_intensity", pattern.PatternType)
	assert.Equal(t, 2, pattern.ResidentCount)
	assert.InDelta(t, 3.0, pattern.AverageCareHours, 1e-9)
	assert.Contains(t, pattern.Description, "2 residents require low intensity care")

	assert.GreaterOrEqual(t, insights.StaffingEfficiency, 0.0)
	assert.LessOrEqual(t, insights.StaffingEfficiency, 1.0)
}

func TestStaffingEfficiencyNeutralWhenNoData(t *testing.T) {
	e := newTestEngine()

	insights := e.FacilityInsights(&domain.Snapshot{}, nil)
	assert.Equal(t, 0.5, insights.StaffingEfficiency)
}

func TestGeneralRecommendations(t *testing.T) {
	e := newTestEngine()

	// 高 acuity 超过 30% 且班次严重不均衡
	analyses := map[string]*domain.ResidentAnalysis{
		"r1": {CareIntensity: domain.IntensityHigh,
			ShiftTotals: [domain.SlotsPerDay]float64{20, 1, 1}, TotalCareHours: 22},
		"r2": {CareIntensity: domain.IntensityLow,
			ShiftTotals: [domain.SlotsPerDay]float64{2, 1, 1}, TotalCareHours: 4},
	}

	recs := e.generalRecommendations(analyses, 26)
	assert.Contains(t, recs, "Consider increasing staff during high-acuity periods")
	assert.Contains(t, recs, "High care requirements detected - review staffing ratios")
	assert.Contains(t, recs, "Consider redistributing care hours across shifts for better balance")

	assert.Empty(t, e.generalRecommendations(nil, 0))
}
