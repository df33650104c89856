package engine

import (
	"fmt"
	"math"

	"carewise-staffing/internal/domain"
)

// FacilityInsights 设施级综合洞察：整体 acuity 水平、强度分布、
// 跨住户护理模式、人力效率与通用建议。
func (e *Engine) FacilityInsights(snap *domain.Snapshot, analyses map[string]*domain.ResidentAnalysis) *domain.FacilityInsights {
	insights := &domain.FacilityInsights{
		IntensityDistribution:  make(map[domain.CareIntensity]int),
		CarePatterns:           []domain.CarePattern{},
		GeneralRecommendations: []string{},
	}
	if snap != nil {
		insights.FacilityID = snap.FacilityID
		insights.TotalResidents = len(snap.Residents)
	}

	totalCareHours := 0.0
	acuitySum := 0.0
	for _, analysis := range analyses {
		totalCareHours += analysis.TotalCareHours
		acuitySum += analysis.AcuityScore
		insights.IntensityDistribution[analysis.CareIntensity]++
	}
	insights.TotalCareHours = roundTo(totalCareHours, 2)
	if len(analyses) > 0 {
		insights.AverageAcuityScore = roundTo(acuitySum/float64(len(analyses)), 2)
	}

	insights.CarePatterns = e.identifyCarePatterns(analyses)
	insights.StaffingEfficiency = e.staffingEfficiency(snap)
	insights.GeneralRecommendations = e.generalRecommendations(analyses, totalCareHours)

	return insights
}

// identifyCarePatterns 按护理强度分组的跨住户模式，
// 只报告多于一名住户的分组（单人不构成模式）
func (e *Engine) identifyCarePatterns(analyses map[string]*domain.ResidentAnalysis) []domain.CarePattern {
	patterns := []domain.CarePattern{}

	groups := make(map[domain.CareIntensity][]float64)
	for _, analysis := range analyses {
		groups[analysis.CareIntensity] = append(groups[analysis.CareIntensity], analysis.TotalCareHours)
	}

	for _, intensity := range []domain.CareIntensity{domain.IntensityLow, domain.IntensityMedium, domain.IntensityHigh} {
		group := groups[intensity]
		if len(group) <= 1 {
			continue
		}

		sum := 0.0
		for _, h := range group {
			sum += h
		}
		avgHours := roundTo(sum/float64(len(group)), 2)

		patterns = append(patterns, domain.CarePattern{
			PatternType:      string(intensity) + "_care_intensity",
			ResidentCount:    len(group),
			AverageCareHours: avgHours,
			Description: fmt.Sprintf("%d residents require %s intensity care averaging %.2f hours daily",
				len(group), intensity, avgHours),
		})
	}

	return patterns
}

// staffingEfficiency 人力效率 [0, 1]：周可用工时对周护理需求（含 20% 缓冲）
// 的覆盖程度。数据不足时返回中性值 0.5。
func (e *Engine) staffingEfficiency(snap *domain.Snapshot) float64 {
	if snap == nil || len(snap.Staff) == 0 || len(snap.CareRecords) == 0 {
		return 0.5
	}

	availableHours := 0.0
	for _, staff := range snap.Staff {
		availableHours += float64(staff.MaxHoursPerWeek)
	}

	dailyCareHours := 0.0
	for _, record := range snap.CareRecords {
		dailyCareHours += record.TotalHours
	}
	weeklyCareHours := dailyCareHours * float64(domain.DaysPerWeek)
	if weeklyCareHours <= 0 {
		return 1.0
	}

	efficiency := availableHours / (weeklyCareHours * e.params.EfficiencyBuffer)
	efficiency = math.Max(0, math.Min(1, efficiency))
	return roundTo(efficiency, 2)
}

// generalRecommendations 基于整体分布的通用建议
func (e *Engine) generalRecommendations(analyses map[string]*domain.ResidentAnalysis, totalCareHours float64) []string {
	recommendations := []string{}
	if len(analyses) == 0 {
		return recommendations
	}

	highCount := 0
	var shiftTotals [domain.SlotsPerDay]float64
	for _, analysis := range analyses {
		if analysis.CareIntensity == domain.IntensityHigh {
			highCount++
		}
		for _, slot := range domain.AllShiftSlots() {
			shiftTotals[slot] += analysis.ShiftTotals[slot]
		}
	}

	if float64(highCount) > float64(len(analyses))*0.3 {
		recommendations = append(recommendations, "Consider increasing staff during high-acuity periods")
	}
	if totalCareHours > float64(len(analyses))*6 {
		recommendations = append(recommendations, "High care requirements detected - review staffing ratios")
	}

	maxShift, minShift := shiftTotals[0], shiftTotals[0]
	for _, h := range shiftTotals {
		if h > maxShift {
			maxShift = h
		}
		if h < minShift {
			minShift = h
		}
	}
	if maxShift > minShift*2 {
		recommendations = append(recommendations, "Consider redistributing care hours across shifts for better balance")
	}

	return recommendations
}
