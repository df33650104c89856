package engine

import (
	"fmt"
	"sort"
	"time"

	"carewise-staffing/internal/domain"

	"go.uber.org/zap"
)

// 缺少模板时长时的标准班次时间
var standardShiftTimes = map[domain.ShiftSlot]struct {
	start, end string
	duration   float64
}{
	domain.ShiftDay:   {"06:00", "14:00", 8},
	domain.ShiftSwing: {"14:00", "22:00", 8},
	domain.ShiftNoc:   {"22:00", "06:00", 8},
}

// WeeklyRecommendations 按天 × 班次的周度人力推荐。
// 只为实际存在护理需求的单元格生成推荐（该天有护理且该班次小时数大于 0），
// 结果按护理小时降序排列，需求最大的时段排在最前。
func (e *Engine) WeeklyRecommendations(analyses map[string]*domain.ResidentAnalysis) []domain.WeeklyRecommendation {
	recommendations := []domain.WeeklyRecommendation{}
	if len(analyses) == 0 {
		return recommendations
	}

	var matrix [domain.DaysPerWeek][domain.SlotsPerDay]float64
	residentCount := len(analyses)
	for _, analysis := range analyses {
		for d := 0; d < domain.DaysPerWeek; d++ {
			for s := 0; s < domain.SlotsPerDay; s++ {
				matrix[d][s] += analysis.Matrix[d][s]
			}
		}
	}

	for _, day := range domain.AllDays() {
		dayTotal := 0.0
		for _, slot := range domain.AllShiftSlots() {
			dayTotal += matrix[day][slot]
		}
		if dayTotal <= 0 {
			continue
		}

		for _, slot := range domain.AllShiftSlots() {
			hours := matrix[day][slot]
			if hours <= 0 {
				continue
			}

			recommendations = append(recommendations, domain.WeeklyRecommendation{
				Day:             day,
				ShiftType:       slot,
				CareHours:       roundTo(hours, 2),
				StaffRequired:   e.RequiredStaff(hours),
				ResidentCount:   residentCount,
				ConfidenceScore: e.WeeklyConfidence(residentCount, hours),
				Reasoning: fmt.Sprintf(
					"Care hours: %.1fh for %d residents on %s %s shift (1 staff per 8h care)",
					hours, residentCount, day, slot),
			})
		}
	}

	sort.SliceStable(recommendations, func(i, j int) bool {
		return recommendations[i].CareHours > recommendations[j].CareHours
	})

	e.logger.Debug("Generated weekly staffing recommendations",
		zap.Int("count", len(recommendations)),
	)
	return recommendations
}

// TemplateRecommendations 排班模板建议：为每个有需求的天 × 班次给出
// 标准班次时间与所需人数，按天、班次的固定顺序输出。
func (e *Engine) TemplateRecommendations(analyses map[string]*domain.ResidentAnalysis) []domain.TemplateRecommendation {
	recommendations := []domain.TemplateRecommendation{}
	if len(analyses) == 0 {
		return recommendations
	}

	var matrix [domain.DaysPerWeek][domain.SlotsPerDay]float64
	residentCount := len(analyses)
	for _, analysis := range analyses {
		for d := 0; d < domain.DaysPerWeek; d++ {
			for s := 0; s < domain.SlotsPerDay; s++ {
				matrix[d][s] += analysis.Matrix[d][s]
			}
		}
	}

	for _, day := range domain.AllDays() {
		for _, slot := range domain.AllShiftSlots() {
			hours := matrix[day][slot]
			if hours <= 0 {
				continue
			}

			times := standardShiftTimes[slot]
			staff := e.RequiredStaff(hours)

			recommendations = append(recommendations, domain.TemplateRecommendation{
				Day:              day,
				ShiftType:        slot,
				StartTime:        times.start,
				EndTime:          times.end,
				DurationHours:    times.duration,
				StaffNeeded:      staff,
				CareHoursCovered: roundTo(hours, 2),
				ResidentCount:    residentCount,
				ConfidenceScore:  e.WeeklyConfidence(residentCount, hours),
				Reasoning: fmt.Sprintf("Need %d staff for %.1fh care on %s %s shift",
					staff, hours, day, slot),
			})
		}
	}

	return recommendations
}

// OptimalShiftRecommendations 基于人力需求与现有模板的单班次推荐，
// 高 acuity 住户多的班次排在最前。
func (e *Engine) OptimalShiftRecommendations(snap *domain.Snapshot, requirements map[domain.ShiftSlot]*domain.ShiftStaffing) []domain.ShiftRecommendation {
	recommendations := []domain.ShiftRecommendation{}

	for _, slot := range domain.AllShiftSlots() {
		req, ok := requirements[slot]
		if !ok || req.TotalStaffRecommended <= 0 {
			continue
		}

		rec := domain.ShiftRecommendation{
			ShiftType:       slot,
			StaffRequired:   req.TotalStaffRecommended,
			CareHours:       req.TotalCareHours,
			ResidentCount:   req.ResidentCount,
			HighAcuityCount: req.HighAcuityCount,
			ConfidenceScore: e.ShiftConfidence(req.ResidentCount, req.TotalCareHours),
			Reasoning:       e.ShiftReasoning(req),
		}

		if template, found := snap.TemplateFor(slot); found {
			rec.TemplateID = template.ID
			rec.TemplateName = template.Name
			rec.RecommendedStartTime = template.StartTime
			rec.RecommendedEndTime = shiftEndTime(template.StartTime, template.DurationHours)
		} else {
			times := standardShiftTimes[slot]
			rec.RecommendedStartTime = times.start
			rec.RecommendedEndTime = times.end
		}

		recommendations = append(recommendations, rec)
	}

	sort.SliceStable(recommendations, func(i, j int) bool {
		return recommendations[i].HighAcuityCount > recommendations[j].HighAcuityCount
	})

	return recommendations
}

// shiftEndTime 起始时间加班次时长；解析失败时兜底 "16:00"
func shiftEndTime(start string, durationHours float64) string {
	t, err := time.Parse("15:04", start)
	if err != nil {
		return "16:00"
	}
	return t.Add(time.Duration(durationHours * float64(time.Hour))).Format("15:04")
}
