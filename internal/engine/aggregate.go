package engine

import (
	"fmt"
	"math"

	"carewise-staffing/internal/domain"

	"go.uber.org/zap"
)

const minutesPerHour = 60.0

// AnalyzeResidents 对设施内住户做护理分析：聚合周护理小时矩阵并计算 acuity。
// sectionID 非空时只分析该分区的住户。
// 没有护理记录的住户跳过；任何路径下都保证矩阵单元格之和等于总小时数。
func (e *Engine) AnalyzeResidents(snap *domain.Snapshot, sectionID string) map[string]*domain.ResidentAnalysis {
	analyses := make(map[string]*domain.ResidentAnalysis)

	if snap == nil || len(snap.Residents) == 0 {
		e.logger.Warn("No resident data available for analysis")
		return analyses
	}
	if len(snap.CareRecords) == 0 {
		e.logger.Warn("No care records available for analysis",
			zap.String("facility_id", snap.FacilityID),
		)
		return analyses
	}

	for _, resident := range snap.Residents {
		if sectionID != "" && resident.SectionID != sectionID {
			continue
		}

		records := snap.RecordsFor(resident.ResidentID)
		if len(records) == 0 {
			continue
		}

		analysis := e.aggregateResident(snap, resident, records)
		score, intensity := e.AcuityScore(records, analysis.TotalCareHours)
		analysis.AcuityScore = score
		analysis.CareIntensity = intensity

		analyses[resident.ResidentID] = analysis

		e.logger.Debug("Analyzed resident care pattern",
			zap.String("resident_id", resident.ResidentID),
			zap.Float64("total_care_hours", analysis.TotalCareHours),
			zap.Float64("acuity_score", score),
			zap.String("care_intensity", string(intensity)),
		)
	}

	return analyses
}

// aggregateResident 聚合单个住户的周护理小时矩阵。
// 数据源优先级：
//  1. 住户级分时段累计表（ResidentShiftTotals）
//  2. 各护理记录自带的分时段分钟表
//  3. 记录的总小时数均摊到 7 天 × 3 班次（最后兜底，精度存疑，仅为兼容保留）
func (e *Engine) aggregateResident(snap *domain.Snapshot, resident domain.Resident, records []domain.CareRecord) *domain.ResidentAnalysis {
	analysis := &domain.ResidentAnalysis{
		ResidentID: resident.ResidentID,
		Name:       resident.Name,
		SectionID:  resident.SectionID,
	}

	if totals, ok := snap.TotalsFor(resident.ResidentID); ok {
		e.accumulateSlots(analysis, totals)
		return analysis
	}

	merged := make(domain.SlotMinutes)
	for _, record := range records {
		for key, minutes := range record.SlotMinutes {
			merged[key] += minutes
		}
	}
	if len(merged) > 0 {
		e.accumulateSlots(analysis, merged)
		return analysis
	}

	// 均摊兜底：只有总小时数、没有任何分时段明细
	totalHours := 0.0
	for _, record := range records {
		totalHours += record.TotalHours
	}
	if totalHours <= 0 {
		return analysis
	}

	e.spreadEvenly(analysis, totalHours)
	analysis.Warnings = append(analysis.Warnings,
		fmt.Sprintf("no shift breakdown available; spread %.2fh evenly across week", totalHours))
	e.logger.Warn("No shift breakdown for resident, spreading total hours evenly",
		zap.String("resident_id", resident.ResidentID),
		zap.Float64("total_hours", totalHours),
	)

	return analysis
}

// accumulateSlots 把分钟表累加进小时矩阵与合计
func (e *Engine) accumulateSlots(analysis *domain.ResidentAnalysis, slots domain.SlotMinutes) {
	for key, minutes := range slots {
		if minutes <= 0 {
			continue
		}
		hours := float64(minutes) / minutesPerHour
		analysis.Matrix[key.Day][key.Slot] += hours
		analysis.ShiftTotals[key.Slot] += hours
		analysis.TotalCareHours += hours
	}
}

// spreadEvenly 均摊：每天 total/7 小时，每班次再除以 3。
// 21 个单元格之和仍等于总小时数，守恒不变式在该路径上同样成立。
func (e *Engine) spreadEvenly(analysis *domain.ResidentAnalysis, totalHours float64) {
	perDay := totalHours / float64(domain.DaysPerWeek)
	perSlot := perDay / float64(domain.SlotsPerDay)

	for _, day := range domain.AllDays() {
		for _, slot := range domain.AllShiftSlots() {
			analysis.Matrix[day][slot] += perSlot
			analysis.ShiftTotals[slot] += perSlot
		}
	}
	analysis.TotalCareHours += totalHours
}

// roundTo 保留 n 位小数
func roundTo(v float64, places int) float64 {
	factor := math.Pow(10, float64(places))
	return math.Round(v*factor) / factor
}
