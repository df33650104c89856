package engine

import (
	"math"

	"carewise-staffing/internal/domain"

	"go.uber.org/zap"
)

// RequiredStaff 由护理小时数计算基础人数。
// 0 小时 → 0 人（不制造不存在的需求）；否则 max(1, round(hours/8))。
func (e *Engine) RequiredStaff(careHours float64) int {
	if careHours <= 0 {
		return 0
	}
	base := int(math.Round(careHours / e.params.HoursPerStaff))
	if base < 1 {
		base = 1
	}
	return base
}

// StaffingRequirements 按班次类型汇总人力需求。
// 高 acuity 住户超出基础人数的部分作为增员（acuity adjustment）。
func (e *Engine) StaffingRequirements(snap *domain.Snapshot, analyses map[string]*domain.ResidentAnalysis, sectionID string) map[domain.ShiftSlot]*domain.ShiftStaffing {
	requirements := make(map[domain.ShiftSlot]*domain.ShiftStaffing)

	residentCount := 0
	if snap != nil {
		for _, r := range snap.Residents {
			if sectionID == "" || r.SectionID == sectionID {
				residentCount++
			}
		}
	}
	if residentCount == 0 {
		return requirements
	}

	var shiftHours [domain.SlotsPerDay]float64
	highCount, mediumCount, lowCount := 0, 0, 0
	for _, analysis := range analyses {
		for _, slot := range domain.AllShiftSlots() {
			shiftHours[slot] += analysis.ShiftTotals[slot]
		}
		switch analysis.CareIntensity {
		case domain.IntensityHigh:
			highCount++
		case domain.IntensityMedium:
			mediumCount++
		default:
			lowCount++
		}
	}

	for _, slot := range domain.AllShiftSlots() {
		hours := shiftHours[slot]
		base := e.RequiredStaff(hours)

		adjustment := highCount - base
		if adjustment < 0 {
			adjustment = 0
		}
		// 无护理需求的班次不增员
		if base == 0 {
			adjustment = 0
		}

		requirements[slot] = &domain.ShiftStaffing{
			ShiftType:             slot,
			TotalCareHours:        roundTo(hours, 2),
			BaseStaffRequired:     base,
			AcuityAdjustment:      adjustment,
			TotalStaffRecommended: base + adjustment,
			ResidentCount:         residentCount,
			HighAcuityCount:       highCount,
			MediumAcuityCount:     mediumCount,
			LowAcuityCount:        lowCount,
		}

		e.logger.Debug("Calculated shift staffing requirement",
			zap.String("shift_type", slot.String()),
			zap.Float64("care_hours", hours),
			zap.Int("base_staff", base),
			zap.Int("acuity_adjustment", adjustment),
		)
	}

	return requirements
}

// SkillMix 设施级推荐人数的技能结构拆分：70% CNA / 20% LPN / 10% RN。
// 人数大于 0 时每个角色至少 1 人；0 人时返回空结构。
func (e *Engine) SkillMix(recommended int) domain.SkillMix {
	if recommended <= 0 {
		return domain.SkillMix{}
	}
	atLeastOne := func(n int) int {
		if n < 1 {
			return 1
		}
		return n
	}
	return domain.SkillMix{
		domain.RoleCNA: atLeastOne(int(float64(recommended) * e.params.SkillMixCNA)),
		domain.RoleLPN: atLeastOne(int(float64(recommended) * e.params.SkillMixLPN)),
		domain.RoleRN:  atLeastOne(int(float64(recommended) * e.params.SkillMixRN)),
	}
}
