package engine

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"carewise-staffing/internal/domain"
)

// ShiftConfidence 单班次推荐的置信度 [0.6, 1.0]。
// 下限 0.6：推荐始终基于真实护理数据，不输出低于基准线的结果；
// 两个因子分别按住户数和护理小时归一化，各最多加 0.2。
func (e *Engine) ShiftConfidence(residentCount int, careHours float64) float64 {
	p := e.params

	confidence := p.ShiftConfidenceBase
	confidence += math.Min(float64(residentCount)/p.ShiftResidentNorm, 1.0) * p.ShiftFactorWeight
	confidence += math.Min(careHours/p.ShiftCareHoursNorm, 1.0) * p.ShiftFactorWeight

	confidence = roundTo(confidence, 2)
	if confidence < p.ShiftConfidenceBase {
		confidence = p.ShiftConfidenceBase
	}
	if confidence > 1.0 {
		confidence = 1.0
	}
	return confidence
}

// WeeklyConfidence 周度推荐的置信度 [60, 100]（整数分制）
func (e *Engine) WeeklyConfidence(residentCount int, careHours float64) int {
	p := e.params

	confidence := float64(p.WeeklyConfidenceBase)
	confidence += math.Min(float64(residentCount)/p.WeeklyResidentNorm, 1.0) * p.WeeklyFactorWeight
	confidence += math.Min(careHours/p.ShiftCareHoursNorm, 1.0) * p.WeeklyFactorWeight

	score := int(math.Round(confidence))
	if score < p.WeeklyConfidenceBase {
		score = p.WeeklyConfidenceBase
	}
	if score > 100 {
		score = 100
	}
	return score
}

// ScheduleConfidence 整周排班的置信度 [0, 100]。
// 三个分量各自封顶：满覆盖班次占比（40 分）、平均覆盖率（30 分）、
// 负载均衡（30 分）。只统计 optimized 状态的班次，没有则返回 0。
func (e *Engine) ScheduleConfidence(week *domain.WeekSchedule) int {
	p := e.params

	totalShifts := 0
	coveredShifts := 0
	coverageSum := 0.0
	staffHours := make(map[string]float64)

	for _, day := range week.Days {
		for _, shift := range day.Shifts {
			if shift.Status != domain.StatusOptimized {
				continue
			}
			totalShifts++
			coverageSum += shift.CoveragePercentage
			if len(shift.AssignedStaff) >= shift.RequiredStaff {
				coveredShifts++
			}
			for _, assigned := range shift.AssignedStaff {
				staffHours[assigned.StaffID] += p.ShiftHours
			}
		}
	}

	if totalShifts == 0 {
		return 0
	}

	coverageScore := float64(coveredShifts) / float64(totalShifts) * p.CoverageWeight

	meanCoverage := coverageSum / float64(totalShifts)
	utilizationScore := math.Min(p.UtilizationWeight, meanCoverage/100*p.UtilizationWeight)

	balanceScore := e.workloadBalance(staffHours) * p.BalanceWeight

	score := int(math.Round(coverageScore + utilizationScore + balanceScore))
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

// workloadBalance 负载均衡度 [0, 1]：各员工排班小时的离散程度越小越接近 1。
// 少于两人时没有可比性，返回 0。
func (e *Engine) workloadBalance(staffHours map[string]float64) float64 {
	if len(staffHours) <= 1 {
		return 0
	}

	sum := 0.0
	for _, h := range staffHours {
		sum += h
	}
	mean := sum / float64(len(staffHours))
	if mean == 0 {
		return 0
	}

	variance := 0.0
	for _, h := range staffHours {
		variance += (h - mean) * (h - mean)
	}
	stddev := math.Sqrt(variance / float64(len(staffHours)))

	balance := 1 - stddev/mean
	if balance < 0 {
		balance = 0
	}
	return balance
}

// ScheduleReasoning 整周排班的说明文字（确定性拼装，便于前端直接展示）
func (e *Engine) ScheduleReasoning(week *domain.WeekSchedule, totalStaff int) string {
	totalShifts := 0
	coveredShifts := 0
	assignedSet := make(map[string]bool)
	roleCounts := make(map[domain.StaffRole]int)

	for _, day := range week.Days {
		for _, shift := range day.Shifts {
			totalShifts++
			if shift.Status == domain.StatusOptimized &&
				len(shift.AssignedStaff) >= shift.RequiredStaff {
				coveredShifts++
			}
			for _, assigned := range shift.AssignedStaff {
				if !assignedSet[assigned.StaffID] {
					assignedSet[assigned.StaffID] = true
					roleCounts[assigned.Role]++
				}
			}
		}
	}

	var parts []string
	parts = append(parts,
		fmt.Sprintf("Generated %d shifts with %d fully covered", totalShifts, coveredShifts))

	if totalStaff > 0 {
		rate := float64(len(assignedSet)) / float64(totalStaff) * 100
		parts = append(parts, fmt.Sprintf("Utilized %.1f%% of available staff", rate))
	}

	if len(roleCounts) > 0 {
		// 固定枚举顺序保证文案可复现
		var roleParts []string
		for _, role := range allRoles() {
			if count, ok := roleCounts[role]; ok {
				roleParts = append(roleParts, fmt.Sprintf("%s: %d", role, count))
			}
		}
		parts = append(parts, "Role distribution: "+strings.Join(roleParts, ", "))
	}

	if len(week.Conflicts) > 0 {
		parts = append(parts,
			fmt.Sprintf("Resolved %d potential scheduling conflicts", len(week.Conflicts)))
	}

	return strings.Join(parts, ". ") + "."
}

// ShiftReasoning 单班次推荐的说明文字
func (e *Engine) ShiftReasoning(req *domain.ShiftStaffing) string {
	var parts []string

	if req.TotalCareHours > 0 {
		parts = append(parts,
			fmt.Sprintf("Based on %.2f hours of care requirements", req.TotalCareHours))
	}
	if req.HighAcuityCount > 0 {
		parts = append(parts,
			fmt.Sprintf("%d high-acuity residents requiring intensive care", req.HighAcuityCount))
	}
	if req.ResidentCount > 0 {
		parts = append(parts,
			fmt.Sprintf("Total of %d residents in this section", req.ResidentCount))
	}
	if req.AcuityAdjustment > 0 {
		parts = append(parts, "Additional staff recommended due to high care complexity")
	}

	if len(parts) == 0 {
		parts = append(parts, "Standard staffing based on facility guidelines")
	}
	return strings.Join(parts, ". ") + "."
}

// StaffUtilization 汇总本周的员工使用情况
func (e *Engine) StaffUtilization(week *domain.WeekSchedule, totalStaff int) domain.StaffUtilization {
	utilization := domain.StaffUtilization{
		TotalStaff:        totalStaff,
		RoleBreakdown:     make(map[domain.StaffRole]int),
		HoursDistribution: make(map[string]float64),
	}

	assignedSet := make(map[string]bool)
	for _, day := range week.Days {
		for _, shift := range day.Shifts {
			for _, assigned := range shift.AssignedStaff {
				utilization.HoursDistribution[assigned.StaffID] += e.params.ShiftHours
				if !assignedSet[assigned.StaffID] {
					assignedSet[assigned.StaffID] = true
					utilization.RoleBreakdown[assigned.Role]++
				}
			}
		}
	}

	utilization.AssignedStaff = len(assignedSet)
	if totalStaff > 0 {
		utilization.UtilizationRate = roundTo(float64(len(assignedSet))/float64(totalStaff)*100, 1)
	}
	return utilization
}

// DetectConflicts 检测同人同日多班（排班算法本身已避免，
// 这里是对外输出前的二次校验，检出即说明逻辑有缺陷）
func (e *Engine) DetectConflicts(week *domain.WeekSchedule) []domain.ScheduleConflict {
	conflicts := []domain.ScheduleConflict{}

	for _, day := range week.Days {
		staffSlots := make(map[string][]string)
		for _, slot := range domain.AllShiftSlots() {
			shift, ok := day.Shifts[slot]
			if !ok {
				continue
			}
			for _, assigned := range shift.AssignedStaff {
				staffSlots[assigned.StaffID] = append(staffSlots[assigned.StaffID], slot.String())
			}
		}

		var staffIDs []string
		for staffID, slots := range staffSlots {
			if len(slots) > 1 {
				staffIDs = append(staffIDs, staffID)
			}
		}
		sort.Strings(staffIDs)

		for _, staffID := range staffIDs {
			conflicts = append(conflicts, domain.ScheduleConflict{
				Type:       "double_booking",
				StaffID:    staffID,
				Date:       day.Date,
				ShiftTypes: staffSlots[staffID],
				Resolution: "Staff member assigned to multiple shifts on the same day; manual review required",
			})
		}
	}

	return conflicts
}

// allRoles 固定顺序的角色枚举（文案拼装用）
func allRoles() []domain.StaffRole {
	return []domain.StaffRole{
		domain.RoleRN,
		domain.RoleLPN,
		domain.RoleCNA,
		domain.RoleMedTech,
		domain.RoleAide,
		domain.RoleSupervisor,
		domain.RoleAdmin,
	}
}
