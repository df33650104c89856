package engine

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"carewise-staffing/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

// staffState 单次排班运行的可用度 scratch（每次运行新建，运行结束即丢弃，
// 不同设施/请求之间没有任何共享状态）
type staffState struct {
	score         float64
	assignedHours float64
}

// scheduleRun 一次排班运行的全部可变状态
type scheduleRun struct {
	snap   *domain.Snapshot
	states map[string]*staffState
	// booked 已持久化的占用：staff_id → 日期集合（这些日期不可再排）
	booked map[string]map[string]bool
}

// BuildWeekSchedule 生成目标日期所在周（周一起）的完整排班。
// 每天内按 Day → Swing → NOC 的固定顺序处理，后面的班次会读取前面班次
// 产生的当日占用集合与扣减后的可用度分数，该循环存在严格的顺序依赖。
func (e *Engine) BuildWeekSchedule(snap *domain.Snapshot, target time.Time) *domain.WeekSchedule {
	week := &domain.WeekSchedule{
		RunID: uuid.NewString(),
	}
	if snap != nil {
		week.FacilityID = snap.FacilityID
	}

	if snap == nil || len(snap.Staff) == 0 || len(snap.Templates) == 0 {
		e.logger.Warn("Insufficient data for schedule generation",
			zap.String("facility_id", week.FacilityID),
		)
		week.WeekDates = weekDateStrings(target)
		week.Reasoning = "Insufficient staffing data to generate a schedule."
		return week
	}

	run := e.newScheduleRun(snap)
	weekDates := weekDates(target)

	for _, date := range weekDates {
		dateStr := date.Format(dateLayout)
		week.WeekDates = append(week.WeekDates, dateStr)

		day := domain.DaySchedule{
			Date:    dateStr,
			DayName: date.Weekday().String(),
			Shifts:  make(map[domain.ShiftSlot]*domain.ShiftSchedule, domain.SlotsPerDay),
		}

		// 当日占用集合：防止同一人同日被排进多个班次
		dayAssigned := make(map[string]bool)

		for _, slot := range domain.AllShiftSlots() {
			shift := e.optimizeShiftStaffing(run, dateStr, slot, dayAssigned)
			day.Shifts[slot] = shift

			for _, assigned := range shift.AssignedStaff {
				dayAssigned[assigned.StaffID] = true
			}
		}

		week.Days = append(week.Days, day)
	}

	week.ConfidenceScore = e.ScheduleConfidence(week)
	week.Conflicts = e.DetectConflicts(week)
	week.Utilization = e.StaffUtilization(week, len(snap.Staff))
	week.Reasoning = e.ScheduleReasoning(week, len(snap.Staff))

	e.logger.Info("Generated week schedule",
		zap.String("facility_id", week.FacilityID),
		zap.String("run_id", week.RunID),
		zap.Int("confidence_score", week.ConfidenceScore),
		zap.Int("conflicts", len(week.Conflicts)),
	)

	return week
}

// newScheduleRun 初始化排班 scratch：基础可用度分数与既有占用
func (e *Engine) newScheduleRun(snap *domain.Snapshot) *scheduleRun {
	p := e.params

	// 既有分配次数（已持久化的数据，只读）
	priorAssignments := make(map[string]int)
	shiftDates := make(map[string]string, len(snap.Shifts))
	for _, s := range snap.Shifts {
		shiftDates[s.ID] = s.Date
	}
	booked := make(map[string]map[string]bool)
	for _, a := range snap.Assignments {
		priorAssignments[a.StaffID]++
		if date, ok := shiftDates[a.ShiftID]; ok {
			if booked[a.StaffID] == nil {
				booked[a.StaffID] = make(map[string]bool)
			}
			booked[a.StaffID][date] = true
		}
	}

	states := make(map[string]*staffState, len(snap.Staff))
	for _, staff := range snap.Staff {
		score := p.AvailabilityBase
		score -= float64(priorAssignments[staff.ID]) * p.AssignmentPenalty
		if len(staff.PreferredShifts) > 0 {
			score += p.PreferenceBonus
		}
		if len(staff.Skills) > 1 {
			score += p.MultiSkillBonus
		}
		states[staff.ID] = &staffState{score: clampScore(score)}
	}

	return &scheduleRun{snap: snap, states: states, booked: booked}
}

// optimizeShiftStaffing 为某天某班次挑选员工
func (e *Engine) optimizeShiftStaffing(run *scheduleRun, date string, slot domain.ShiftSlot, dayAssigned map[string]bool) *domain.ShiftSchedule {
	template, ok := run.snap.TemplateFor(slot)
	if !ok {
		return &domain.ShiftSchedule{
			Status:        domain.StatusNoTemplate,
			AssignedStaff: []domain.AssignedStaff{},
		}
	}

	required := template.RequiredStaffCount
	if required < 1 {
		required = 1
	}

	candidates := e.eligibleStaff(run, template, date, dayAssigned)

	// 按班次相关分数降序；分数相同的保持快照顺序（稳定排序保证可复现）
	sort.SliceStable(candidates, func(i, j int) bool {
		return e.shiftSpecificScore(run, candidates[i], slot) >
			e.shiftSpecificScore(run, candidates[j], slot)
	})

	assigned := make([]domain.AssignedStaff, 0, required)
	for i := 0; i < required && i < len(candidates); i++ {
		staff := candidates[i]
		assigned = append(assigned, domain.AssignedStaff{
			StaffID:          staff.ID,
			Name:             staff.FullName(),
			Role:             staff.Role,
			AssignmentReason: e.assignmentReason(staff, slot),
		})

		// 多班惩罚比既有分配更陡，避免同一周把一个人排满
		state := run.states[staff.ID]
		state.score -= e.params.AssignDecrement
		state.assignedHours += e.params.ShiftHours
	}

	return &domain.ShiftSchedule{
		Status:             domain.StatusOptimized,
		TemplateName:       template.Name,
		RequiredStaff:      required,
		AssignedStaff:      assigned,
		CoveragePercentage: float64(len(assigned)) / float64(required) * 100,
	}
}

// eligibleStaff 该班次的候选员工：角色匹配、当日未被排班、当日没有既有
// 占用、周工时预算未用完
func (e *Engine) eligibleStaff(run *scheduleRun, template *domain.ShiftTemplate, date string, dayAssigned map[string]bool) []domain.StaffMember {
	var eligible []domain.StaffMember
	for _, staff := range run.snap.Staff {
		if !template.RequiresRole(staff.Role) {
			continue
		}
		if dayAssigned[staff.ID] {
			continue
		}
		if run.booked[staff.ID][date] {
			continue
		}
		state := run.states[staff.ID]
		if state.assignedHours >= float64(staff.MaxHoursPerWeek) {
			continue
		}
		eligible = append(eligible, staff)
	}
	return eligible
}

// shiftSpecificScore 在基础可用度分数上叠加班次相关调整
func (e *Engine) shiftSpecificScore(run *scheduleRun, staff domain.StaffMember, slot domain.ShiftSlot) float64 {
	p := e.params
	score := run.states[staff.ID].score

	if staff.PrefersShift(slot) {
		score += p.PreferredShiftBonus
	}

	switch slot {
	case domain.ShiftNoc:
		// 夜班不受欢迎，除非明确偏好；周上限高的员工更可能接受
		if !staff.PrefersShift(domain.ShiftNoc) {
			score -= p.NocPenalty
		}
		if staff.MaxHoursPerWeek > p.NocHighHoursMin {
			score += p.NocHighHoursBonus
		}
	case domain.ShiftSwing:
		if staff.MaxHoursPerWeek > p.ExperienceHoursMin {
			score += p.SwingExperienceBonus
		}
	case domain.ShiftDay:
		score += p.DayShiftBonus
	}

	return clampScore(score)
}

// assignmentReason 拼装人类可读的分配理由
func (e *Engine) assignmentReason(staff domain.StaffMember, slot domain.ShiftSlot) string {
	var reasons []string

	reasons = append(reasons, fmt.Sprintf("Perfect %s match", strings.ToUpper(string(staff.Role))))

	if len(staff.Skills) > 0 {
		reasons = append(reasons, "Has required skills: "+strings.Join(staff.Skills, ", "))
	}
	if staff.PrefersShift(slot) {
		reasons = append(reasons, "Prefers this shift type")
	}
	if staff.MaxHoursPerWeek > e.params.ExperienceHoursMin {
		reasons = append(reasons, "Experienced staff member")
	}

	if len(reasons) == 0 {
		return "Best available match"
	}
	return strings.Join(reasons, ". ")
}

// weekDates 目标日期所在周的周一到周日
func weekDates(target time.Time) [domain.DaysPerWeek]time.Time {
	// time.Weekday 以周日为 0，换算成周一为 0 的偏移
	offset := (int(target.Weekday()) + 6) % 7
	monday := target.AddDate(0, 0, -offset)

	var dates [domain.DaysPerWeek]time.Time
	for i := 0; i < domain.DaysPerWeek; i++ {
		dates[i] = monday.AddDate(0, 0, i)
	}
	return dates
}

func weekDateStrings(target time.Time) []string {
	dates := weekDates(target)
	result := make([]string, 0, len(dates))
	for _, d := range dates {
		result = append(result, d.Format(dateLayout))
	}
	return result
}

func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
