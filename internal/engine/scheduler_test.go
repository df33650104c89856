package engine

import (
	"testing"
	"time"

	"carewise-staffing/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dayTemplate(required int) domain.ShiftTemplate {
	return domain.ShiftTemplate{
		ID: "tpl-day", Name: "Day Shift", ShiftType: domain.ShiftDay,
		StartTime: "06:00", DurationHours: 8,
		RequiredStaffCount: required,
		RequiredRoles:      []domain.StaffRole{domain.RoleCNA},
		Active:             true,
	}
}

func cna(id string, maxHours int, preferred ...domain.ShiftSlot) domain.StaffMember {
	return domain.StaffMember{
		ID: id, FirstName: "Staff", LastName: id,
		Role: domain.RoleCNA, MaxHoursPerWeek: maxHours,
		PreferredShifts: preferred,
	}
}

func TestBuildWeekScheduleWeekDates(t *testing.T) {
	e := newTestEngine()
	snap := &domain.Snapshot{
		Staff:     []domain.StaffMember{cna("s1", 40)},
		Templates: []domain.ShiftTemplate{dayTemplate(1)},
	}

	// 2026-03-11 是周三，周起点应回退到 03-09 周一
	target := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)
	week := e.BuildWeekSchedule(snap, target)

	require.Len(t, week.WeekDates, 7)
	assert.Equal(t, "2026-03-09", week.WeekDates[0])
	assert.Equal(t, "2026-03-15", week.WeekDates[6])
	assert.Equal(t, "Monday", week.Days[0].DayName)
	assert.Equal(t, "Sunday", week.Days[6].DayName)
	assert.NotEmpty(t, week.RunID)
}

func TestBuildWeekScheduleCoverage(t *testing.T) {
	e := newTestEngine()
	snap := &domain.Snapshot{
		FacilityID: "fac-1",
		Staff: []domain.StaffMember{
			cna("s1", 40), cna("s2", 40), cna("s3", 40),
		},
		Templates: []domain.ShiftTemplate{dayTemplate(2)},
	}

	week := e.BuildWeekSchedule(snap, time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC))
	require.Len(t, week.Days, 7)

	for _, day := range week.Days {
		dayShift := day.Shifts[domain.ShiftDay]
		require.NotNil(t, dayShift)
		assert.Equal(t, domain.StatusOptimized, dayShift.Status)
		assert.Len(t, dayShift.AssignedStaff, 2)
		assert.InDelta(t, 100.0, dayShift.CoveragePercentage, 1e-9)

		// 未配置模板的班次标记为 no_template
		assert.Equal(t, domain.StatusNoTemplate, day.Shifts[domain.ShiftSwing].Status)
		assert.Equal(t, domain.StatusNoTemplate, day.Shifts[domain.ShiftNoc].Status)
	}

	assert.Empty(t, week.Conflicts)
	assert.GreaterOrEqual(t, week.ConfidenceScore, 0)
	assert.LessOrEqual(t, week.ConfidenceScore, 100)
	assert.Contains(t, week.Reasoning, "fully covered")
}

func TestBuildWeekScheduleNoDoubleBooking(t *testing.T) {
	e := newTestEngine()

	templates := []domain.ShiftTemplate{
		{ID: "t1", Name: "Day", ShiftType: domain.ShiftDay, RequiredStaffCount: 1,
			RequiredRoles: []domain.StaffRole{domain.RoleCNA}},
		{ID: "t2", Name: "Swing", ShiftType: domain.ShiftSwing, RequiredStaffCount: 1,
			RequiredRoles: []domain.StaffRole{domain.RoleCNA}},
		{ID: "t3", Name: "NOC", ShiftType: domain.ShiftNoc, RequiredStaffCount: 1,
			RequiredRoles: []domain.StaffRole{domain.RoleCNA}},
	}
	snap := &domain.Snapshot{
		Staff:     []domain.StaffMember{cna("s1", 60), cna("s2", 60)},
		Templates: templates,
	}

	week := e.BuildWeekSchedule(snap, time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC))

	for _, day := range week.Days {
		seen := make(map[string]bool)
		for _, slot := range domain.AllShiftSlots() {
			for _, assigned := range day.Shifts[slot].AssignedStaff {
				assert.False(t, seen[assigned.StaffID],
					"staff %s double-booked on %s", assigned.StaffID, day.Date)
				seen[assigned.StaffID] = true
			}
		}
		// 两名员工占满 day 和 swing 后，noc 没有可用候选
		assert.Empty(t, day.Shifts[domain.ShiftNoc].AssignedStaff)
	}

	assert.Empty(t, week.Conflicts)
}

func TestBuildWeekScheduleRespectsExistingBookings(t *testing.T) {
	e := newTestEngine()
	snap := &domain.Snapshot{
		Staff:     []domain.StaffMember{cna("s1", 40)},
		Templates: []domain.ShiftTemplate{dayTemplate(1)},
		Shifts:    []domain.Shift{{ID: "shift-1", Date: "2026-03-09"}},
		Assignments: []domain.StaffAssignment{
			{StaffID: "s1", ShiftID: "shift-1", Role: domain.RoleCNA},
		},
	}

	week := e.BuildWeekSchedule(snap, time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC))

	// 周一已有持久化占用，不能再排
	assert.Empty(t, week.Days[0].Shifts[domain.ShiftDay].AssignedStaff)
	// 周二无占用，正常排班
	assert.Len(t, week.Days[1].Shifts[domain.ShiftDay].AssignedStaff, 1)
}

func TestBuildWeekSchedulePrefersDeclaredShift(t *testing.T) {
	e := newTestEngine()
	snap := &domain.Snapshot{
		Staff: []domain.StaffMember{
			cna("s1", 40),
			cna("s2", 40, domain.ShiftDay),
		},
		Templates: []domain.ShiftTemplate{dayTemplate(1)},
	}

	week := e.BuildWeekSchedule(snap, time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC))

	monday := week.Days[0].Shifts[domain.ShiftDay]
	require.Len(t, monday.AssignedStaff, 1)
	assert.Equal(t, "s2", monday.AssignedStaff[0].StaffID)
	assert.Contains(t, monday.AssignedStaff[0].AssignmentReason, "Prefers this shift type")
}

func TestBuildWeekScheduleWeeklyHourBudget(t *testing.T) {
	e := newTestEngine()
	snap := &domain.Snapshot{
		Staff:     []domain.StaffMember{cna("s1", 8)},
		Templates: []domain.ShiftTemplate{dayTemplate(1)},
	}

	week := e.BuildWeekSchedule(snap, time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC))

	assignedDays := 0
	for _, day := range week.Days {
		assignedDays += len(day.Shifts[domain.ShiftDay].AssignedStaff)
	}
	// 周上限 8 小时 → 整周只能排 1 个班
	assert.Equal(t, 1, assignedDays)
}

func TestBuildWeekScheduleRoleMismatch(t *testing.T) {
	e := newTestEngine()
	template := dayTemplate(1)
	template.RequiredRoles = []domain.StaffRole{domain.RoleRN}
	snap := &domain.Snapshot{
		Staff:     []domain.StaffMember{cna("s1", 40)},
		Templates: []domain.ShiftTemplate{template},
	}

	week := e.BuildWeekSchedule(snap, time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC))

	monday := week.Days[0].Shifts[domain.ShiftDay]
	assert.Equal(t, domain.StatusOptimized, monday.Status)
	assert.Empty(t, monday.AssignedStaff)
	assert.InDelta(t, 0.0, monday.CoveragePercentage, 1e-9)
}

func TestBuildWeekScheduleInsufficientData(t *testing.T) {
	e := newTestEngine()

	week := e.BuildWeekSchedule(&domain.Snapshot{FacilityID: "fac-1"},
		time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC))

	assert.Equal(t, "fac-1", week.FacilityID)
	assert.Len(t, week.WeekDates, 7)
	assert.Empty(t, week.Days)
	assert.Equal(t, 0, week.ConfidenceScore)
	assert.Contains(t, week.Reasoning, "Insufficient")
}

// 分数相同的候选保持快照顺序，两次运行结果一致
func TestBuildWeekScheduleDeterministic(t *testing.T) {
	e := newTestEngine()
	snap := &domain.Snapshot{
		Staff:     []domain.StaffMember{cna("s1", 40), cna("s2", 40), cna("s3", 40)},
		Templates: []domain.ShiftTemplate{dayTemplate(1)},
	}
	target := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)

	first := e.BuildWeekSchedule(snap, target)
	second := e.BuildWeekSchedule(snap, target)

	for i := range first.Days {
		a := first.Days[i].Shifts[domain.ShiftDay].AssignedStaff
		b := second.Days[i].Shifts[domain.ShiftDay].AssignedStaff
		require.Equal(t, len(a), len(b))
		for j := range a {
			assert.Equal(t, a[j].StaffID, b[j].StaffID)
		}
	}
}
