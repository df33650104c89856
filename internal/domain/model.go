package domain

import "time"

// StaffRole 员工角色（固定枚举，与排班模板的 required_roles 匹配）
type StaffRole string

const (
	RoleRN         StaffRole = "rn"
	RoleLPN        StaffRole = "lpn"
	RoleCNA        StaffRole = "cna"
	RoleMedTech    StaffRole = "med_tech"
	RoleAide       StaffRole = "aide"
	RoleSupervisor StaffRole = "supervisor"
	RoleAdmin      StaffRole = "admin"
)

// CareRecord 单条 ADL 护理记录（按次分钟数 × 频次，附带分时段分钟表）。
// 分析运行期间为只读快照，归持久层所有。
type CareRecord struct {
	ResidentID  string
	Task        string  // ADL 任务名称（如 bathing、mobility assistance）
	Minutes     int     // 单次护理分钟数
	Frequency   int     // 每天次数
	TotalHours  float64 // 冗余的周护理小时合计（导入时计算）
	SlotMinutes SlotMinutes
}

// ResidentShiftTotals 住户级的分时段累计分钟数。
// 独立于单条 CareRecord 维护，是聚合的首选数据源。
type ResidentShiftTotals struct {
	ResidentID string
	Slots      SlotMinutes
}

// Resident 住户基础信息
type Resident struct {
	ResidentID string
	Name       string
	Status     string
	SectionID  string
}

// StaffMember 可排班员工
type StaffMember struct {
	ID              string
	FirstName       string
	LastName        string
	Role            StaffRole
	Skills          []string
	MaxHoursPerWeek int
	PreferredShifts []ShiftSlot
	Status          string
}

// FullName 员工姓名
func (s StaffMember) FullName() string {
	return s.FirstName + " " + s.LastName
}

// PrefersShift 是否声明偏好该班次
func (s StaffMember) PrefersShift(slot ShiftSlot) bool {
	for _, p := range s.PreferredShifts {
		if p == slot {
			return true
		}
	}
	return false
}

// ShiftTemplate 班次模板（每个班次类型的人数与角色要求）
type ShiftTemplate struct {
	ID                 string
	Name               string
	ShiftType          ShiftSlot
	StartTime          string // "HH:MM"
	EndTime            string // "HH:MM"
	DurationHours      float64
	RequiredStaffCount int
	RequiredRoles      []StaffRole
	Active             bool
}

// RequiresRole 模板是否接受该角色
func (t ShiftTemplate) RequiresRole(role StaffRole) bool {
	for _, r := range t.RequiredRoles {
		if r == role {
			return true
		}
	}
	return false
}

// Shift 已持久化的班次实例
type Shift struct {
	ID         string
	Date       string // "2006-01-02"
	TemplateID string
}

// StaffAssignment 已持久化的员工-班次分配（用于排班时排除已被占用的日期）
type StaffAssignment struct {
	StaffID string
	ShiftID string
	Role    StaffRole
}

// Snapshot 一次分析/排班运行的完整输入快照。
// 由持久层在调用前一次性装载，核心逻辑不做任何 I/O、不修改快照内容。
type Snapshot struct {
	FacilityID   string
	Residents    []Resident
	CareRecords  []CareRecord
	ShiftTotals  []ResidentShiftTotals
	Staff        []StaffMember
	Templates    []ShiftTemplate
	Shifts       []Shift
	Assignments  []StaffAssignment
	LoadedAt     time.Time
}

// TotalsFor 返回住户的分时段累计表；不存在时返回 (nil, false)
func (s *Snapshot) TotalsFor(residentID string) (SlotMinutes, bool) {
	for _, t := range s.ShiftTotals {
		if t.ResidentID == residentID {
			return t.Slots, len(t.Slots) > 0
		}
	}
	return nil, false
}

// RecordsFor 返回住户的全部护理记录（保持快照顺序）
func (s *Snapshot) RecordsFor(residentID string) []CareRecord {
	var records []CareRecord
	for _, r := range s.CareRecords {
		if r.ResidentID == residentID {
			records = append(records, r)
		}
	}
	return records
}

// TemplateFor 返回该班次类型的首个模板；没有时返回 (nil, false)
func (s *Snapshot) TemplateFor(slot ShiftSlot) (*ShiftTemplate, bool) {
	for i := range s.Templates {
		if s.Templates[i].ShiftType == slot {
			return &s.Templates[i], true
		}
	}
	return nil, false
}
