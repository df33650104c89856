package domain

// CareIntensity 护理强度分级（由 acuity 分数映射）
type CareIntensity string

const (
	IntensityLow    CareIntensity = "low"
	IntensityMedium CareIntensity = "medium"
	IntensityHigh   CareIntensity = "high"
)

// ResidentAnalysis 单个住户的护理分析结果（每次运行全量重算，不持久化）
type ResidentAnalysis struct {
	ResidentID     string                           `json:"resident_id"`
	Name           string                           `json:"name"`
	SectionID      string                           `json:"section_id"`
	TotalCareHours float64                          `json:"total_care_hours"`
	AcuityScore    float64                          `json:"acuity_score"`
	CareIntensity  CareIntensity                    `json:"care_intensity"`
	// Matrix[day][slot] 周护理小时矩阵（7 天 × 3 班次）
	Matrix [DaysPerWeek][SlotsPerDay]float64 `json:"matrix"`
	// ShiftTotals 按班次类型汇总的小时数（day/swing/noc）
	ShiftTotals [SlotsPerDay]float64 `json:"shift_totals"`
	// Warnings 聚合过程中的数据质量问题（坏键、均摊兜底等）
	Warnings []string `json:"warnings,omitempty"`
}

// MatrixTotal 矩阵全部单元格合计（守恒校验：应等于 TotalCareHours）
func (a *ResidentAnalysis) MatrixTotal() float64 {
	total := 0.0
	for d := 0; d < DaysPerWeek; d++ {
		for s := 0; s < SlotsPerDay; s++ {
			total += a.Matrix[d][s]
		}
	}
	return total
}

// ShiftStaffing 单个班次类型的人力需求
type ShiftStaffing struct {
	ShiftType             ShiftSlot `json:"shift_type"`
	TotalCareHours        float64   `json:"total_care_hours"`
	BaseStaffRequired     int       `json:"base_staff_required"`
	AcuityAdjustment      int       `json:"acuity_adjustment"`
	TotalStaffRecommended int       `json:"total_staff_recommended"`
	ResidentCount         int       `json:"resident_count"`
	HighAcuityCount       int       `json:"high_acuity_count"`
	MediumAcuityCount     int       `json:"medium_acuity_count"`
	LowAcuityCount        int       `json:"low_acuity_count"`
}

// SkillMix 设施级推荐人数的技能结构（角色 → 人数）
type SkillMix map[StaffRole]int

// ShiftScheduleStatus 单个班次的排班状态
type ShiftScheduleStatus string

const (
	StatusNoTemplate ShiftScheduleStatus = "no_template"
	StatusOptimized  ShiftScheduleStatus = "optimized"
)

// AssignedStaff 一条排班分配及其理由
type AssignedStaff struct {
	StaffID          string    `json:"staff_id"`
	Name             string    `json:"name"`
	Role             StaffRole `json:"role"`
	AssignmentReason string    `json:"assignment_reason"`
}

// ShiftSchedule 某天某班次的排班结果
type ShiftSchedule struct {
	Status             ShiftScheduleStatus `json:"status"`
	TemplateName       string              `json:"template_name,omitempty"`
	RequiredStaff      int                 `json:"required_staff"`
	AssignedStaff      []AssignedStaff     `json:"assigned_staff"`
	CoveragePercentage float64             `json:"coverage_percentage"`
}

// DaySchedule 一天的排班（三个班次）
type DaySchedule struct {
	Date    string                        `json:"date"` // "2006-01-02"
	DayName string                        `json:"day_name"`
	Shifts  map[ShiftSlot]*ShiftSchedule  `json:"shifts"`
}

// ScheduleConflict 检测到的排班冲突（同人同日多班）
type ScheduleConflict struct {
	Type       string   `json:"type"`
	StaffID    string   `json:"staff_id"`
	Date       string   `json:"date"`
	ShiftTypes []string `json:"shift_types"`
	Resolution string   `json:"resolution"`
}

// StaffUtilization 员工使用情况汇总
type StaffUtilization struct {
	TotalStaff        int                `json:"total_staff"`
	AssignedStaff     int                `json:"assigned_staff"`
	UtilizationRate   float64            `json:"utilization_rate"`
	RoleBreakdown     map[StaffRole]int  `json:"role_breakdown"`
	HoursDistribution map[string]float64 `json:"hours_distribution"` // staff_id → 小时
}

// WeekSchedule 一周排班结果（每次请求新建，由调用方决定是否落库）
type WeekSchedule struct {
	RunID           string             `json:"run_id"`
	FacilityID      string             `json:"facility_id"`
	WeekDates       []string           `json:"week_dates"` // 周一起的 7 天
	Days            []DaySchedule      `json:"days"`
	ConfidenceScore int                `json:"confidence_score"`
	Reasoning       string             `json:"reasoning"`
	Utilization     StaffUtilization   `json:"staff_utilization"`
	Conflicts       []ScheduleConflict `json:"conflict_resolution"`
}

// ShiftRecommendation 单班次推荐（基于模板与人力需求）
type ShiftRecommendation struct {
	ShiftType            ShiftSlot `json:"shift_type"`
	TemplateID           string    `json:"template_id"`
	TemplateName         string    `json:"template_name"`
	RecommendedStartTime string    `json:"recommended_start_time"`
	RecommendedEndTime   string    `json:"recommended_end_time"`
	StaffRequired        int       `json:"staff_required"`
	CareHours            float64   `json:"care_hours"`
	ResidentCount        int       `json:"resident_count"`
	HighAcuityCount      int       `json:"high_acuity_count"`
	ConfidenceScore      float64   `json:"confidence_score"` // [0.6, 1.0]
	Reasoning            string    `json:"reasoning"`
}

// WeeklyRecommendation 按天 × 班次的周度人力推荐
type WeeklyRecommendation struct {
	Day             DayOfWeek `json:"day"`
	ShiftType       ShiftSlot `json:"shift_type"`
	CareHours       float64   `json:"care_hours"`
	StaffRequired   int       `json:"staff_required"`
	ResidentCount   int       `json:"resident_count"`
	ConfidenceScore int       `json:"confidence_score"` // [60, 100]
	Reasoning       string    `json:"reasoning"`
}

// TemplateRecommendation 排班模板建议（带标准班次时间）
type TemplateRecommendation struct {
	Day              DayOfWeek `json:"day"`
	ShiftType        ShiftSlot `json:"shift_type"`
	StartTime        string    `json:"start_time"`
	EndTime          string    `json:"end_time"`
	DurationHours    float64   `json:"duration_hours"`
	StaffNeeded      int       `json:"staff_needed"`
	CareHoursCovered float64   `json:"care_hours_covered"`
	ResidentCount    int       `json:"resident_count"`
	ConfidenceScore  int       `json:"confidence_score"`
	Reasoning        string    `json:"reasoning"`
}

// CarePattern 跨住户的护理模式（洞察用）
type CarePattern struct {
	PatternType      string  `json:"pattern_type"`
	ResidentCount    int     `json:"resident_count"`
	AverageCareHours float64 `json:"average_care_hours"`
	Description      string  `json:"description"`
}

// FacilityInsights 设施级综合洞察
type FacilityInsights struct {
	FacilityID             string                `json:"facility_id"`
	TotalResidents         int                   `json:"total_residents"`
	TotalCareHours         float64               `json:"total_care_hours"`
	AverageAcuityScore     float64               `json:"average_acuity_score"`
	IntensityDistribution  map[CareIntensity]int `json:"care_intensity_distribution"`
	CarePatterns           []CarePattern         `json:"care_patterns"`
	StaffingEfficiency     float64               `json:"staffing_efficiency_score"`
	GeneralRecommendations []string              `json:"recommendations"`
}
