package engine

// Params 推荐引擎的启发式参数。
// 这些常量是调参值，没有更深的推导依据；全部集中在这里，
// 便于测试覆盖和按设施微调（见 config.Engine 的环境变量覆盖）。
type Params struct {
	// HoursPerStaff 一名员工一个班次可承担的护理小时数。
	// 员工可同时照护多名住户，8 小时是记忆照护场景的经验值，不是 1:1 配比。
	HoursPerStaff float64

	// ShiftHours 单个班次的时长（小时），用于周工时预算与负载均衡计算
	ShiftHours float64

	// Acuity 评分归一化参数（0-10 分制）
	AcuityHoursNorm   float64 // 小时分：total / norm，封顶 10
	AcuityTaskNorm    float64 // 复杂度分：去重任务数 / norm，封顶 5
	AcuityFreqNorm    float64 // 频率分：平均单条小时 / norm，封顶 5
	AcuityHoursWeight float64
	AcuityTaskWeight  float64
	AcuityFreqWeight  float64
	NeutralAcuity     float64 // 计算失败时的中性默认分

	// 强度分级边界：score ≤ LowMax → low；≤ MediumMax → medium；否则 high
	IntensityLowMax    float64
	IntensityMediumMax float64

	// 技能结构占比（设施级推荐人数拆分）
	SkillMixCNA float64
	SkillMixLPN float64
	SkillMixRN  float64

	// 可用度评分（排班 scratch 的初始分与增减量）
	AvailabilityBase     float64
	AssignmentPenalty    float64 // 每条既有分配扣分
	PreferenceBonus      float64 // 声明过班次偏好
	MultiSkillBonus      float64 // 技能数 > 1
	AssignDecrement      float64 // 本次运行中每分配一班后的扣分
	PreferredShiftBonus  float64 // 候选班次在偏好列表中
	NocPenalty           float64 // NOC 班非偏好时扣分
	NocHighHoursBonus    float64 // NOC 班且周上限 > NocHighHoursMin
	NocHighHoursMin      int
	SwingExperienceBonus float64 // Swing 班且周上限 > ExperienceHoursMin
	DayShiftBonus        float64 // Day 班普遍受欢迎
	ExperienceHoursMin   int     // 周上限超过该值视为资深

	// 置信度
	ShiftConfidenceBase  float64 // 单班次置信度下限（0.6）
	ShiftResidentNorm    float64
	ShiftCareHoursNorm   float64
	ShiftFactorWeight    float64 // 每个因子最多加 0.2
	WeeklyConfidenceBase int     // 周度置信度下限（60）
	WeeklyResidentNorm   float64
	WeeklyFactorWeight   float64 // 每个因子最多加 20

	// 整周排班置信度的分量权重（各自封顶）
	CoverageWeight    float64 // 满覆盖班次占比 × 40
	UtilizationWeight float64 // 平均覆盖率 × 30
	BalanceWeight     float64 // 负载均衡 × 30

	// EfficiencyBuffer 人力效率计算的缓冲系数（休息、突发等预留 20%）
	EfficiencyBuffer float64
}

// DefaultParams 与原始调参值保持一致的默认参数
func DefaultParams() Params {
	return Params{
		HoursPerStaff: 8.0,
		ShiftHours:    8.0,

		AcuityHoursNorm:   8.0,
		AcuityTaskNorm:    5.0,
		AcuityFreqNorm:    2.0,
		AcuityHoursWeight: 0.4,
		AcuityTaskWeight:  0.3,
		AcuityFreqWeight:  0.3,
		NeutralAcuity:     5.0,

		IntensityLowMax:    3.0,
		IntensityMediumMax: 6.0,

		SkillMixCNA: 0.7,
		SkillMixLPN: 0.2,
		SkillMixRN:  0.1,

		AvailabilityBase:     100.0,
		AssignmentPenalty:    10.0,
		PreferenceBonus:      20.0,
		MultiSkillBonus:      15.0,
		AssignDecrement:      30.0,
		PreferredShiftBonus:  25.0,
		NocPenalty:           15.0,
		NocHighHoursBonus:    10.0,
		NocHighHoursMin:      35,
		SwingExperienceBonus: 5.0,
		DayShiftBonus:        5.0,
		ExperienceHoursMin:   30,

		ShiftConfidenceBase: 0.6,
		ShiftResidentNorm:   15.0,
		ShiftCareHoursNorm:  8.0,
		ShiftFactorWeight:   0.2,

		WeeklyConfidenceBase: 60,
		WeeklyResidentNorm:   20.0,
		WeeklyFactorWeight:   20.0,

		CoverageWeight:    40.0,
		UtilizationWeight: 30.0,
		BalanceWeight:     30.0,

		EfficiencyBuffer: 1.2,
	}
}
