package engine

import (
	"math"

	"carewise-staffing/internal/domain"
)

// AcuityScore 计算住户的 acuity 分数（0-10）与护理强度分级。
// 三个分量加权：护理小时（0.4）、任务复杂度（0.3）、护理频率（0.3）。
// 数据不足时返回中性默认值（5.0 / medium），不报错。
func (e *Engine) AcuityScore(records []domain.CareRecord, totalCareHours float64) (float64, domain.CareIntensity) {
	p := e.params

	if len(records) == 0 {
		return p.NeutralAcuity, e.Intensity(p.NeutralAcuity)
	}

	// 小时分：按一个完整班次日（8 小时）归一化
	hoursScore := math.Min(totalCareHours/p.AcuityHoursNorm, 10.0)

	// 复杂度分：去重的 ADL 任务种类越多，护理越复杂
	distinct := make(map[string]struct{}, len(records))
	for _, r := range records {
		distinct[r.Task] = struct{}{}
	}
	complexityScore := math.Min(float64(len(distinct))/p.AcuityTaskNorm, 5.0)

	// 频率分：单条记录的平均小时数
	sumHours := 0.0
	for _, r := range records {
		sumHours += r.TotalHours
	}
	meanHours := sumHours / float64(len(records))
	frequencyScore := math.Min(meanHours/p.AcuityFreqNorm, 5.0)

	score := hoursScore*p.AcuityHoursWeight +
		complexityScore*p.AcuityTaskWeight +
		frequencyScore*p.AcuityFreqWeight
	score = math.Min(score, 10.0)

	return score, e.Intensity(score)
}

// Intensity acuity 分数到护理强度分级的映射。
// 边界：score ≤ 3 → low；3 < score ≤ 6 → medium；score > 6 → high。
func (e *Engine) Intensity(score float64) domain.CareIntensity {
	switch {
	case score <= e.params.IntensityLowMax:
		return domain.IntensityLow
	case score <= e.params.IntensityMediumMax:
		return domain.IntensityMedium
	default:
		return domain.IntensityHigh
	}
}
