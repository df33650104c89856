package domain

import (
	"fmt"
	"strings"
)

// DayOfWeek 周内天（周排班固定从周一开始）
type DayOfWeek int

const (
	Monday DayOfWeek = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday

	DaysPerWeek = 7
)

func (d DayOfWeek) String() string {
	switch d {
	case Monday:
		return "Monday"
	case Tuesday:
		return "Tuesday"
	case Wednesday:
		return "Wednesday"
	case Thursday:
		return "Thursday"
	case Friday:
		return "Friday"
	case Saturday:
		return "Saturday"
	case Sunday:
		return "Sunday"
	default:
		return fmt.Sprintf("DayOfWeek(%d)", int(d))
	}
}

// MarshalText 序列化为英文天名
func (d DayOfWeek) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText 从英文天名反序列化
func (d *DayOfWeek) UnmarshalText(text []byte) error {
	for _, day := range AllDays() {
		if day.String() == string(text) {
			*d = day
			return nil
		}
	}
	return fmt.Errorf("unknown day of week %q", string(text))
}

// ShiftSlot 班次时段（8 小时一班：day/swing/noc）
type ShiftSlot int

const (
	ShiftDay ShiftSlot = iota
	ShiftSwing
	ShiftNoc

	SlotsPerDay = 3
)

func (s ShiftSlot) String() string {
	switch s {
	case ShiftDay:
		return "day"
	case ShiftSwing:
		return "swing"
	case ShiftNoc:
		return "noc"
	default:
		return fmt.Sprintf("ShiftSlot(%d)", int(s))
	}
}

// MarshalText 序列化为班次类型名（JSON 对象键也走这里）
func (s ShiftSlot) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText 从班次类型名反序列化
func (s *ShiftSlot) UnmarshalText(text []byte) error {
	slot, ok := ParseShiftSlot(string(text))
	if !ok {
		return fmt.Errorf("unknown shift slot %q", string(text))
	}
	*s = slot
	return nil
}

// ParseShiftSlot 解析班次类型字符串（"day"/"swing"/"noc"）
func ParseShiftSlot(s string) (ShiftSlot, bool) {
	switch strings.ToLower(s) {
	case "day":
		return ShiftDay, true
	case "swing":
		return ShiftSwing, true
	case "noc":
		return ShiftNoc, true
	default:
		return 0, false
	}
}

// AllShiftSlots 按排班处理顺序返回班次（Day → Swing → NOC，顺序不可变，
// 同日防重复分配依赖该顺序）
func AllShiftSlots() [SlotsPerDay]ShiftSlot {
	return [SlotsPerDay]ShiftSlot{ShiftDay, ShiftSwing, ShiftNoc}
}

// AllDays 按周一到周日的顺序返回天
func AllDays() [DaysPerWeek]DayOfWeek {
	return [DaysPerWeek]DayOfWeek{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}
}

// SlotKey 天 × 班次 的强类型键
type SlotKey struct {
	Day  DayOfWeek
	Slot ShiftSlot
}

// SlotMinutes 以 (天, 班次) 为键的护理分钟数。缺失的键视为 0 分钟。
type SlotMinutes map[SlotKey]int

// Total 所有时段分钟数合计
func (m SlotMinutes) Total() int {
	total := 0
	for _, v := range m {
		total += v
	}
	return total
}

// 旧系统（JSONB 字段）使用形如 "MonShift1Time"、"TuesShift2Time" 的字符串键。
// 解码规则与旧系统保持一致：按子串匹配天缩写和 ShiftN 编号。
// 匹配顺序固定，保证解析结果可复现。
var dayAbbrevs = []struct {
	abbrev string
	day    DayOfWeek
}{
	{"Mon", Monday},
	{"Tues", Tuesday},
	{"Wed", Wednesday},
	{"Thurs", Thursday},
	{"Fri", Friday},
	{"Sat", Saturday},
	{"Sun", Sunday},
}

var slotAbbrevs = []struct {
	abbrev string
	slot   ShiftSlot
}{
	{"Shift1", ShiftDay},
	{"Shift2", ShiftSwing},
	{"Shift3", ShiftNoc},
}

// ParseSlotKey 解析单个旧格式键。天和班次必须同时识别成功。
func ParseSlotKey(key string) (SlotKey, bool) {
	var (
		day    DayOfWeek
		slot   ShiftSlot
		dayOK  bool
		slotOK bool
	)
	for _, d := range dayAbbrevs {
		if strings.Contains(key, d.abbrev) {
			day = d.day
			dayOK = true
			break
		}
	}
	for _, s := range slotAbbrevs {
		if strings.Contains(key, s.abbrev) {
			slot = s.slot
			slotOK = true
			break
		}
	}
	if !dayOK || !slotOK {
		return SlotKey{}, false
	}
	return SlotKey{Day: day, Slot: slot}, true
}

// ParseSlotTimes 在边界处把旧格式键值表解码为强类型 SlotMinutes。
// 无法解码的键作为数据质量问题返回（不中断解析），非正分钟数的键跳过。
// 核心逻辑只消费 SlotMinutes，不再二次解析字符串键。
func ParseSlotTimes(raw map[string]int) (SlotMinutes, []string) {
	if len(raw) == 0 {
		return SlotMinutes{}, nil
	}

	slots := make(SlotMinutes, len(raw))
	var badKeys []string

	for key, minutes := range raw {
		if minutes <= 0 {
			continue
		}
		sk, ok := ParseSlotKey(key)
		if !ok {
			badKeys = append(badKeys, key)
			continue
		}
		slots[sk] += minutes
	}

	return slots, badKeys
}
