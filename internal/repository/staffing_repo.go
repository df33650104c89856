package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"carewise-staffing/internal/domain"

	"go.uber.org/zap"
)

// StaffingRepository 排班数据持久层
type StaffingRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewStaffingRepository creates a new staffing repository
func NewStaffingRepository(db *sql.DB, logger *zap.Logger) *StaffingRepository {
	return &StaffingRepository{
		db:     db,
		logger: logger,
	}
}

// LoadSnapshot 装载一次排班运行的完整输入快照。
// 各数据源独立查询；任何一个查询失败都会中止装载并返回错误。
func (r *StaffingRepository) LoadSnapshot(facilityID string) (*domain.Snapshot, error) {
	snap := &domain.Snapshot{FacilityID: facilityID}

	residents, shiftTotals, err := r.loadResidents(facilityID)
	if err != nil {
		return nil, fmt.Errorf("failed to load residents: %w", err)
	}
	snap.Residents = residents
	snap.ShiftTotals = shiftTotals

	snap.CareRecords, err = r.loadCareRecords(facilityID)
	if err != nil {
		return nil, fmt.Errorf("failed to load care records: %w", err)
	}

	snap.Staff, err = r.loadStaff(facilityID)
	if err != nil {
		return nil, fmt.Errorf("failed to load staff: %w", err)
	}

	snap.Templates, err = r.loadTemplates(facilityID)
	if err != nil {
		return nil, fmt.Errorf("failed to load shift templates: %w", err)
	}

	snap.Shifts, err = r.loadShifts(facilityID)
	if err != nil {
		return nil, fmt.Errorf("failed to load shifts: %w", err)
	}

	snap.Assignments, err = r.loadAssignments(facilityID)
	if err != nil {
		return nil, fmt.Errorf("failed to load staff assignments: %w", err)
	}

	r.logger.Info("Loaded staffing snapshot",
		zap.String("facility_id", facilityID),
		zap.Int("residents", len(snap.Residents)),
		zap.Int("care_records", len(snap.CareRecords)),
		zap.Int("staff", len(snap.Staff)),
		zap.Int("templates", len(snap.Templates)),
	)

	return snap, nil
}

// loadResidents 读取在住住户及其分时段累计表（total_shift_times JSONB）
func (r *StaffingRepository) loadResidents(facilityID string) ([]domain.Resident, []domain.ResidentShiftTotals, error) {
	query := `
		SELECT resident_id, name, status, section_id, total_shift_times
		FROM residents
		WHERE facility_id = $1
		  AND status = 'active'
		ORDER BY resident_id
	`

	rows, err := r.db.Query(query, facilityID)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var residents []domain.Resident
	var totals []domain.ResidentShiftTotals
	for rows.Next() {
		var resident domain.Resident
		var sectionID sql.NullString
		var rawTimes []byte
		if err := rows.Scan(&resident.ResidentID, &resident.Name, &resident.Status,
			&sectionID, &rawTimes); err != nil {
			return nil, nil, err
		}
		resident.SectionID = sectionID.String
		residents = append(residents, resident)

		slots, badKeys := r.decodeSlotTimes(rawTimes)
		if len(badKeys) > 0 {
			r.logger.Warn("Unrecognized shift time keys in resident record",
				zap.String("resident_id", resident.ResidentID),
				zap.Strings("keys", badKeys),
			)
		}
		if len(slots) > 0 {
			totals = append(totals, domain.ResidentShiftTotals{
				ResidentID: resident.ResidentID,
				Slots:      slots,
			})
		}
	}

	return residents, totals, rows.Err()
}

// loadCareRecords 读取未删除的 ADL 护理记录
func (r *StaffingRepository) loadCareRecords(facilityID string) ([]domain.CareRecord, error) {
	query := `
		SELECT a.resident_id, a.adl_task, a.minutes_per_occurrence,
		       a.frequency_per_day, a.total_hours_per_week, a.shift_times
		FROM adl_records a
		INNER JOIN residents res ON res.resident_id = a.resident_id
		WHERE res.facility_id = $1
		  AND a.deleted_at IS NULL
		ORDER BY a.resident_id, a.adl_task
	`

	rows, err := r.db.Query(query, facilityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.CareRecord
	for rows.Next() {
		var record domain.CareRecord
		var rawTimes []byte
		if err := rows.Scan(&record.ResidentID, &record.Task, &record.Minutes,
			&record.Frequency, &record.TotalHours, &rawTimes); err != nil {
			return nil, err
		}

		slots, badKeys := r.decodeSlotTimes(rawTimes)
		if len(badKeys) > 0 {
			r.logger.Warn("Unrecognized shift time keys in care record",
				zap.String("resident_id", record.ResidentID),
				zap.String("task", record.Task),
				zap.Strings("keys", badKeys),
			)
		}
		record.SlotMinutes = slots
		records = append(records, record)
	}

	return records, rows.Err()
}

// loadStaff 读取在职员工（技能与班次偏好为 JSONB 数组）
func (r *StaffingRepository) loadStaff(facilityID string) ([]domain.StaffMember, error) {
	query := `
		SELECT id, first_name, last_name, role, skills,
		       max_hours_per_week, preferred_shifts, status
		FROM staff
		WHERE facility_id = $1
		  AND status = 'active'
		ORDER BY id
	`

	rows, err := r.db.Query(query, facilityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []domain.StaffMember
	for rows.Next() {
		var member domain.StaffMember
		var role string
		var rawSkills, rawPreferred []byte
		if err := rows.Scan(&member.ID, &member.FirstName, &member.LastName, &role,
			&rawSkills, &member.MaxHoursPerWeek, &rawPreferred, &member.Status); err != nil {
			return nil, err
		}
		member.Role = domain.StaffRole(role)
		member.Skills = decodeStringArray(rawSkills)

		for _, s := range decodeStringArray(rawPreferred) {
			if slot, ok := domain.ParseShiftSlot(s); ok {
				member.PreferredShifts = append(member.PreferredShifts, slot)
			} else {
				r.logger.Warn("Unknown preferred shift type",
					zap.String("staff_id", member.ID),
					zap.String("shift_type", s),
				)
			}
		}

		members = append(members, member)
	}

	return members, rows.Err()
}

// loadTemplates 读取启用中的班次模板
func (r *StaffingRepository) loadTemplates(facilityID string) ([]domain.ShiftTemplate, error) {
	query := `
		SELECT id, name, shift_type, start_time, end_time,
		       duration_hours, required_staff_count, required_roles, is_active
		FROM shift_templates
		WHERE facility_id = $1
		  AND is_active = TRUE
		ORDER BY shift_type, id
	`

	rows, err := r.db.Query(query, facilityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var templates []domain.ShiftTemplate
	for rows.Next() {
		var template domain.ShiftTemplate
		var shiftType string
		var rawRoles []byte
		if err := rows.Scan(&template.ID, &template.Name, &shiftType,
			&template.StartTime, &template.EndTime, &template.DurationHours,
			&template.RequiredStaffCount, &rawRoles, &template.Active); err != nil {
			return nil, err
		}

		slot, ok := domain.ParseShiftSlot(shiftType)
		if !ok {
			r.logger.Warn("Skipping template with unknown shift type",
				zap.String("template_id", template.ID),
				zap.String("shift_type", shiftType),
			)
			continue
		}
		template.ShiftType = slot

		for _, roleStr := range decodeStringArray(rawRoles) {
			template.RequiredRoles = append(template.RequiredRoles, domain.StaffRole(roleStr))
		}

		templates = append(templates, template)
	}

	return templates, rows.Err()
}

// loadShifts 读取已持久化的班次实例
func (r *StaffingRepository) loadShifts(facilityID string) ([]domain.Shift, error) {
	query := `
		SELECT id, shift_date, template_id
		FROM shifts
		WHERE facility_id = $1
		ORDER BY shift_date, id
	`

	rows, err := r.db.Query(query, facilityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var shifts []domain.Shift
	for rows.Next() {
		var shift domain.Shift
		if err := rows.Scan(&shift.ID, &shift.Date, &shift.TemplateID); err != nil {
			return nil, err
		}
		shifts = append(shifts, shift)
	}

	return shifts, rows.Err()
}

// loadAssignments 读取已持久化的员工-班次分配
func (r *StaffingRepository) loadAssignments(facilityID string) ([]domain.StaffAssignment, error) {
	query := `
		SELECT sa.staff_id, sa.shift_id, sa.role
		FROM staff_assignments sa
		INNER JOIN shifts s ON s.id = sa.shift_id
		WHERE s.facility_id = $1
		ORDER BY sa.shift_id, sa.staff_id
	`

	rows, err := r.db.Query(query, facilityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assignments []domain.StaffAssignment
	for rows.Next() {
		var assignment domain.StaffAssignment
		var role string
		if err := rows.Scan(&assignment.StaffID, &assignment.ShiftID, &role); err != nil {
			return nil, err
		}
		assignment.Role = domain.StaffRole(role)
		assignments = append(assignments, assignment)
	}

	return assignments, rows.Err()
}

// ApplySchedule 把生成的周排班写回数据库。
// 每个排好的班次 upsert 一条 shift 记录并整体替换其分配；
// 整个写入在单个事务中完成，任一步失败即回滚。
func (r *StaffingRepository) ApplySchedule(snap *domain.Snapshot, week *domain.WeekSchedule) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	applied := 0
	for _, day := range week.Days {
		for _, slot := range domain.AllShiftSlots() {
			shift, ok := day.Shifts[slot]
			if !ok || shift.Status != domain.StatusOptimized || len(shift.AssignedStaff) == 0 {
				continue
			}
			template, found := snap.TemplateFor(slot)
			if !found {
				continue
			}

			var shiftID string
			err := tx.QueryRow(`
				INSERT INTO shifts (facility_id, shift_date, template_id)
				VALUES ($1, $2, $3)
				ON CONFLICT (facility_id, shift_date, template_id)
				DO UPDATE SET updated_at = NOW()
				RETURNING id
			`, week.FacilityID, day.Date, template.ID).Scan(&shiftID)
			if err != nil {
				return fmt.Errorf("failed to upsert shift %s/%s: %w", day.Date, slot, err)
			}

			// 整体替换该班次的分配
			if _, err := tx.Exec(`DELETE FROM staff_assignments WHERE shift_id = $1`, shiftID); err != nil {
				return fmt.Errorf("failed to clear assignments for shift %s: %w", shiftID, err)
			}
			for _, assigned := range shift.AssignedStaff {
				if _, err := tx.Exec(`
					INSERT INTO staff_assignments (shift_id, staff_id, role, assignment_reason)
					VALUES ($1, $2, $3, $4)
				`, shiftID, assigned.StaffID, string(assigned.Role), assigned.AssignmentReason); err != nil {
					return fmt.Errorf("failed to insert assignment for staff %s: %w", assigned.StaffID, err)
				}
			}
			applied++
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit schedule: %w", err)
	}

	r.logger.Info("Applied generated schedule",
		zap.String("facility_id", week.FacilityID),
		zap.String("run_id", week.RunID),
		zap.Int("shifts_applied", applied),
	)
	return nil
}

// decodeSlotTimes 解码 JSONB 分时段分钟表（旧格式字符串键）
func (r *StaffingRepository) decodeSlotTimes(raw []byte) (domain.SlotMinutes, []string) {
	if len(raw) == 0 {
		return nil, nil
	}

	// JSONB 数值按 float64 解码，分钟数取整
	var parsed map[string]float64
	if err := json.Unmarshal(raw, &parsed); err != nil {
		r.logger.Warn("Failed to decode shift times JSON", zap.Error(err))
		return nil, nil
	}

	minutes := make(map[string]int, len(parsed))
	for k, v := range parsed {
		minutes[k] = int(v)
	}
	slots, badKeys := domain.ParseSlotTimes(minutes)
	return slots, badKeys
}

// decodeStringArray 解码 JSONB 字符串数组；解码失败视为空
func decodeStringArray(raw []byte) []string {
	if len(raw) == 0 {
		return nil
	}
	var values []string
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil
	}
	return values
}
