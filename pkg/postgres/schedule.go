package postgres

import (
	"context"
	"fmt"

	"github.com/jakechorley/camp-scheduler/pkg/core/model"
)

// Fetch reads the full schedule dataset: both programs' assignments
// plus the staff roster with availability windows
func (db *DB) Fetch(ctx context.Context) (*model.ScheduleData, error) {
	staff, err := db.getStaff(ctx)
	if err != nil {
		return nil, err
	}

	data := &model.ScheduleData{Staff: staff}
	for _, p := range model.Programs() {
		assignments, err := db.getAssignments(ctx, p)
		if err != nil {
			return nil, err
		}
		switch p {
		case model.ProgramElementary:
			data.Elementary = assignments
		case model.ProgramMiddle:
			data.Middle = assignments
		}
	}
	return data, nil
}

// Persist replaces both assignment collections in one transaction.
// Staff is read-only from the scheduler's perspective and is never
// written here.
func (db *DB) Persist(ctx context.Context, data *model.ScheduleData) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM assignment`); err != nil {
		return fmt.Errorf("failed to clear assignments: %w", err)
	}

	insert := func(p model.Program, assignments []model.Assignment) error {
		for _, a := range assignments {
			_, err := tx.Exec(ctx, `
				INSERT INTO assignment (id, program, date, start_time, end_time, staff_id)
				VALUES ($1, $2, $3, $4, $5, $6)
			`, a.ID, string(p), a.Date, a.StartTime, a.EndTime, a.StaffID)
			if err != nil {
				return fmt.Errorf("failed to insert assignment: %w", err)
			}
		}
		return nil
	}

	if err := insert(model.ProgramElementary, data.Elementary); err != nil {
		return err
	}
	if err := insert(model.ProgramMiddle, data.Middle); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (db *DB) getAssignments(ctx context.Context, p model.Program) ([]model.Assignment, error) {
	rows, err := db.pool.Query(ctx, `
		SELECT id, date, start_time, end_time, staff_id
		FROM assignment
		WHERE program = $1
		ORDER BY date, start_time
	`, string(p))
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments: %w", err)
	}
	defer rows.Close()

	var assignments []model.Assignment
	for rows.Next() {
		var a model.Assignment
		if err := rows.Scan(&a.ID, &a.Date, &a.StartTime, &a.EndTime, &a.StaffID); err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		assignments = append(assignments, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating assignments: %w", err)
	}

	return assignments, nil
}

func (db *DB) getStaff(ctx context.Context) ([]model.Staff, error) {
	rows, err := db.pool.Query(ctx, `
		SELECT id, name, role, qualifications, max_hours, notes
		FROM staff
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query staff: %w", err)
	}
	defer rows.Close()

	var staff []model.Staff
	for rows.Next() {
		var s model.Staff
		if err := rows.Scan(&s.ID, &s.Name, &s.Role, &s.Qualifications, &s.MaxHours, &s.Notes); err != nil {
			return nil, fmt.Errorf("failed to scan staff: %w", err)
		}
		staff = append(staff, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating staff: %w", err)
	}

	for i := range staff {
		windows, err := db.getAvailability(ctx, staff[i].ID)
		if err != nil {
			return nil, err
		}
		staff[i].Availability = windows
	}

	return staff, nil
}

func (db *DB) getAvailability(ctx context.Context, staffID string) ([]model.AvailabilityWindow, error) {
	rows, err := db.pool.Query(ctx, `
		SELECT day, start_time, end_time
		FROM staff_availability
		WHERE staff_id = $1
	`, staffID)
	if err != nil {
		return nil, fmt.Errorf("failed to query availability: %w", err)
	}
	defer rows.Close()

	var windows []model.AvailabilityWindow
	for rows.Next() {
		var w model.AvailabilityWindow
		if err := rows.Scan(&w.Day, &w.StartTime, &w.EndTime); err != nil {
			return nil, fmt.Errorf("failed to scan availability: %w", err)
		}
		windows = append(windows, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating availability: %w", err)
	}

	return windows, nil
}
