package repository

import (
	"context"
	"database/sql"
	"time"

	"mileage-service/internal/models"
)

const dbTimeout = time.Second * 3

type PostgresDBRepo struct {
	DB *sql.DB
}

func (m *PostgresDBRepo) Connection() *sql.DB {
	return m.DB
}

func (m *PostgresDBRepo) PingContext(ctx context.Context) error {
	return m.DB.PingContext(ctx)
}

func (m *PostgresDBRepo) CreateUser(username, passwordHash, role string) (models.User, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	query := `insert into users (username, password_hash, role, created_at, updated_at)
				values ($1, $2, $3, $4, $5)
				returning id, username, password_hash, role, created_at, updated_at`

	var user models.User
	err := m.DB.QueryRowContext(ctx, query,
		username,
		passwordHash,
		role,
		time.Now(),
		time.Now(),
	).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.Role,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return user, err
	}
	return user, nil
}

func (m *PostgresDBRepo) GetUserByUsername(username string) (models.User, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	query := `select id, username, password_hash, role, created_at, updated_at
				from users where username = $1`

	var user models.User
	err := m.DB.QueryRowContext(ctx, query, username).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.Role,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return user, err
	}
	return user, nil
}

func (m *PostgresDBRepo) UpdatePassword(userID int, passwordHash string) error {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	query := `update users set password_hash = $1, updated_at = $2 where id = $3`
	_, err := m.DB.ExecContext(ctx, query,
		passwordHash,
		time.Now(),
		userID,
	)
	return err
}

func (m *PostgresDBRepo) InsertDriveLog(dto NewDriveLogDTO, distance float64) (models.DriveLog, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	query := `insert into drive_logs (username, date_of_drive, vehicle_no, vehicle_type, initial_km, final_km,
				distance_km, created_at) values ($1, $2, $3, $4, $5, $6, $7, $8)
				returning id, username, date_of_drive, vehicle_no, vehicle_type, initial_km, final_km, distance_km, created_at`

	var log models.DriveLog
	err := m.DB.QueryRowContext(ctx, query,
		dto.Username,
		dto.DateOfDrive,
		dto.VehicleNo,
		dto.VehicleType,
		dto.InitialKM,
		dto.FinalKM,
		distance,
		time.Now(),
	).Scan(
		&log.ID,
		&log.Username,
		&log.DateOfDrive,
		&log.VehicleNo,
		&log.VehicleType,
		&log.InitialKM,
		&log.FinalKM,
		&log.DistanceKM,
		&log.CreatedAt,
	)
	if err != nil {
		return log, err
	}
	return log, nil
}

func (m *PostgresDBRepo) GetDriveLogsByUser(username string) ([]models.DriveLog, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	query := `select id, username, date_of_drive, vehicle_no, vehicle_type, initial_km, final_km, distance_km, created_at
				from drive_logs where username = $1 order by date_of_drive desc`

	rows, err := m.DB.QueryContext(ctx, query, username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := []models.DriveLog{}
	for rows.Next() {
		var log models.DriveLog
		if err = rows.Scan(
			&log.ID,
			&log.Username,
			&log.DateOfDrive,
			&log.VehicleNo,
			&log.VehicleType,
			&log.InitialKM,
			&log.FinalKM,
			&log.DistanceKM,
			&log.CreatedAt,
		); err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}
	return logs, rows.Err()
}

func (m *PostgresDBRepo) GetAllDriveLogs() ([]models.DriveLog, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	query := `select id, username, date_of_drive, vehicle_no, vehicle_type, initial_km, final_km, distance_km, created_at
				from drive_logs order by date_of_drive desc`

	rows, err := m.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := []models.DriveLog{}
	for rows.Next() {
		var log models.DriveLog
		if err = rows.Scan(
			&log.ID,
			&log.Username,
			&log.DateOfDrive,
			&log.VehicleNo,
			&log.VehicleType,
			&log.InitialKM,
			&log.FinalKM,
			&log.DistanceKM,
			&log.CreatedAt,
		); err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}
	return logs, rows.Err()
}

// GetLastOdometer returns the final odometer reading from the most recent
// drive logged against a vehicle. The second return is false when the vehicle
// has no logs yet.
func (m *PostgresDBRepo) GetLastOdometer(vehicleNo string) (float64, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	query := `select final_km from drive_logs where vehicle_no = $1
				order by date_of_drive desc, id desc limit 1`

	var finalKM float64
	err := m.DB.QueryRowContext(ctx, query, vehicleNo).Scan(&finalKM)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, false, nil
		}
		return 0, false, err
	}
	return finalKM, true, nil
}

func (m *PostgresDBRepo) GetRosterEntry(username string) (models.RosterEntry, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	query := `select username, name, rank, platoon, sub_unit, role from roster where username = $1`

	var entry models.RosterEntry
	err := m.DB.QueryRowContext(ctx, query, username).Scan(
		&entry.Username,
		&entry.Name,
		&entry.Rank,
		&entry.Platoon,
		&entry.SubUnit,
		&entry.Role,
	)
	if err != nil {
		return entry, err
	}

	entry.Qualifications, err = m.getQualifications(ctx, username)
	if err != nil {
		return entry, err
	}
	return entry, nil
}

func (m *PostgresDBRepo) GetRoster() ([]models.RosterEntry, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	query := `select username, name, rank, platoon, sub_unit, role from roster order by platoon, name`

	rows, err := m.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []models.RosterEntry{}
	for rows.Next() {
		var entry models.RosterEntry
		if err = rows.Scan(
			&entry.Username,
			&entry.Name,
			&entry.Rank,
			&entry.Platoon,
			&entry.SubUnit,
			&entry.Role,
		); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	for i := range entries {
		entries[i].Qualifications, err = m.getQualifications(ctx, entries[i].Username)
		if err != nil {
			return nil, err
		}
	}
	return entries, nil
}

func (m *PostgresDBRepo) getQualifications(ctx context.Context, username string) ([]models.Qualification, error) {
	query := `select vehicle_type, qualified_on from qualifications where username = $1 order by qualified_on`

	rows, err := m.DB.QueryContext(ctx, query, username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	quals := []models.Qualification{}
	for rows.Next() {
		var q models.Qualification
		if err = rows.Scan(&q.VehicleType, &q.QualifiedOn); err != nil {
			return nil, err
		}
		quals = append(quals, q)
	}
	return quals, rows.Err()
}

func (m *PostgresDBRepo) UpsertRosterEntry(entry models.RosterEntry) error {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	tx, err := m.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `insert into roster (username, name, rank, platoon, sub_unit, role)
				values ($1, $2, $3, $4, $5, $6)
				on conflict (username) do update set
					name = excluded.name,
					rank = excluded.rank,
					platoon = excluded.platoon,
					sub_unit = excluded.sub_unit,
					role = excluded.role`

	if _, err = tx.ExecContext(ctx, query,
		entry.Username,
		entry.Name,
		entry.Rank,
		entry.Platoon,
		entry.SubUnit,
		entry.Role,
	); err != nil {
		return err
	}

	if _, err = tx.ExecContext(ctx, `delete from qualifications where username = $1`, entry.Username); err != nil {
		return err
	}

	for _, q := range entry.Qualifications {
		if _, err = tx.ExecContext(ctx,
			`insert into qualifications (username, vehicle_type, qualified_on) values ($1, $2, $3)`,
			entry.Username, q.VehicleType, q.QualifiedOn,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (m *PostgresDBRepo) InsertWorkoutLog(dto NewWorkoutDTO) (models.WorkoutLog, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	query := `insert into workout_logs (username, date_of_workout, exercise, weight_kg, reps, created_at)
				values ($1, $2, $3, $4, $5, $6)
				returning id, username, date_of_workout, exercise, weight_kg, reps, created_at`

	var log models.WorkoutLog
	err := m.DB.QueryRowContext(ctx, query,
		dto.Username,
		dto.DateOfWorkout,
		dto.Exercise,
		dto.WeightKG,
		dto.Reps,
		time.Now(),
	).Scan(
		&log.ID,
		&log.Username,
		&log.DateOfWorkout,
		&log.Exercise,
		&log.WeightKG,
		&log.Reps,
		&log.CreatedAt,
	)
	if err != nil {
		return log, err
	}
	return log, nil
}

func (m *PostgresDBRepo) GetWorkoutLogsByUser(username string) ([]models.WorkoutLog, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	query := `select id, username, date_of_workout, exercise, weight_kg, reps, created_at
				from workout_logs where username = $1 order by date_of_workout`

	rows, err := m.DB.QueryContext(ctx, query, username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := []models.WorkoutLog{}
	for rows.Next() {
		var log models.WorkoutLog
		if err = rows.Scan(
			&log.ID,
			&log.Username,
			&log.DateOfWorkout,
			&log.Exercise,
			&log.WeightKG,
			&log.Reps,
			&log.CreatedAt,
		); err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}
	return logs, rows.Err()
}

func (m *PostgresDBRepo) InsertSafetyMedia(media models.SafetyMedia) (models.SafetyMedia, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	query := `insert into safety_media (title, object_key, content_type, size_bytes, uploaded_by, description, created_at)
				values ($1, $2, $3, $4, $5, $6, $7)
				returning id, created_at`

	err := m.DB.QueryRowContext(ctx, query,
		media.Title,
		media.ObjectKey,
		media.ContentType,
		media.SizeBytes,
		media.UploadedBy,
		media.Description,
		time.Now(),
	).Scan(&media.ID, &media.CreatedAt)
	if err != nil {
		return media, err
	}
	return media, nil
}

func (m *PostgresDBRepo) ListSafetyMedia() ([]models.SafetyMedia, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	query := `select id, title, object_key, content_type, size_bytes, uploaded_by, description, created_at
				from safety_media order by created_at desc`

	rows, err := m.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.SafetyMedia{}
	for rows.Next() {
		var media models.SafetyMedia
		if err = rows.Scan(
			&media.ID,
			&media.Title,
			&media.ObjectKey,
			&media.ContentType,
			&media.SizeBytes,
			&media.UploadedBy,
			&media.Description,
			&media.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, media)
	}
	return items, rows.Err()
}
