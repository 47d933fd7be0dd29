package main

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"mileage-service/common/logger"
	"mileage-service/internal/currency"
	"mileage-service/internal/models"
	"mileage-service/internal/repository"

	"go.uber.org/zap"
)

const maxDriveDistanceKM = 1000.0

var (
	ErrInvalidMileage = errors.New("final odometer reading must be greater than the initial reading")
	ErrDriveTooLong   = errors.New("logged distance exceeds the single-drive limit")
	ErrNotQualified   = errors.New("driver is not qualified on this vehicle platform")
)

// LogDriveForUser validates and persists one drive, then drops the user's
// cached statuses so the next status read reflects it.
func (app *Config) LogDriveForUser(ctx context.Context, dto repository.NewDriveLogDTO) (models.DriveLog, error) {
	vt := currency.VehicleType(dto.VehicleType)
	if !vt.Valid() {
		return models.DriveLog{}, currency.ErrInvalidVehicleType
	}

	distance := dto.FinalKM - dto.InitialKM
	if distance <= 0 {
		return models.DriveLog{}, ErrInvalidMileage
	}
	if distance > maxDriveDistanceKM {
		return models.DriveLog{}, ErrDriveTooLong
	}

	if err := app.checkQualification(dto.Username, vt); err != nil {
		return models.DriveLog{}, err
	}

	// Odometer continuity is advisory only, drives may be logged out of order
	if last, ok, err := app.Repo.GetLastOdometer(dto.VehicleNo); err == nil && ok && dto.InitialKM < last {
		logger.Warn("Odometer reading below last known value for vehicle",
			zap.String("vehicle_no", dto.VehicleNo),
			zap.Float64("initial_km", dto.InitialKM),
			zap.Float64("last_known_km", last),
		)
	}

	log, err := app.Repo.InsertDriveLog(dto, distance)
	if err != nil {
		return models.DriveLog{}, err
	}

	if app.StatusCache != nil {
		if err := app.StatusCache.InvalidateUser(ctx, dto.Username, time.Now()); err != nil {
			logger.Warn("Failed to invalidate status cache", zap.Error(err))
		}
	}

	return log, nil
}

func (app *Config) checkQualification(username string, vt currency.VehicleType) error {
	entry, err := app.Repo.GetRosterEntry(username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotQualified
		}
		return err
	}
	for _, q := range entry.Qualifications {
		if q.VehicleType == string(vt) {
			return nil
		}
	}
	return ErrNotQualified
}

// StatusForUser returns the user's currency status for one vehicle type,
// served from the day-bucketed cache when possible.
func (app *Config) StatusForUser(ctx context.Context, username string, vt currency.VehicleType) (currency.Status, error) {
	now := time.Now()

	if app.StatusCache != nil {
		if status, ok, err := app.StatusCache.Get(ctx, username, vt, now); err == nil && ok {
			return status, nil
		}
	}

	logs, err := app.Repo.GetDriveLogsByUser(username)
	if err != nil {
		return currency.Status{}, err
	}

	status, err := currency.ComputeCurrency(toDriveRecords(logs), vt, now)
	if err != nil {
		return currency.Status{}, err
	}
	status.Username = username

	if app.StatusCache != nil {
		if err := app.StatusCache.Set(ctx, status); err != nil {
			logger.Warn("Failed to cache currency status", zap.Error(err))
		}
	}

	return status, nil
}

// TeamSummaryForRoster computes one status per (person, qualified platform)
// across the whole roster and aggregates them.
func (app *Config) TeamSummaryForRoster(ctx context.Context) (currency.TeamSummary, error) {
	now := time.Now()

	roster, err := app.Repo.GetRoster()
	if err != nil {
		return currency.TeamSummary{}, err
	}

	allLogs, err := app.Repo.GetAllDriveLogs()
	if err != nil {
		return currency.TeamSummary{}, err
	}

	logsByUser := make(map[string][]currency.DriveRecord)
	for _, log := range allLogs {
		logsByUser[log.Username] = append(logsByUser[log.Username], toDriveRecord(log))
	}

	statuses := []currency.Status{}
	rosterInfo := make(map[string]currency.UnitInfo, len(roster))
	for _, entry := range roster {
		rosterInfo[entry.Username] = currency.UnitInfo{
			Name:    entry.Name,
			Rank:    entry.Rank,
			Platoon: entry.Platoon,
			SubUnit: entry.SubUnit,
		}

		for _, q := range entry.Qualifications {
			vt := currency.VehicleType(q.VehicleType)
			if !vt.Valid() {
				logger.Warn("Skipping unknown vehicle type on roster",
					zap.String("username", entry.Username),
					zap.String("vehicle_type", q.VehicleType),
				)
				continue
			}

			status, err := currency.ComputeCurrency(logsByUser[entry.Username], vt, now)
			if err != nil {
				return currency.TeamSummary{}, err
			}
			// A user with no logs yet still belongs to their roster row
			status.Username = entry.Username
			statuses = append(statuses, status)
		}
	}

	// Users with logs but no roster row are still counted, under empty
	// unit metadata, so the summary never hides anyone who drove.
	for username, records := range logsByUser {
		if _, ok := rosterInfo[username]; ok {
			continue
		}
		seen := make(map[currency.VehicleType]bool)
		for _, record := range records {
			if !record.VehicleType.Valid() || seen[record.VehicleType] {
				continue
			}
			seen[record.VehicleType] = true

			status, err := currency.ComputeCurrency(records, record.VehicleType, now)
			if err != nil {
				return currency.TeamSummary{}, err
			}
			status.Username = username
			statuses = append(statuses, status)
		}
	}

	return currency.SummarizeTeam(statuses, rosterInfo), nil
}

// FitnessSummaryForUser aggregates a user's workout history
func (app *Config) FitnessSummaryForUser(ctx context.Context, username string) (currency.FitnessSummary, error) {
	logs, err := app.Repo.GetWorkoutLogsByUser(username)
	if err != nil {
		return currency.FitnessSummary{}, err
	}

	records := make([]currency.WorkoutRecord, 0, len(logs))
	for _, log := range logs {
		records = append(records, currency.WorkoutRecord{
			Username: log.Username,
			Date:     log.DateOfWorkout,
			Exercise: log.Exercise,
			WeightKG: log.WeightKG,
			Reps:     log.Reps,
		})
	}

	return currency.ComputeFitnessSummary(records, time.Now())
}

func toDriveRecord(log models.DriveLog) currency.DriveRecord {
	return currency.DriveRecord{
		Username:    log.Username,
		Date:        log.DateOfDrive,
		VehicleNo:   log.VehicleNo,
		InitialKM:   log.InitialKM,
		FinalKM:     log.FinalKM,
		DistanceKM:  log.DistanceKM,
		VehicleType: currency.VehicleType(log.VehicleType),
		LoggedAt:    log.CreatedAt,
	}
}

func toDriveRecords(logs []models.DriveLog) []currency.DriveRecord {
	records := make([]currency.DriveRecord, 0, len(logs))
	for _, log := range logs {
		records = append(records, toDriveRecord(log))
	}
	return records
}
