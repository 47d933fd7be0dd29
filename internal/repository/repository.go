package repository

import (
	"context"
	"database/sql"

	"mileage-service/internal/models"
)

type DatabaseRepo interface {
	Connection() *sql.DB
	PingContext(ctx context.Context) error

	CreateUser(username, passwordHash, role string) (models.User, error)
	GetUserByUsername(username string) (models.User, error)
	UpdatePassword(userID int, passwordHash string) error

	InsertDriveLog(dto NewDriveLogDTO, distance float64) (models.DriveLog, error)
	GetDriveLogsByUser(username string) ([]models.DriveLog, error)
	GetAllDriveLogs() ([]models.DriveLog, error)
	GetLastOdometer(vehicleNo string) (float64, bool, error)

	GetRosterEntry(username string) (models.RosterEntry, error)
	GetRoster() ([]models.RosterEntry, error)
	UpsertRosterEntry(entry models.RosterEntry) error

	InsertWorkoutLog(dto NewWorkoutDTO) (models.WorkoutLog, error)
	GetWorkoutLogsByUser(username string) ([]models.WorkoutLog, error)

	InsertSafetyMedia(media models.SafetyMedia) (models.SafetyMedia, error)
	ListSafetyMedia() ([]models.SafetyMedia, error)
}
