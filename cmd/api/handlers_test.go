package main

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"mileage-service/common/jwt"
	"mileage-service/internal/models"
	"mileage-service/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubRepo backs handler and service tests without a database
type stubRepo struct {
	users  map[string]models.User
	roster []models.RosterEntry
	logs   []models.DriveLog
}

func (s *stubRepo) Connection() *sql.DB                   { return nil }
func (s *stubRepo) PingContext(ctx context.Context) error { return nil }

func (s *stubRepo) CreateUser(username, passwordHash, role string) (models.User, error) {
	return models.User{Username: username, Role: role}, nil
}

func (s *stubRepo) GetUserByUsername(username string) (models.User, error) {
	user, ok := s.users[username]
	if !ok {
		return models.User{}, sql.ErrNoRows
	}
	return user, nil
}

func (s *stubRepo) UpdatePassword(userID int, passwordHash string) error { return nil }

func (s *stubRepo) InsertDriveLog(dto repository.NewDriveLogDTO, distance float64) (models.DriveLog, error) {
	return models.DriveLog{}, nil
}

func (s *stubRepo) GetDriveLogsByUser(username string) ([]models.DriveLog, error) {
	var out []models.DriveLog
	for _, log := range s.logs {
		if log.Username == username {
			out = append(out, log)
		}
	}
	return out, nil
}

func (s *stubRepo) GetAllDriveLogs() ([]models.DriveLog, error) { return s.logs, nil }

func (s *stubRepo) GetLastOdometer(vehicleNo string) (float64, bool, error) {
	return 0, false, nil
}

func (s *stubRepo) GetRosterEntry(username string) (models.RosterEntry, error) {
	for _, entry := range s.roster {
		if entry.Username == username {
			return entry, nil
		}
	}
	return models.RosterEntry{}, sql.ErrNoRows
}

func (s *stubRepo) GetRoster() ([]models.RosterEntry, error) { return s.roster, nil }

func (s *stubRepo) UpsertRosterEntry(entry models.RosterEntry) error { return nil }

func (s *stubRepo) InsertWorkoutLog(dto repository.NewWorkoutDTO) (models.WorkoutLog, error) {
	return models.WorkoutLog{}, nil
}

func (s *stubRepo) GetWorkoutLogsByUser(username string) ([]models.WorkoutLog, error) {
	return nil, nil
}

func (s *stubRepo) InsertSafetyMedia(media models.SafetyMedia) (models.SafetyMedia, error) {
	return media, nil
}

func (s *stubRepo) ListSafetyMedia() ([]models.SafetyMedia, error) { return nil, nil }

func TestRefreshToken_KeepsCurrentRole(t *testing.T) {
	app := &Config{
		Repo: &stubRepo{users: map[string]models.User{
			"commander1": {ID: 7, Username: "commander1", Role: models.RoleAdmin},
		}},
		JWTSecret:     "test-secret",
		JWTExpiry:     time.Hour,
		RefreshExpiry: 24 * time.Hour,
	}

	pair, err := jwt.GenerateTokenPair(7, "commander1", models.RoleAdmin,
		app.JWTSecret, app.JWTExpiry, app.RefreshExpiry)
	require.NoError(t, err)

	body, err := json.Marshal(map[string]string{"refresh_token": pair.RefreshToken})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	app.RefreshToken(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Data jwt.TokenPair `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))

	claims, err := jwt.ValidateToken(resp.Data.AccessToken, app.JWTSecret)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, claims.Role)
}

func TestRefreshToken_UnknownUserRejected(t *testing.T) {
	app := &Config{
		Repo:          &stubRepo{users: map[string]models.User{}},
		JWTSecret:     "test-secret",
		JWTExpiry:     time.Hour,
		RefreshExpiry: 24 * time.Hour,
	}

	pair, err := jwt.GenerateTokenPair(9, "deleted1", models.RoleUser,
		app.JWTSecret, app.JWTExpiry, app.RefreshExpiry)
	require.NoError(t, err)

	body, err := json.Marshal(map[string]string{"refresh_token": pair.RefreshToken})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	app.RefreshToken(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestTeamSummaryForRoster_CountsLogOnlyUsers(t *testing.T) {
	now := time.Now().UTC()
	app := &Config{Repo: &stubRepo{
		roster: []models.RosterEntry{{
			Username: "trooper1",
			Name:     "Tan",
			Rank:     "CPL",
			Platoon:  "Platoon 1",
			Qualifications: []models.Qualification{
				{VehicleType: "Terrex", QualifiedOn: now.AddDate(-1, 0, 0)},
			},
		}},
		logs: []models.DriveLog{{
			Username:    "trooper2",
			DateOfDrive: now.AddDate(0, 0, -5),
			VehicleNo:   "12345 MID",
			VehicleType: "Terrex",
			InitialKM:   100,
			FinalKM:     103,
			DistanceKM:  3.0,
		}},
	}}

	summary, err := app.TeamSummaryForRoster(context.Background())
	require.NoError(t, err)

	// trooper1 has no drives, trooper2 has no roster row; both count.
	assert.Equal(t, 2, summary.Overall.Total)
	assert.Equal(t, 1, summary.Overall.Current)
	assert.Equal(t, 1, summary.Overall.NotCurrent)

	unrostered, ok := summary.ByPlatoon[""]
	require.True(t, ok, "log-only users should land under the empty platoon key")
	assert.Equal(t, 1, unrostered.Current)
}
