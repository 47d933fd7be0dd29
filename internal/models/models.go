package models

import (
	"database/sql"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User is an account that can log in and submit records
type User struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// PasswordMatches checks a plaintext password against the stored hash
func (u *User) PasswordMatches(plainText string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(plainText))
	if err != nil {
		if err == bcrypt.ErrMismatchedHashAndPassword {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// HashPassword hashes a plaintext password for storage
func HashPassword(plainText string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plainText), 12)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// DriveLog is one logged drive taken from the vehicle logbook
type DriveLog struct {
	ID          int       `json:"id"`
	Username    string    `json:"username"`
	DateOfDrive time.Time `json:"date_of_drive"`
	VehicleNo   string    `json:"vehicle_no_mid"`
	VehicleType string    `json:"vehicle_type"`
	InitialKM   float64   `json:"initial_km"`
	FinalKM     float64   `json:"final_km"`
	DistanceKM  float64   `json:"distance_km"`
	CreatedAt   time.Time `json:"created_at"`
}

// Qualification records that a person is qualified on a vehicle platform
type Qualification struct {
	VehicleType string    `json:"vehicle_type"`
	QualifiedOn time.Time `json:"qualified_on"`
}

// RosterEntry is one person on the unit nominal roll
type RosterEntry struct {
	Username       string          `json:"username"`
	Name           string          `json:"name"`
	Rank           string          `json:"rank"`
	Platoon        string          `json:"platoon"`
	SubUnit        string          `json:"sub_unit"`
	Role           string          `json:"role"`
	Qualifications []Qualification `json:"qualifications"`
}

// WorkoutLog is one logged strength training set
type WorkoutLog struct {
	ID            int       `json:"id"`
	Username      string    `json:"username"`
	DateOfWorkout time.Time `json:"date_of_workout"`
	Exercise      string    `json:"exercise"`
	WeightKG      float64   `json:"weight_kg"`
	Reps          int       `json:"reps"`
	CreatedAt     time.Time `json:"created_at"`
}

// SafetyMedia is an uploaded safety resource stored in object storage
type SafetyMedia struct {
	ID          int            `json:"id"`
	Title       string         `json:"title"`
	ObjectKey   string         `json:"object_key"`
	ContentType string         `json:"content_type"`
	SizeBytes   int64          `json:"size_bytes"`
	UploadedBy  string         `json:"uploaded_by"`
	Description sql.NullString `json:"description,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}
