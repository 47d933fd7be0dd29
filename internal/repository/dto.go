package repository

import "time"

type NewDriveLogDTO struct {
	Username    string    `json:"username"`
	DateOfDrive time.Time `json:"date_of_drive"`
	VehicleNo   string    `json:"vehicle_no_mid"`
	VehicleType string    `json:"vehicle_type"`
	InitialKM   float64   `json:"initial_km"`
	FinalKM     float64   `json:"final_km"`
}

type NewWorkoutDTO struct {
	Username      string    `json:"username"`
	DateOfWorkout time.Time `json:"date_of_workout"`
	Exercise      string    `json:"exercise"`
	WeightKG      float64   `json:"weight_kg"`
	Reps          int       `json:"reps"`
}
