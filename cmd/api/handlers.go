package main

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"mileage-service/common/jwt"
	"mileage-service/common/logger"
	commonMiddleware "mileage-service/common/middleware"
	"mileage-service/common/request"
	"mileage-service/common/response"
	"mileage-service/internal/currency"
	"mileage-service/internal/models"
	"mileage-service/internal/repository"

	"github.com/google/uuid"
)

type AuthRequest struct {
	Username string `json:"username" validate:"required,min=3"`
	Password string `json:"password" validate:"required,min=6"`
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Password string `json:"password" validate:"required,min=6"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

type AuthResponse struct {
	User   models.User    `json:"user"`
	Tokens *jwt.TokenPair `json:"tokens"`
}

func (app *Config) Authenticate(w http.ResponseWriter, r *http.Request) {
	var requestPayload AuthRequest

	err := request.ReadAndValidate(w, r, &requestPayload)
	if request.HandleError(w, err) {
		return
	}

	reqLogger := commonMiddleware.GetRequestLogger(r.Context())

	user, err := app.Repo.GetUserByUsername(requestPayload.Username)
	if err != nil {
		reqLogger.Warn("Failed authentication attempt",
			"username", requestPayload.Username,
			"error", err,
		)
		app.logAuditEventAsync(r, "USER_LOGIN", requestPayload.Username, "failure", AuditMetadata{
			IP:        getClientIP(r),
			UserAgent: r.UserAgent(),
			Username:  requestPayload.Username,
			Action:    "Login attempt",
			Reason:    "User not found",
		})
		response.Unauthorized(w, "Invalid credentials")
		return
	}

	valid, err := user.PasswordMatches(requestPayload.Password)
	if err != nil || !valid {
		reqLogger.Warn("Invalid password",
			"username", requestPayload.Username,
			"user_id", user.ID,
		)
		app.logAuditEventAsync(r, "USER_LOGIN", strconv.Itoa(user.ID), "failure", AuditMetadata{
			IP:        getClientIP(r),
			UserAgent: r.UserAgent(),
			Username:  requestPayload.Username,
			Action:    "Login attempt",
			Reason:    "Invalid password",
		})
		response.Unauthorized(w, "Invalid credentials")
		return
	}

	tokens, err := jwt.GenerateTokenPair(
		user.ID,
		user.Username,
		user.Role,
		app.JWTSecret,
		app.JWTExpiry,
		app.RefreshExpiry,
	)
	if err != nil {
		reqLogger.Error("Failed to generate tokens",
			"username", user.Username,
			"user_id", user.ID,
			"error", err,
		)
		response.InternalServerError(w, "Failed to generate authentication tokens")
		return
	}

	reqLogger.Info("User authenticated successfully",
		"username", user.Username,
		"user_id", user.ID,
	)

	app.logAuditEventAsync(r, "USER_LOGIN", strconv.Itoa(user.ID), "success", AuditMetadata{
		IP:        getClientIP(r),
		UserAgent: r.UserAgent(),
		Username:  user.Username,
		Action:    "User logged in successfully",
	})

	response.Success(w, "Authentication successful", AuthResponse{
		User:   user,
		Tokens: tokens,
	})
}

// Register handles new user registration
func (app *Config) Register(w http.ResponseWriter, r *http.Request) {
	var requestPayload RegisterRequest

	err := request.ReadAndValidate(w, r, &requestPayload)
	if request.HandleError(w, err) {
		return
	}

	if _, err := app.Repo.GetUserByUsername(requestPayload.Username); err == nil {
		response.Conflict(w, "User with this username already exists")
		return
	}

	hash, err := models.HashPassword(requestPayload.Password)
	if err != nil {
		response.InternalServerError(w, "Failed to create user account")
		return
	}

	user, err := app.Repo.CreateUser(requestPayload.Username, hash, models.RoleUser)
	if err != nil {
		logger.Error("Failed to create user",
			"username", requestPayload.Username,
			"error", err,
		)
		response.InternalServerError(w, "Failed to create user account")
		return
	}

	logger.Info("New user registered",
		"username", user.Username,
		"user_id", user.ID,
	)

	app.logAuditEventAsync(r, "USER_REGISTRATION", strconv.Itoa(user.ID), "success", AuditMetadata{
		IP:        getClientIP(r),
		UserAgent: r.UserAgent(),
		Username:  user.Username,
		Action:    "New user registered",
	})

	response.Created(w, "Registration successful", user)
}

// RefreshToken handles refresh token requests
func (app *Config) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token" validate:"required"`
	}

	err := request.ReadAndValidate(w, r, &req)
	if request.HandleError(w, err) {
		return
	}

	claims, err := jwt.ValidateToken(req.RefreshToken, app.JWTSecret)
	if err != nil {
		if errors.Is(err, jwt.ErrExpiredToken) {
			response.Unauthorized(w, "Refresh token has expired")
			return
		}
		response.Unauthorized(w, "Invalid refresh token")
		return
	}

	// Refresh tokens carry no role claim, so the role comes from the user
	// record. This also picks up role changes made since the last login.
	user, err := app.Repo.GetUserByUsername(claims.Username)
	if err != nil {
		response.Unauthorized(w, "Invalid refresh token")
		return
	}

	tokens, err := jwt.GenerateTokenPair(
		user.ID,
		user.Username,
		user.Role,
		app.JWTSecret,
		app.JWTExpiry,
		app.RefreshExpiry,
	)
	if err != nil {
		response.InternalServerError(w, "Failed to generate tokens")
		return
	}

	response.Success(w, "Token refreshed successfully", tokens)
}

// ValidateToken validates a JWT token (for other services to call)
func (app *Config) ValidateToken(w http.ResponseWriter, r *http.Request) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		response.Unauthorized(w, "Missing authorization header")
		return
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		response.Unauthorized(w, "Invalid authorization header format")
		return
	}

	claims, err := jwt.ValidateToken(parts[1], app.JWTSecret)
	if err != nil {
		if errors.Is(err, jwt.ErrExpiredToken) {
			response.Unauthorized(w, "Token has expired")
			return
		}
		response.Unauthorized(w, "Invalid token")
		return
	}

	response.Success(w, "Token is valid", claims)
}

// ChangePassword updates the caller's password after verifying the old one
func (app *Config) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims, err := commonMiddleware.GetClaims(r.Context())
	if err != nil {
		response.Unauthorized(w, "Missing credentials")
		return
	}

	var requestPayload ChangePasswordRequest
	err = request.ReadAndValidate(w, r, &requestPayload)
	if request.HandleError(w, err) {
		return
	}

	user, err := app.Repo.GetUserByUsername(claims.Username)
	if err != nil {
		response.Unauthorized(w, "Invalid credentials")
		return
	}

	valid, err := user.PasswordMatches(requestPayload.OldPassword)
	if err != nil || !valid {
		logger.Warn("Invalid old password during password change",
			"username", user.Username,
		)
		response.Unauthorized(w, "Invalid old password")
		return
	}

	hash, err := models.HashPassword(requestPayload.NewPassword)
	if err != nil {
		response.InternalServerError(w, "Failed to change password")
		return
	}

	if err := app.Repo.UpdatePassword(user.ID, hash); err != nil {
		logger.Error("Failed to change password",
			"username", user.Username,
			"error", err,
		)
		response.InternalServerError(w, "Failed to change password")
		return
	}

	app.logAuditEventAsync(r, "PASSWORD_CHANGE", strconv.Itoa(user.ID), "success", AuditMetadata{
		IP:        getClientIP(r),
		UserAgent: r.UserAgent(),
		Username:  user.Username,
		Action:    "Password changed successfully",
	})

	response.Success(w, "Password changed successfully", nil)
}

type LogDriveRequest struct {
	DateOfDrive string  `json:"date_of_drive" validate:"required"`
	VehicleNo   string  `json:"vehicle_no_mid" validate:"required"`
	VehicleType string  `json:"vehicle_type" validate:"required,oneof=Terrex Belrex"`
	InitialKM   float64 `json:"initial_km" validate:"gte=0"`
	FinalKM     float64 `json:"final_km" validate:"gt=0"`
}

// LogDrive records one drive for the authenticated user
func (app *Config) LogDrive(w http.ResponseWriter, r *http.Request) {
	claims, err := commonMiddleware.GetClaims(r.Context())
	if err != nil {
		response.Unauthorized(w, "Missing credentials")
		return
	}

	var requestPayload LogDriveRequest
	err = request.ReadAndValidate(w, r, &requestPayload)
	if request.HandleError(w, err) {
		return
	}

	date, err := time.Parse("2006-01-02", requestPayload.DateOfDrive)
	if err != nil {
		response.BadRequest(w, "date_of_drive must be in YYYY-MM-DD format")
		return
	}

	log, err := app.LogDriveForUser(r.Context(), repository.NewDriveLogDTO{
		Username:    claims.Username,
		DateOfDrive: date,
		VehicleNo:   requestPayload.VehicleNo,
		VehicleType: requestPayload.VehicleType,
		InitialKM:   requestPayload.InitialKM,
		FinalKM:     requestPayload.FinalKM,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidMileage), errors.Is(err, ErrDriveTooLong),
			errors.Is(err, currency.ErrInvalidVehicleType):
			response.BadRequest(w, err.Error())
		case errors.Is(err, ErrNotQualified):
			response.Forbidden(w, err.Error())
		default:
			logger.Error("Failed to log drive", "username", claims.Username, "error", err)
			response.InternalServerError(w, "Failed to log drive")
		}
		return
	}

	app.logAuditEventAsync(r, "DRIVE_LOGGED", claims.Username, "success", AuditMetadata{
		IP:        getClientIP(r),
		UserAgent: r.UserAgent(),
		Username:  claims.Username,
		Action:    "Drive logged",
		Extra: map[string]interface{}{
			"vehicle_no":   log.VehicleNo,
			"vehicle_type": log.VehicleType,
			"distance_km":  log.DistanceKM,
		},
	})

	response.Created(w, "Drive logged successfully", log)
}

// ListDriveLogs returns the authenticated user's drive history
func (app *Config) ListDriveLogs(w http.ResponseWriter, r *http.Request) {
	claims, err := commonMiddleware.GetClaims(r.Context())
	if err != nil {
		response.Unauthorized(w, "Missing credentials")
		return
	}

	logs, err := app.Repo.GetDriveLogsByUser(claims.Username)
	if err != nil {
		response.InternalServerError(w, "Failed to fetch drive logs")
		return
	}

	response.Success(w, "Drive logs retrieved", logs)
}

// CurrencyStatus returns the caller's currency status for one vehicle type
func (app *Config) CurrencyStatus(w http.ResponseWriter, r *http.Request) {
	claims, err := commonMiddleware.GetClaims(r.Context())
	if err != nil {
		response.Unauthorized(w, "Missing credentials")
		return
	}

	vt := currency.VehicleType(r.URL.Query().Get("vehicle_type"))
	if !vt.Valid() {
		response.BadRequest(w, "vehicle_type must be Terrex or Belrex")
		return
	}

	status, err := app.StatusForUser(r.Context(), claims.Username, vt)
	if err != nil {
		logger.Error("Failed to compute currency status",
			"username", claims.Username,
			"error", err,
		)
		response.InternalServerError(w, "Failed to compute currency status")
		return
	}

	response.Success(w, "Currency status computed", status)
}

// TeamSummary returns the roster-wide currency dashboard
func (app *Config) TeamSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := app.TeamSummaryForRoster(r.Context())
	if err != nil {
		logger.Error("Failed to compute team summary", "error", err)
		response.InternalServerError(w, "Failed to compute team summary")
		return
	}

	response.Success(w, "Team summary computed", summary)
}

type LogWorkoutRequest struct {
	DateOfWorkout string  `json:"date_of_workout" validate:"required"`
	Exercise      string  `json:"exercise" validate:"required,min=2,max=64"`
	WeightKG      float64 `json:"weight_kg" validate:"gt=0"`
	Reps          int     `json:"reps" validate:"gte=1,lte=100"`
}

// LogWorkout records one strength training set for the authenticated user
func (app *Config) LogWorkout(w http.ResponseWriter, r *http.Request) {
	claims, err := commonMiddleware.GetClaims(r.Context())
	if err != nil {
		response.Unauthorized(w, "Missing credentials")
		return
	}

	var requestPayload LogWorkoutRequest
	err = request.ReadAndValidate(w, r, &requestPayload)
	if request.HandleError(w, err) {
		return
	}

	date, err := time.Parse("2006-01-02", requestPayload.DateOfWorkout)
	if err != nil {
		response.BadRequest(w, "date_of_workout must be in YYYY-MM-DD format")
		return
	}

	log, err := app.Repo.InsertWorkoutLog(repository.NewWorkoutDTO{
		Username:      claims.Username,
		DateOfWorkout: date,
		Exercise:      strings.ToLower(strings.TrimSpace(requestPayload.Exercise)),
		WeightKG:      requestPayload.WeightKG,
		Reps:          requestPayload.Reps,
	})
	if err != nil {
		response.InternalServerError(w, "Failed to log workout")
		return
	}

	response.Created(w, "Workout logged successfully", log)
}

// FitnessSummary returns the caller's session count and per-exercise bests
func (app *Config) FitnessSummary(w http.ResponseWriter, r *http.Request) {
	claims, err := commonMiddleware.GetClaims(r.Context())
	if err != nil {
		response.Unauthorized(w, "Missing credentials")
		return
	}

	summary, err := app.FitnessSummaryForUser(r.Context(), claims.Username)
	if err != nil {
		response.InternalServerError(w, "Failed to compute fitness summary")
		return
	}

	response.Success(w, "Fitness summary computed", summary)
}

type RosterUpsertRequest struct {
	Username       string   `json:"username" validate:"required,min=3,max=64"`
	Name           string   `json:"name" validate:"required"`
	Rank           string   `json:"rank" validate:"required"`
	Platoon        string   `json:"platoon" validate:"required"`
	SubUnit        string   `json:"sub_unit"`
	Role           string   `json:"role" validate:"omitempty,oneof=driver commander"`
	Qualifications []string `json:"qualifications" validate:"dive,oneof=Terrex Belrex"`
}

// UpsertRoster creates or replaces one roster entry
func (app *Config) UpsertRoster(w http.ResponseWriter, r *http.Request) {
	var requestPayload RosterUpsertRequest
	err := request.ReadAndValidate(w, r, &requestPayload)
	if request.HandleError(w, err) {
		return
	}

	entry := models.RosterEntry{
		Username: requestPayload.Username,
		Name:     requestPayload.Name,
		Rank:     requestPayload.Rank,
		Platoon:  requestPayload.Platoon,
		SubUnit:  requestPayload.SubUnit,
		Role:     requestPayload.Role,
	}
	for _, vt := range requestPayload.Qualifications {
		entry.Qualifications = append(entry.Qualifications, models.Qualification{
			VehicleType: vt,
			QualifiedOn: time.Now(),
		})
	}

	if err := app.Repo.UpsertRosterEntry(entry); err != nil {
		logger.Error("Failed to upsert roster entry",
			"username", requestPayload.Username,
			"error", err,
		)
		response.InternalServerError(w, "Failed to update roster")
		return
	}

	response.Success(w, "Roster entry updated", entry)
}

// GetRoster returns the full nominal roll with qualifications
func (app *Config) GetRoster(w http.ResponseWriter, r *http.Request) {
	roster, err := app.Repo.GetRoster()
	if err != nil {
		response.InternalServerError(w, "Failed to fetch roster")
		return
	}

	response.Success(w, "Roster retrieved", roster)
}

const maxUploadBytes = 32 << 20 // 32MB

// UploadSafetyMedia stores a safety resource in object storage and records it
func (app *Config) UploadSafetyMedia(w http.ResponseWriter, r *http.Request) {
	claims, err := commonMiddleware.GetClaims(r.Context())
	if err != nil {
		response.Unauthorized(w, "Missing credentials")
		return
	}

	if app.Media == nil {
		response.InternalServerError(w, "Media storage is not configured")
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		response.BadRequest(w, "Invalid multipart upload")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		response.BadRequest(w, "Missing file field")
		return
	}
	defer file.Close()

	title := r.FormValue("title")
	if title == "" {
		title = header.Filename
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	objectKey := uuid.New().String() + "-" + header.Filename
	if err := app.Media.Upload(r.Context(), objectKey, file, header.Size, contentType); err != nil {
		logger.Error("Failed to upload safety media", "error", err)
		response.InternalServerError(w, "Failed to upload media")
		return
	}

	media := models.SafetyMedia{
		Title:       title,
		ObjectKey:   objectKey,
		ContentType: contentType,
		SizeBytes:   header.Size,
		UploadedBy:  claims.Username,
	}
	if desc := r.FormValue("description"); desc != "" {
		media.Description = sql.NullString{String: desc, Valid: true}
	}

	saved, err := app.Repo.InsertSafetyMedia(media)
	if err != nil {
		logger.Error("Failed to record safety media", "error", err)
		response.InternalServerError(w, "Failed to record media")
		return
	}

	app.logAuditEventAsync(r, "SAFETY_MEDIA_UPLOAD", claims.Username, "success", AuditMetadata{
		IP:        getClientIP(r),
		UserAgent: r.UserAgent(),
		Username:  claims.Username,
		Action:    "Safety media uploaded",
		Extra:     map[string]interface{}{"object_key": objectKey},
	})

	response.Created(w, "Media uploaded successfully", saved)
}

// ListSafetyMedia returns the stored safety resources with download links
func (app *Config) ListSafetyMedia(w http.ResponseWriter, r *http.Request) {
	items, err := app.Repo.ListSafetyMedia()
	if err != nil {
		response.InternalServerError(w, "Failed to fetch media")
		return
	}

	type mediaWithURL struct {
		models.SafetyMedia
		URL string `json:"url,omitempty"`
	}

	out := make([]mediaWithURL, 0, len(items))
	for _, item := range items {
		entry := mediaWithURL{SafetyMedia: item}
		if app.Media != nil {
			if u, err := app.Media.PresignedURL(r.Context(), item.ObjectKey, time.Hour); err == nil {
				entry.URL = u
			}
		}
		out = append(out, entry)
	}

	response.Success(w, "Media retrieved", out)
}

type SafetyChatRequest struct {
	Question string `json:"question" validate:"required,max=500"`
}

// SafetyChat answers a free-text safety question from the knowledge base
func (app *Config) SafetyChat(w http.ResponseWriter, r *http.Request) {
	var requestPayload SafetyChatRequest
	err := request.ReadAndValidate(w, r, &requestPayload)
	if request.HandleError(w, err) {
		return
	}

	reply := app.Bot.Ask(requestPayload.Question)
	response.Success(w, "Answer found", reply)
}

// getClientIP extracts the real client IP from request headers
func getClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		if idx := strings.Index(forwarded, ","); idx != -1 {
			return strings.TrimSpace(forwarded[:idx])
		}
		return strings.TrimSpace(forwarded)
	}

	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}

	if idx := strings.LastIndex(r.RemoteAddr, ":"); idx != -1 {
		return r.RemoteAddr[:idx]
	}
	return r.RemoteAddr
}

// logAuditEventAsync sends structured audit events to RabbitMQ without
// blocking the request handler
func (app *Config) logAuditEventAsync(r *http.Request, eventName, actorID, status string, metadata AuditMetadata) {
	if app.RabbitConn == nil {
		logger.Warn("RabbitMQ not available, skipping audit log", "event", eventName)
		return
	}

	go func() {
		var err error
		if app.RabbitSession != nil {
			err = PublishAuditEventWithSession(app.RabbitSession, app.RabbitConn, eventName, actorID, status, metadata)
		} else {
			err = PublishAuditEvent(app.RabbitConn, eventName, actorID, status, metadata)
		}

		if err != nil {
			logger.Error("Failed to publish audit event to RabbitMQ",
				"event", eventName,
				"actor", actorID,
				"status", status,
				"error", err,
			)
		}
	}()
}
