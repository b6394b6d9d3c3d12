// Package store persists applications, their document metadata, positions and
// audit rows in PostgreSQL.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"recruitment-portal/internal/common/logger"
	"recruitment-portal/internal/models"
)

var (
	ErrDuplicateApplication = errors.New("application already exists for citizen id")
	ErrNotFound             = errors.New("record not found")
	ErrInvalidTransition    = errors.New("status transition not allowed")
)

const uniqueViolation = "23505"

type Store struct {
	db  *sql.DB
	log logger.Logger
}

func New(db *sql.DB, log logger.Logger) *Store {
	return &Store{
		db:  db,
		log: log.WithFields(map[string]interface{}{"component": "store"}),
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

const applicationColumns = `id, position_id, citizen_id, full_name, birth_date, address, phone, email,
	education_level, institution, major, gpa, graduation_date, current_occupation, work_place,
	skills, disability_type, signature, status, exam_number, reject_reason, consent_at, created_at`

// InsertApplication writes a new pending application. A unique violation on
// citizen_id is reported as ErrDuplicateApplication.
func (s *Store) InsertApplication(ctx context.Context, app *models.Application) error {
	if app.Status == "" {
		app.Status = models.StatusPending
	}

	var gpa sql.NullFloat64
	if app.GPA != nil {
		gpa = sql.NullFloat64{Float64: *app.GPA, Valid: true}
	}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO applications (
			id, position_id, citizen_id, full_name, birth_date, address, phone, email,
			education_level, institution, major, gpa, graduation_date, current_occupation,
			work_place, skills, disability_type, signature, status, consent_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		RETURNING created_at`,
		app.ID, app.PositionID, app.CitizenID, app.FullName, app.BirthDate, app.Address,
		app.Phone, nullString(app.Email), app.EducationLevel, app.Institution, nullString(app.Major),
		gpa, nullString(app.GraduationDate), nullString(app.CurrentOccupation), nullString(app.WorkPlace),
		nullString(app.Skills), nullString(app.DisabilityType), nullString(app.SignatureImage),
		string(app.Status), app.ConsentAt,
	).Scan(&app.CreatedAt)
	if err != nil {
		if IsUniqueViolation(err) {
			return ErrDuplicateApplication
		}
		return fmt.Errorf("insert application: %w", err)
	}
	return nil
}

func (s *Store) GetApplication(ctx context.Context, id string) (*models.Application, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+applicationColumns+` FROM applications WHERE id = $1`, id)
	app, err := scanApplication(row)
	if err != nil {
		return nil, fmt.Errorf("get application %s: %w", id, err)
	}
	return app, nil
}

// LatestByCitizenID returns the most recent application filed under a citizen id.
func (s *Store) LatestByCitizenID(ctx context.Context, citizenID string) (*models.Application, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+applicationColumns+`
		FROM applications WHERE citizen_id = $1 ORDER BY created_at DESC LIMIT 1`, citizenID)
	app, err := scanApplication(row)
	if err != nil {
		return nil, fmt.Errorf("lookup by citizen id: %w", err)
	}
	return app, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanApplication(row rowScanner) (*models.Application, error) {
	var (
		app                                                   models.Application
		email, major, gradDate, occupation, workPlace, skills sql.NullString
		disability, signature, examNumber, rejectReason       sql.NullString
		gpa                                                   sql.NullFloat64
		status                                                string
	)
	err := row.Scan(
		&app.ID, &app.PositionID, &app.CitizenID, &app.FullName, &app.BirthDate, &app.Address,
		&app.Phone, &email, &app.EducationLevel, &app.Institution, &major, &gpa, &gradDate,
		&occupation, &workPlace, &skills, &disability, &signature, &status, &examNumber,
		&rejectReason, &app.ConsentAt, &app.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	app.Email = email.String
	app.Major = major.String
	app.GraduationDate = gradDate.String
	app.CurrentOccupation = occupation.String
	app.WorkPlace = workPlace.String
	app.Skills = skills.String
	app.DisabilityType = disability.String
	app.SignatureImage = signature.String
	app.Status = models.ApplicationStatus(status)
	app.ExamNumber = examNumber.String
	app.RejectReason = rejectReason.String
	if gpa.Valid {
		v := gpa.Float64
		app.GPA = &v
	}
	return &app, nil
}

// IsUniqueViolation reports whether err carries PostgreSQL error 23505.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
