package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/classroom-api/internal/dto"
	"github.com/noah-isme/classroom-api/internal/models"
	appErrors "github.com/noah-isme/classroom-api/pkg/errors"
	"github.com/noah-isme/classroom-api/pkg/mention"
	"github.com/noah-isme/classroom-api/pkg/middleware/requestid"
)

// Operation names used for metrics and logs.
const (
	OpRegister      = "register"
	OpCommon        = "common_students"
	OpSuspend       = "suspend"
	OpNotifications = "retrieve_for_notifications"
)

type teacherRepository interface {
	FindOrCreate(ctx context.Context, email string) (*models.Teacher, bool, error)
	FindByEmail(ctx context.Context, email string) (*models.Teacher, error)
	FindByEmails(ctx context.Context, emails []string) ([]models.Teacher, error)
}

type studentRepository interface {
	FindOrCreate(ctx context.Context, email string) (*models.Student, bool, error)
	FindByEmail(ctx context.Context, email string) (*models.Student, error)
	FindActiveByEmails(ctx context.Context, emails []string) ([]models.Student, error)
	FindActiveByTeacher(ctx context.Context, teacherID string) ([]models.Student, error)
	FindRegisteredToAll(ctx context.Context, teacherIDs []string) ([]models.Student, error)
	Update(ctx context.Context, student *models.Student) error
}

type registrationRepository interface {
	FindOrCreate(ctx context.Context, teacherID, studentID string) (*models.Registration, bool, error)
}

type transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// ClassroomService registers students under teachers and answers the
// membership queries built on those registrations.
type ClassroomService struct {
	teachers      teacherRepository
	students      studentRepository
	registrations registrationRepository
	tx            transactor
	validator     *validator.Validate
	logger        *zap.Logger
	metrics       *MetricsService
}

// NewClassroomService constructs a ClassroomService. validate, logger and
// metrics may be nil.
func NewClassroomService(
	teachers teacherRepository,
	students studentRepository,
	registrations registrationRepository,
	tx transactor,
	validate *validator.Validate,
	logger *zap.Logger,
	metrics *MetricsService,
) *ClassroomService {
	if validate == nil {
		validate = dto.NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassroomService{
		teachers:      teachers,
		students:      students,
		registrations: registrations,
		tx:            tx,
		validator:     validate,
		logger:        logger,
		metrics:       metrics,
	}
}

// RegisterStudents links every student to the teacher, creating missing
// teachers and students on the way. The whole call is one transaction, so
// repeating it leaves the same state as running it once.
func (s *ClassroomService) RegisterStudents(ctx context.Context, teacherEmail string, studentEmails []string) error {
	teacherEmail = mention.Normalize(teacherEmail)
	studentEmails = mention.NormalizeAll(studentEmails)

	if err := s.validateEmail("teacher", teacherEmail); err != nil {
		s.metrics.RecordOperation(OpRegister, OutcomeInvalid)
		return err
	}
	if err := s.validateEmails("students", studentEmails); err != nil {
		s.metrics.RecordOperation(OpRegister, OutcomeInvalid)
		return err
	}

	var newTeachers, newStudents, newLinks int
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		newTeachers, newStudents, newLinks = 0, 0, 0

		teacher, created, err := s.teachers.FindOrCreate(ctx, teacherEmail)
		if err != nil {
			return err
		}
		if created {
			newTeachers++
		}

		// Students are inserted in request order. Two concurrent requests
		// creating the same new students in opposite order can deadlock on
		// the unique email index; Postgres aborts one (40P01) and it surfaces
		// as STORAGE_ERROR without retry.
		for _, email := range studentEmails {
			student, created, err := s.students.FindOrCreate(ctx, email)
			if err != nil {
				return err
			}
			if created {
				newStudents++
			}
			_, linked, err := s.registrations.FindOrCreate(ctx, teacher.ID, student.ID)
			if err != nil {
				return err
			}
			if linked {
				newLinks++
			}
		}
		return nil
	})
	if err != nil {
		s.metrics.RecordOperation(OpRegister, OutcomeError)
		s.log(ctx).Error("register students failed", zap.String("teacher", teacherEmail), zap.Error(err))
		return storageError(err, "failed to register students")
	}

	s.metrics.RecordOperation(OpRegister, OutcomeSuccess)
	s.metrics.RecordCreated("teacher", newTeachers)
	s.metrics.RecordCreated("student", newStudents)
	s.metrics.RecordCreated("registration", newLinks)
	s.log(ctx).Info("students registered",
		zap.String("teacher", teacherEmail),
		zap.Int("students", len(studentEmails)),
		zap.Int("new_students", newStudents),
		zap.Int("new_registrations", newLinks),
	)
	return nil
}

// CommonStudents returns, sorted, the students registered to every teacher in
// teacherEmails. All teachers must exist; the error lists each missing one.
func (s *ClassroomService) CommonStudents(ctx context.Context, teacherEmails []string) ([]string, error) {
	emails := uniqueStrings(mention.NormalizeAll(teacherEmails))
	if err := s.validateEmails("teacher", emails); err != nil {
		s.metrics.RecordOperation(OpCommon, OutcomeInvalid)
		return nil, err
	}

	teachers, err := s.teachers.FindByEmails(ctx, emails)
	if err != nil {
		s.metrics.RecordOperation(OpCommon, OutcomeError)
		return nil, storageError(err, "failed to load teachers")
	}

	found := make(map[string]string, len(teachers))
	for _, t := range teachers {
		found[t.Email] = t.ID
	}
	var missing []string
	ids := make([]string, 0, len(emails))
	for _, email := range emails {
		id, ok := found[email]
		if !ok {
			missing = append(missing, email)
			continue
		}
		ids = append(ids, id)
	}
	if len(missing) > 0 {
		s.metrics.RecordOperation(OpCommon, OutcomeNotFound)
		msg := fmt.Sprintf("teachers not found: %s", strings.Join(missing, ", "))
		return nil, appErrors.WithDetails(appErrors.Clone(appErrors.ErrNotFound, msg), missing...)
	}

	students, err := s.students.FindRegisteredToAll(ctx, ids)
	if err != nil {
		s.metrics.RecordOperation(OpCommon, OutcomeError)
		return nil, storageError(err, "failed to load common students")
	}

	result := models.StudentEmails(students)
	sort.Strings(result)
	s.metrics.RecordOperation(OpCommon, OutcomeSuccess)
	return result, nil
}

// SuspendStudent marks a student as suspended. Suspending twice is not an error.
func (s *ClassroomService) SuspendStudent(ctx context.Context, studentEmail string) error {
	email := mention.Normalize(studentEmail)
	if err := s.validateEmail("student", email); err != nil {
		s.metrics.RecordOperation(OpSuspend, OutcomeInvalid)
		return err
	}

	student, err := s.students.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.metrics.RecordOperation(OpSuspend, OutcomeNotFound)
			return appErrors.WithDetails(appErrors.Clone(appErrors.ErrNotFound, "student not found"), email)
		}
		s.metrics.RecordOperation(OpSuspend, OutcomeError)
		return storageError(err, "failed to load student")
	}

	if !student.Suspended {
		student.Suspended = true
		if err := s.students.Update(ctx, student); err != nil {
			s.metrics.RecordOperation(OpSuspend, OutcomeError)
			return storageError(err, "failed to suspend student")
		}
		s.log(ctx).Info("student suspended", zap.String("student", email))
	}

	s.metrics.RecordOperation(OpSuspend, OutcomeSuccess)
	return nil
}

// RetrieveForNotifications resolves who receives a teacher's notification:
// the teacher's active students plus every active student @mentioned in the
// text. An unknown teacher contributes no registered students and is not an
// error, unlike in CommonStudents.
func (s *ClassroomService) RetrieveForNotifications(ctx context.Context, teacherEmail, notification string) ([]string, error) {
	email := mention.Normalize(teacherEmail)
	if err := s.validateEmail("teacher", email); err != nil {
		s.metrics.RecordOperation(OpNotifications, OutcomeInvalid)
		return nil, err
	}

	recipients := make(map[string]struct{})

	teacher, err := s.teachers.FindByEmail(ctx, email)
	switch {
	case err == nil:
		registered, err := s.students.FindActiveByTeacher(ctx, teacher.ID)
		if err != nil {
			s.metrics.RecordOperation(OpNotifications, OutcomeError)
			return nil, storageError(err, "failed to load registered students")
		}
		for _, st := range registered {
			recipients[st.Email] = struct{}{}
		}
	case errors.Is(err, sql.ErrNoRows):
		s.log(ctx).Debug("notification from unknown teacher", zap.String("teacher", email))
	default:
		s.metrics.RecordOperation(OpNotifications, OutcomeError)
		return nil, storageError(err, "failed to load teacher")
	}

	mentions := uniqueStrings(mention.NormalizeAll(mention.Extract(notification)))
	if len(mentions) > 0 {
		mentioned, err := s.students.FindActiveByEmails(ctx, mentions)
		if err != nil {
			s.metrics.RecordOperation(OpNotifications, OutcomeError)
			return nil, storageError(err, "failed to load mentioned students")
		}
		for _, st := range mentioned {
			recipients[st.Email] = struct{}{}
		}
	}

	result := make([]string, 0, len(recipients))
	for r := range recipients {
		result = append(result, r)
	}
	sort.Strings(result)

	s.metrics.RecordOperation(OpNotifications, OutcomeSuccess)
	s.metrics.ObserveRecipients(len(result))
	return result, nil
}

func (s *ClassroomService) validateEmail(field, email string) error {
	if err := s.validator.Var(email, "required,"+dto.MailboxTag); err != nil {
		return appErrors.WithDetails(
			appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid %s email", field)),
			fmt.Sprintf("%s must be a valid email address", field),
		)
	}
	return nil
}

func (s *ClassroomService) validateEmails(field string, emails []string) error {
	if len(emails) == 0 {
		return appErrors.WithDetails(
			appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("at least one %s email is required", field)),
			fmt.Sprintf("%s must contain at least 1 item(s)", field),
		)
	}
	var details []string
	for i, email := range emails {
		if err := s.validator.Var(email, "required,"+dto.MailboxTag); err != nil {
			details = append(details, fmt.Sprintf("%s[%d] must be a valid email address", field, i))
		}
	}
	if len(details) > 0 {
		return appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid %s email", field)), details...)
	}
	return nil
}

func (s *ClassroomService) log(ctx context.Context) *zap.Logger {
	if id := requestid.FromContext(ctx); id != "" {
		return s.logger.With(zap.String("request_id", id))
	}
	return s.logger
}

func storageError(err error, message string) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return appErrors.Wrap(err, appErrors.ErrTimeout.Code, appErrors.ErrTimeout.Status, message)
	}
	return appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, message)
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}
	return result
}
