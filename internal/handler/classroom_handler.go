package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/classroom-api/internal/dto"
	appErrors "github.com/noah-isme/classroom-api/pkg/errors"
	"github.com/noah-isme/classroom-api/pkg/mention"
	"github.com/noah-isme/classroom-api/pkg/response"
)

type classroomService interface {
	RegisterStudents(ctx context.Context, teacherEmail string, studentEmails []string) error
	CommonStudents(ctx context.Context, teacherEmails []string) ([]string, error)
	SuspendStudent(ctx context.Context, studentEmail string) error
	RetrieveForNotifications(ctx context.Context, teacherEmail, notification string) ([]string, error)
}

// ClassroomHandler exposes the teacher and student administration endpoints.
type ClassroomHandler struct {
	service   classroomService
	validator *validator.Validate
}

// NewClassroomHandler builds a new handler. validate may be nil.
func NewClassroomHandler(service classroomService, validate *validator.Validate) *ClassroomHandler {
	if validate == nil {
		validate = dto.NewValidator()
	}
	return &ClassroomHandler{service: service, validator: validate}
}

// Register godoc
// @Summary Register students to a teacher
// @Description Creates the teacher and students when missing. Registering an existing pair is a no-op.
// @Tags Classroom
// @Accept json
// @Param payload body dto.RegisterStudentsRequest true "Registration payload"
// @Success 204
// @Failure 400 {object} response.Envelope
// @Router /api/register [post]
func (h *ClassroomHandler) Register(c *gin.Context) {
	var req dto.RegisterStudentsRequest
	if !h.bindJSON(c, &req) {
		return
	}
	req.Teacher = mention.Normalize(req.Teacher)
	req.Students = mention.NormalizeAll(req.Students)
	if !h.validate(c, req) {
		return
	}

	if err := h.service.RegisterStudents(c.Request.Context(), req.Teacher, req.Students); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// CommonStudents godoc
// @Summary List students common to all given teachers
// @Description The list is wrapped in the data envelope; clients of the legacy API read a bare {"students": [...]} body.
// @Tags Classroom
// @Produce json
// @Param teacher query []string true "Teacher email, repeatable" collectionFormat(multi)
// @Success 200 {object} response.Envelope{data=dto.CommonStudentsResponse}
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /api/commonstudents [get]
func (h *ClassroomHandler) CommonStudents(c *gin.Context) {
	query := dto.CommonStudentsQuery{Teachers: mention.NormalizeAll(c.QueryArray("teacher"))}
	if !h.validate(c, query) {
		return
	}

	students, err := h.service.CommonStudents(c.Request.Context(), query.Teachers)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.CommonStudentsResponse{Students: students})
}

// Suspend godoc
// @Summary Suspend a student
// @Tags Classroom
// @Accept json
// @Param payload body dto.SuspendStudentRequest true "Student to suspend"
// @Success 204
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /api/suspend [post]
func (h *ClassroomHandler) Suspend(c *gin.Context) {
	var req dto.SuspendStudentRequest
	if !h.bindJSON(c, &req) {
		return
	}
	req.Student = mention.Normalize(req.Student)
	if !h.validate(c, req) {
		return
	}

	if err := h.service.SuspendStudent(c.Request.Context(), req.Student); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// RetrieveForNotifications godoc
// @Summary Resolve the recipients of a notification
// @Description Returns non-suspended students registered to the teacher plus non-suspended students @mentioned in the text.
// @Description The list is wrapped in the data envelope; clients of the legacy API read a bare {"recipients": [...]} body.
// @Tags Classroom
// @Accept json
// @Produce json
// @Param payload body dto.NotificationRequest true "Notification payload"
// @Success 200 {object} response.Envelope{data=dto.NotificationRecipientsResponse}
// @Failure 400 {object} response.Envelope
// @Router /api/retrievefornotifications [post]
func (h *ClassroomHandler) RetrieveForNotifications(c *gin.Context) {
	var req dto.NotificationRequest
	if !h.bindJSON(c, &req) {
		return
	}
	req.Teacher = mention.Normalize(req.Teacher)
	if !h.validate(c, req) {
		return
	}

	recipients, err := h.service.RetrieveForNotifications(c.Request.Context(), req.Teacher, req.Notification)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NotificationRecipientsResponse{Recipients: recipients})
}

func (h *ClassroomHandler) bindJSON(c *gin.Context, target interface{}) bool {
	if err := c.ShouldBindJSON(target); err != nil {
		response.Error(c, appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, "invalid request body"), err.Error()))
		return false
	}
	return true
}

func (h *ClassroomHandler) validate(c *gin.Context, payload interface{}) bool {
	if err := h.validator.Struct(payload); err != nil {
		response.Error(c, appErrors.WithDetails(appErrors.ErrValidation, dto.ValidationMessages(err)...))
		return false
	}
	return true
}
