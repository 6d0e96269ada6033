package service

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mmynk/tuitionbook/internal/billing"
	"github.com/mmynk/tuitionbook/internal/forms"
	"github.com/mmynk/tuitionbook/internal/ledger"
	"github.com/mmynk/tuitionbook/internal/middleware"
	"github.com/mmynk/tuitionbook/internal/models"
	"github.com/mmynk/tuitionbook/internal/storage"
)

// TuitionService serves the dashboard, classes, students and fees of the
// caller's tuition. Every query is scoped to the tuition in the token.
type TuitionService struct {
	store  storage.Store
	logger *slog.Logger
	now    func() time.Time
}

// NewTuitionService creates a new TuitionService with the given storage backend.
func NewTuitionService(store storage.Store, logger *slog.Logger) *TuitionService {
	return &TuitionService{store: store, logger: logger, now: time.Now}
}

// Routes mounts the endpoints on r, which must carry RequireAuth.
func (s *TuitionService) Routes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(models.RoleAdmin))

		r.Get("/dashboard", s.Dashboard)
		r.Get("/dashboard/monthly-collection", s.MonthlyCollection)
		r.Get("/generate-fees", s.GenerateFees)

		r.Get("/class/index", s.ListClasses)
		r.Post("/class/store", s.CreateClass)
		r.Put("/class/edit/{uuid}", s.UpdateClass)

		r.Get("/student/index", s.ListStudents)
		r.Get("/student/index/{id}", s.GetStudent)
		r.Post("/student/store", s.CreateStudent)
		r.Put("/student/update/{uuid}", s.UpdateStudent)
		r.Put("/student/change/class", s.ChangeClass)
		r.Put("/student/change/status", s.ChangeStatus)

		r.Post("/add-fees/{studentId}", s.AddFee)
		r.Put("/fee/update/{uuid}", s.UpdateFee)
	})
}

// Dashboard returns the headline numbers.
func (s *TuitionService) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tuitionID := middleware.GetTuitionID(ctx)

	students, err := s.store.ListStudents(ctx, tuitionID)
	if err != nil {
		storeFailure(w, "Students", err, "tuition_id", tuitionID)
		return
	}
	classes, err := s.store.ListClasses(ctx, tuitionID)
	if err != nil {
		storeFailure(w, "Classes", err, "tuition_id", tuitionID)
		return
	}
	fees, err := s.store.ListFees(ctx, tuitionID)
	if err != nil {
		storeFailure(w, "Fees", err, "tuition_id", tuitionID)
		return
	}

	success(w, "", billing.Dashboard(students, len(classes), fees, s.now()), nil)
}

// MonthlyCollection returns collected and pending totals per month.
func (s *TuitionService) MonthlyCollection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tuitionID := middleware.GetTuitionID(ctx)

	fees, err := s.store.ListFees(ctx, tuitionID)
	if err != nil {
		storeFailure(w, "Fees", err, "tuition_id", tuitionID)
		return
	}
	success(w, "", billing.MonthlyCollection(fees), nil)
}

// GenerateFees creates the missing fee records of the previous month, and of
// the current one unless exceptThisMonth=true.
func (s *TuitionService) GenerateFees(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tuitionID := middleware.GetTuitionID(ctx)
	exceptThisMonth, _ := strconv.ParseBool(r.URL.Query().Get("exceptThisMonth"))
	months := billing.MonthsToGenerate(s.now(), exceptThisMonth)
	s.logger.Info("GenerateFees request received", "tuition_id", tuitionID, "months", months)

	students, err := s.store.ListStudents(ctx, tuitionID)
	if err != nil {
		storeFailure(w, "Students", err, "tuition_id", tuitionID)
		return
	}
	existing, err := s.store.ListFees(ctx, tuitionID)
	if err != nil {
		storeFailure(w, "Fees", err, "tuition_id", tuitionID)
		return
	}

	created, err := s.store.CreateFees(ctx, tuitionID, billing.MissingFees(students, existing, months))
	if err != nil {
		storeFailure(w, "Fees", err, "tuition_id", tuitionID)
		return
	}

	s.logger.Info("GenerateFees successful", "tuition_id", tuitionID, "created", len(created))
	if len(created) == 0 {
		success(w, "Fees are already up to date", created, nil)
		return
	}
	success(w, fmt.Sprintf("Generated %d fee records for %s", len(created), strings.Join(months, ", ")), created, nil)
}

// ListClasses returns the tuition's classes.
func (s *TuitionService) ListClasses(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tuitionID := middleware.GetTuitionID(ctx)

	classes, err := s.store.ListClasses(ctx, tuitionID)
	if err != nil {
		storeFailure(w, "Classes", err, "tuition_id", tuitionID)
		return
	}
	success(w, "", classes, nil)
}

// CreateClass adds a class.
func (s *TuitionService) CreateClass(w http.ResponseWriter, r *http.Request) {
	var req forms.Class
	if !decode(w, r, &req) {
		return
	}
	ctx := r.Context()
	tuitionID := middleware.GetTuitionID(ctx)

	class := classFromForm(req)
	if err := s.store.CreateClass(ctx, tuitionID, class); err != nil {
		storeFailure(w, "Class", err, "tuition_id", tuitionID)
		return
	}

	s.logger.Info("Class created", "tuition_id", tuitionID, "class", class.UUID)
	success(w, "Class added successfully", class, nil)
}

// UpdateClass edits a class by uuid.
func (s *TuitionService) UpdateClass(w http.ResponseWriter, r *http.Request) {
	var req forms.Class
	if !decode(w, r, &req) {
		return
	}
	ctx := r.Context()
	tuitionID := middleware.GetTuitionID(ctx)

	class := classFromForm(req)
	class.UUID = chi.URLParam(r, "uuid")
	if err := s.store.UpdateClass(ctx, tuitionID, class); err != nil {
		storeFailure(w, "Class", err, "tuition_id", tuitionID, "class", class.UUID)
		return
	}

	updated, err := s.store.GetClass(ctx, tuitionID, class.UUID)
	if err != nil {
		storeFailure(w, "Class", err, "tuition_id", tuitionID, "class", class.UUID)
		return
	}
	success(w, "Class updated successfully", updated, nil)
}

// ListStudents returns every student without fee records.
func (s *TuitionService) ListStudents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tuitionID := middleware.GetTuitionID(ctx)

	students, err := s.store.ListStudents(ctx, tuitionID)
	if err != nil {
		storeFailure(w, "Students", err, "tuition_id", tuitionID)
		return
	}
	success(w, "", students, nil)
}

// GetStudent returns one student, by id or uuid, with fee records.
func (s *TuitionService) GetStudent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tuitionID := middleware.GetTuitionID(ctx)
	key := chi.URLParam(r, "id")

	student, err := s.store.GetStudent(ctx, tuitionID, key)
	if err != nil {
		storeFailure(w, "Student", err, "tuition_id", tuitionID, "student", key)
		return
	}
	success(w, "", student, nil)
}

// CreateStudent enrolls a student.
func (s *TuitionService) CreateStudent(w http.ResponseWriter, r *http.Request) {
	var req forms.Student
	if !decode(w, r, &req) {
		return
	}
	ctx := r.Context()
	tuitionID := middleware.GetTuitionID(ctx)

	student := studentFromForm(req)
	if err := s.store.CreateStudent(ctx, tuitionID, student); err != nil {
		storeFailure(w, "Class", err, "tuition_id", tuitionID)
		return
	}

	s.logger.Info("Student created", "tuition_id", tuitionID, "student", student.UUID)
	success(w, "Student added successfully", student, nil)
}

// UpdateStudent edits a student by uuid.
func (s *TuitionService) UpdateStudent(w http.ResponseWriter, r *http.Request) {
	var req forms.Student
	if !decode(w, r, &req) {
		return
	}
	ctx := r.Context()
	tuitionID := middleware.GetTuitionID(ctx)

	student := studentFromForm(req)
	student.UUID = chi.URLParam(r, "uuid")
	if err := s.store.UpdateStudent(ctx, tuitionID, student); err != nil {
		storeFailure(w, "Student", err, "tuition_id", tuitionID, "student", student.UUID)
		return
	}

	updated, err := s.store.GetStudent(ctx, tuitionID, student.UUID)
	if err != nil {
		storeFailure(w, "Student", err, "tuition_id", tuitionID, "student", student.UUID)
		return
	}
	success(w, "Student updated successfully", updated, nil)
}

// ChangeClass moves students to a class. updateFees=true also sets their
// monthly fee to the class fee.
func (s *TuitionService) ChangeClass(w http.ResponseWriter, r *http.Request) {
	var req forms.BulkClass
	if !decode(w, r, &req) {
		return
	}
	ctx := r.Context()
	tuitionID := middleware.GetTuitionID(ctx)
	updateFees, _ := strconv.ParseBool(r.URL.Query().Get("updateFees"))
	s.logger.Info("ChangeClass request received",
		"tuition_id", tuitionID,
		"students_count", len(req.StudentIDs),
		"class", req.Class,
		"update_fees", updateFees,
	)

	n, err := s.store.ChangeClass(ctx, tuitionID, req.StudentIDs, req.Class, updateFees)
	if err != nil {
		storeFailure(w, "Class", err, "tuition_id", tuitionID)
		return
	}
	success(w, fmt.Sprintf("Class changed for %d students", n), nil, nil)
}

// ChangeStatus activates or deactivates students.
func (s *TuitionService) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	var req forms.BulkStatus
	if !decode(w, r, &req) {
		return
	}
	ctx := r.Context()
	tuitionID := middleware.GetTuitionID(ctx)
	s.logger.Info("ChangeStatus request received",
		"tuition_id", tuitionID,
		"students_count", len(req.StudentIDs),
		"status", req.Status,
	)

	n, err := s.store.ChangeStatus(ctx, tuitionID, req.StudentIDs, req.Status)
	if err != nil {
		storeFailure(w, "Students", err, "tuition_id", tuitionID)
		return
	}
	success(w, fmt.Sprintf("Status changed for %d students", n), nil, nil)
}

// AddFee creates one month's fee record for a student. A missing amount
// defaults to the student's monthly fee.
func (s *TuitionService) AddFee(w http.ResponseWriter, r *http.Request) {
	var req forms.AddFee
	if !decode(w, r, &req) {
		return
	}
	if _, ok := ledger.ParseLabel(req.YearMonth); !ok {
		failure(w, http.StatusUnprocessableEntity, "year_month must look like \"March 2025\"")
		return
	}
	ctx := r.Context()
	tuitionID := middleware.GetTuitionID(ctx)
	key := chi.URLParam(r, "studentId")

	student, err := s.store.GetStudent(ctx, tuitionID, key)
	if err != nil {
		storeFailure(w, "Student", err, "tuition_id", tuitionID, "student", key)
		return
	}

	amount := req.Amount
	if amount == 0 {
		amount = student.MonthlyFees()
	}
	created, err := s.store.CreateFees(ctx, tuitionID, []models.Fee{{
		StudentID:   student.UUID,
		YearMonth:   req.YearMonth,
		IsPaid:      models.Flag(req.IsPaid),
		MonthlyFees: models.Amount(amount),
	}})
	if err != nil {
		storeFailure(w, "Fee", err, "tuition_id", tuitionID, "student", key)
		return
	}
	if len(created) == 0 {
		failure(w, http.StatusConflict, fmt.Sprintf("Fee for %s already exists", req.YearMonth))
		return
	}

	s.logger.Info("Fee added", "tuition_id", tuitionID, "student", student.UUID, "month", req.YearMonth)
	success(w, "Fee added successfully", created[0], nil)
}

// UpdateFee marks a fee paid. Fees never go back to unpaid.
func (s *TuitionService) UpdateFee(w http.ResponseWriter, r *http.Request) {
	var req forms.FeeUpdate
	if !decode(w, r, &req) {
		return
	}
	if !req.IsPaid {
		failure(w, http.StatusUnprocessableEntity, "A fee can only be marked as paid")
		return
	}
	ctx := r.Context()
	tuitionID := middleware.GetTuitionID(ctx)
	feeUUID := chi.URLParam(r, "uuid")

	fee, err := s.store.MarkFeePaid(ctx, tuitionID, feeUUID, s.now().Unix())
	if err != nil {
		storeFailure(w, "Fee", err, "tuition_id", tuitionID, "fee", feeUUID)
		return
	}

	s.logger.Info("Fee marked paid", "tuition_id", tuitionID, "fee", feeUUID, "month", fee.YearMonth)
	success(w, "Fee marked as paid", fee, nil)
}

func classFromForm(f forms.Class) *models.Class {
	return &models.Class{
		ClassName:   strings.TrimSpace(f.ClassName),
		Section:     strings.TrimSpace(f.Section),
		MonthlyFees: models.Amount(f.MonthlyFees),
	}
}

func studentFromForm(f forms.Student) *models.Student {
	st := &models.Student{
		Name:    strings.TrimSpace(f.Name),
		Mobile:  f.Mobile,
		Email:   f.Email,
		Address: f.Address,
		Status:  f.Status,
		Info: &models.StudentInfo{
			Gender:          f.Gender,
			AdmissionYear:   f.AdmissionYear,
			MonthlyFees:     models.Amount(f.MonthlyFees),
			GuardianName:    f.GuardianName,
			GuardianContact: f.GuardianContact,
		},
	}
	if f.Class != "" {
		st.Info.Class = &models.ClassRef{UUID: f.Class}
	}
	return st
}
