package pages

import (
	"fmt"
	"math"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	libinjection "github.com/corazawaf/libinjection-go"
	"go.uber.org/zap"

	"github.com/bidzilla/bidzilla-web/pkg/apperrors"
	"github.com/bidzilla/bidzilla-web/pkg/models"
)

// maxUploadBytes caps a deliverable upload, multipart overhead included.
const maxUploadBytes = 50 << 20

// Validation messages shown inline or as alerts.
const (
	msgLoginRequired    = "Email and password are required."
	msgRegisterRequired = "Name, email and password are required."
	msgInvalidRole      = "Please choose Buyer or Seller."
	msgProjectRequired  = "All fields are required."
	msgBudgetNumbers    = "Budgets must be non-negative numbers."
	msgBudgetOrder      = "Minimum budget cannot exceed maximum budget."
	msgDeadlineFormat   = "Deadline must be a date."
	msgUnsafeInput      = "Your input contains markup that is not allowed."
	msgBidFields        = "Please enter an amount, a message and the estimated days."
)

// containsMarkup reports whether any value looks like an XSS payload.
func containsMarkup(values ...string) bool {
	for _, v := range values {
		if libinjection.IsXSS(v) {
			return true
		}
	}
	return false
}

// validationError carries a message meant for the user. cause narrows
// ErrValidation when a more specific sentinel applies.
type validationError struct {
	msg   string
	cause error
}

func (e *validationError) Error() string { return e.msg }

func (e *validationError) Unwrap() []error {
	if e.cause != nil {
		return []error{apperrors.ErrValidation, e.cause}
	}
	return []error{apperrors.ErrValidation}
}

func invalid(msg string) error {
	return &validationError{msg: msg}
}

// errUnsafeInput is returned when libinjection flags a value.
var errUnsafeInput error = &validationError{msg: msgUnsafeInput}

// userMessage returns the message of a validation error, or fallback.
func userMessage(err error, fallback string) string {
	if v, ok := err.(*validationError); ok {
		return v.msg
	}
	return fallback
}

func formValue(r *http.Request, name string) string {
	return strings.TrimSpace(r.PostFormValue(name))
}

// loginForm is the login page's form state.
type loginForm struct {
	Email    string
	Password string
}

func parseLoginForm(r *http.Request) (loginForm, error) {
	f := loginForm{
		Email:    formValue(r, "email"),
		Password: r.PostFormValue("password"),
	}
	if f.Email == "" || f.Password == "" {
		return f, invalid(msgLoginRequired)
	}
	return f, nil
}

// registerForm is the register page's form state.
type registerForm struct {
	Name     string
	Email    string
	Password string
	Role     models.Role
	Roles    []models.Role
}

func newRegisterForm() registerForm {
	return registerForm{Role: models.RoleBuyer, Roles: models.ValidRoles}
}

func parseRegisterForm(r *http.Request) (registerForm, error) {
	f := newRegisterForm()
	f.Name = formValue(r, "name")
	f.Email = formValue(r, "email")
	f.Password = r.PostFormValue("password")
	if raw := formValue(r, "role"); raw != "" {
		f.Role = models.ParseRole(raw)
	}

	if f.Name == "" || f.Email == "" || f.Password == "" {
		return f, invalid(msgRegisterRequired)
	}
	if !f.Role.Valid() {
		f.Role = models.RoleBuyer
		return f, &validationError{msg: msgInvalidRole, cause: apperrors.ErrInvalidRole}
	}
	if containsMarkup(f.Name) {
		return f, errUnsafeInput
	}
	return f, nil
}

func (f registerForm) request() models.RegisterRequest {
	return models.RegisterRequest{
		Name:     f.Name,
		Email:    f.Email,
		Password: f.Password,
		Role:     f.Role,
	}
}

// projectForm keeps the raw strings so a failed submission re-renders as typed.
type projectForm struct {
	Title       string
	Description string
	BudgetMin   string
	BudgetMax   string
	Deadline    string
}

func parseProjectForm(r *http.Request) projectForm {
	return projectForm{
		Title:       formValue(r, "title"),
		Description: formValue(r, "description"),
		BudgetMin:   formValue(r, "budgetMin"),
		BudgetMax:   formValue(r, "budgetMax"),
		Deadline:    formValue(r, "deadline"),
	}
}

// request validates the form and builds the create payload for buyerID.
func (f projectForm) request(buyerID int64) (models.CreateProjectRequest, error) {
	if f.Title == "" || f.Description == "" || f.BudgetMin == "" || f.BudgetMax == "" || f.Deadline == "" {
		return models.CreateProjectRequest{}, invalid(msgProjectRequired)
	}
	if containsMarkup(f.Title, f.Description) {
		return models.CreateProjectRequest{}, errUnsafeInput
	}

	lo, errLo := parseAmount(f.BudgetMin)
	hi, errHi := parseAmount(f.BudgetMax)
	if errLo != nil || errHi != nil {
		return models.CreateProjectRequest{}, invalid(msgBudgetNumbers)
	}
	if lo > hi {
		return models.CreateProjectRequest{}, invalid(msgBudgetOrder)
	}
	if _, err := time.Parse(time.DateOnly, f.Deadline); err != nil {
		return models.CreateProjectRequest{}, invalid(msgDeadlineFormat)
	}

	return models.CreateProjectRequest{
		Title:       f.Title,
		Description: f.Description,
		BudgetMin:   lo,
		BudgetMax:   hi,
		Deadline:    f.Deadline,
		BuyerID:     buyerID,
	}, nil
}

func parseBidForm(r *http.Request, projectID int64) (models.SubmitBidRequest, error) {
	amount, errAmount := parseAmount(formValue(r, "amount"))
	eta, errETA := strconv.Atoi(formValue(r, "etaDays"))
	message := formValue(r, "message")

	if errAmount != nil || errETA != nil || eta <= 0 || message == "" {
		return models.SubmitBidRequest{}, invalid(msgBidFields)
	}
	if containsMarkup(message) {
		return models.SubmitBidRequest{}, errUnsafeInput
	}

	return models.SubmitBidRequest{
		Amount:    amount,
		Message:   message,
		ETADays:   eta,
		ProjectID: projectID,
	}, nil
}

// parseAmount parses a non-negative, finite number.
func parseAmount(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("amount out of range: %s", s)
	}
	return v, nil
}

// parseID parses a positive numeric identifier.
func parseID(s string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// maxUploadMemory is how much of an upload is held in memory before spilling
// to temporary files.
const maxUploadMemory = 8 << 20

// upload is the file part of a deliverable form.
type upload struct {
	name string
	file multipart.File
	form *multipart.Form
}

// Close releases the file and any temporary files backing the form.
func (u *upload) Close() {
	_ = u.file.Close()
	if u.form != nil {
		_ = u.form.RemoveAll()
	}
}

// readUpload parses a multipart form and returns its "file" part. It reports
// false when the body is not multipart, too large or has no file selected.
func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request) (*upload, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		h.logger.Debug("Unreadable upload form", zap.Error(err))
		return nil, false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		_ = r.MultipartForm.RemoveAll()
		return nil, false
	}
	if header.Filename == "" {
		_ = file.Close()
		_ = r.MultipartForm.RemoveAll()
		return nil, false
	}

	return &upload{name: header.Filename, file: file, form: r.MultipartForm}, true
}
