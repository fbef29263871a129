package services

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/learnforge/course-service/internal/models"
	"github.com/learnforge/course-service/internal/validator"
)

// Request DTOs live in the validator package so validation rules stay
// next to the shapes they validate.
type RegisterRequest = validator.RegisterRequest
type LoginRequest = validator.LoginRequest
type RefreshRequest = validator.RefreshRequest
type ChangePasswordRequest = validator.ChangePasswordRequest
type UpdateRolesRequest = validator.UpdateRolesRequest
type CreateCourseRequest = validator.CourseCreateRequest
type UpdateCourseRequest = validator.CourseUpdateRequest
type CreateLessonRequest = validator.LessonCreateRequest
type UpdateLessonRequest = validator.LessonUpdateRequest
type CreateQuestionRequest = validator.QuestionCreateRequest
type UpdateQuestionRequest = validator.QuestionUpdateRequest
type SubmitAnswersRequest = validator.SubmitAnswersRequest
type AnswerSubmission = validator.AnswerSubmission
type UpdateQuestionProgressRequest = validator.UpdateQuestionProgressRequest
type ResetProgressRequest = validator.ResetProgressRequest
type CreateReviewRequest = validator.ReviewCreateRequest
type UpdateReviewRequest = validator.ReviewUpdateRequest

// ===== RESPONSE DTOS =====

// UserResponse is the public view of a user
type UserResponse struct {
	ID        uuid.UUID         `json:"id"`
	Email     string            `json:"email"`
	Name      string            `json:"name"`
	Roles     []models.UserRole `json:"roles"`
	CreatedAt time.Time         `json:"created_at"`
}

// TokenPair carries a short-lived JWT and an opaque refresh token
type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         *UserResponse `json:"user,omitempty"`
}

// CourseResponse is the catalog view of a course
type CourseResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	LessonCount int       `json:"lesson_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CourseDetailResponse adds the lesson list
type CourseDetailResponse struct {
	CourseResponse
	Lessons []*LessonResponse `json:"lessons"`
}

// LessonResponse is the catalog view of a lesson
type LessonResponse struct {
	ID          uuid.UUID `json:"id"`
	CourseID    uuid.UUID `json:"course_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Content     string    `json:"content,omitempty"`
	VideoURL    string    `json:"video_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// QuestionResponse never carries the correct answer
type QuestionResponse struct {
	ID          uuid.UUID `json:"id"`
	LessonID    uuid.UUID `json:"lesson_id"`
	QuestionNum int       `json:"question_num"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Prompt      string    `json:"prompt"`
	Choices     []string  `json:"choices,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// CheckAnswerResult is the outcome of checking one submitted answer.
// The correct answer is revealed only after the check.
type CheckAnswerResult struct {
	QuestionID    uuid.UUID `json:"question_id"`
	Passed        bool      `json:"passed"`
	CorrectAnswer string    `json:"correct_answer"`
}

// EnrollmentResponse is the progress-bearing view of an enrollment
type EnrollmentResponse struct {
	ID        uuid.UUID           `json:"id"`
	UserID    uuid.UUID           `json:"user_id"`
	CourseID  uuid.UUID           `json:"course_id"`
	Progress  models.ProgressList `json:"progress"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// SubmitAnswersResponse reports per-question outcomes plus the merged
// progress state after the submission. Recorded lists the questions
// whose estimates were stored; Skipped lists questions that already had
// one (first answer wins). When recording fails the scoring results are
// still returned, with ProgressError set and Enrollment nil.
type SubmitAnswersResponse struct {
	Results         []CheckAnswerResult `json:"results"`
	Recorded        []uuid.UUID         `json:"recorded"`
	Skipped         []uuid.UUID         `json:"skipped,omitempty"`
	LessonCompleted bool                `json:"lesson_completed"`
	Enrollment      *EnrollmentResponse `json:"enrollment,omitempty"`
	ProgressError   string              `json:"progress_error,omitempty"`
}

// LessonProgressView is the student-facing progress of one lesson.
// Started is false (with everything else zero) when the user has no
// recorded answers for the lesson; that is not an error.
type LessonProgressView struct {
	LessonID        uuid.UUID                 `json:"lesson_id"`
	Started         bool                      `json:"started"`
	Completed       bool                      `json:"completed"`
	AverageEstimate *float64                  `json:"average_estimate,omitempty"`
	Questions       []models.QuestionProgress `json:"questions"`
}

// EnrolledCourseResponse is one entry in the student's course list
type EnrolledCourseResponse struct {
	EnrollmentID     uuid.UUID `json:"enrollment_id"`
	CourseID         uuid.UUID `json:"course_id"`
	Name             string    `json:"name"`
	Description      string    `json:"description"`
	TotalLessons     int       `json:"total_lessons"`
	CompletedLessons int       `json:"completed_lessons"`
	OverallProgress  float64   `json:"overall_progress"`
	EnrolledAt       time.Time `json:"enrolled_at"`
}

// EnrolledCourseDetailResponse adds per-lesson progress views
type EnrolledCourseDetailResponse struct {
	EnrolledCourseResponse
	Lessons []*LessonWithProgressResponse `json:"lessons"`
}

// LessonWithProgressResponse pairs a lesson with the student's progress in it
type LessonWithProgressResponse struct {
	LessonResponse
	Started         bool     `json:"started"`
	Completed       bool     `json:"completed"`
	AverageEstimate *float64 `json:"average_estimate,omitempty"`
}

// ReviewResponse is the public view of a review
type ReviewResponse struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	CourseID  uuid.UUID `json:"course_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// ImportResult summarizes a question import
type ImportResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}

// ===== SERVICE INTERFACES =====

// AuthService owns registration, login and the refresh token lifecycle
type AuthService interface {
	Register(ctx context.Context, req *RegisterRequest) (*UserResponse, error)
	Login(ctx context.Context, req *LoginRequest) (*TokenPair, error)
	Refresh(ctx context.Context, req *RefreshRequest) (*TokenPair, error)
	Logout(ctx context.Context, email, refreshToken string) error
	LogoutAll(ctx context.Context, email string) error
	ChangePassword(ctx context.Context, userID uuid.UUID, req *ChangePasswordRequest) error
	UpdateRoles(ctx context.Context, actorID, targetID uuid.UUID, req *UpdateRolesRequest) (*UserResponse, error)
	GetUser(ctx context.Context, userID uuid.UUID) (*UserResponse, error)
}

// CourseService owns the catalog: courses and their lessons
type CourseService interface {
	CreateCourse(ctx context.Context, req *CreateCourseRequest, creatorID uuid.UUID) (*CourseResponse, error)
	UpdateCourse(ctx context.Context, id uuid.UUID, req *UpdateCourseRequest, userID uuid.UUID) (*CourseResponse, error)
	DeleteCourse(ctx context.Context, id uuid.UUID, userID uuid.UUID) error
	GetCourse(ctx context.Context, id uuid.UUID) (*CourseDetailResponse, error)
	ListCourses(ctx context.Context, name *string, limit, offset int) ([]*CourseResponse, int64, error)

	CreateLesson(ctx context.Context, req *CreateLessonRequest, creatorID uuid.UUID) (*LessonResponse, error)
	UpdateLesson(ctx context.Context, id uuid.UUID, req *UpdateLessonRequest, userID uuid.UUID) (*LessonResponse, error)
	DeleteLesson(ctx context.Context, id uuid.UUID, userID uuid.UUID) error
	GetLesson(ctx context.Context, id uuid.UUID) (*LessonResponse, error)
}

// QuestionService owns quiz questions and answer checking
type QuestionService interface {
	Create(ctx context.Context, req *CreateQuestionRequest, creatorID uuid.UUID) (*QuestionResponse, error)
	Update(ctx context.Context, id uuid.UUID, req *UpdateQuestionRequest, userID uuid.UUID) (*QuestionResponse, error)
	Delete(ctx context.Context, id uuid.UUID, userID uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*QuestionResponse, error)
	GetByLesson(ctx context.Context, lessonID uuid.UUID) ([]*QuestionResponse, error)

	// CheckAnswers grades a batch. All questions must belong to the same
	// active lesson; the lesson id is returned alongside the results.
	CheckAnswers(ctx context.Context, answers []AnswerSubmission) ([]CheckAnswerResult, uuid.UUID, error)
}

// ProgressService owns enrollments and the nested progress structure.
// SubmitAnswers enrolls the user automatically when no enrollment
// exists for the course.
type ProgressService interface {
	Enroll(ctx context.Context, userID, courseID uuid.UUID) (*EnrollmentResponse, error)
	Unenroll(ctx context.Context, userID, courseID uuid.UUID) error

	SubmitAnswers(ctx context.Context, userID uuid.UUID, req *SubmitAnswersRequest) (*SubmitAnswersResponse, error)
	UpdateQuestionProgress(ctx context.Context, userID uuid.UUID, req *UpdateQuestionProgressRequest) (*EnrollmentResponse, error)
	ResetProgress(ctx context.Context, userID, courseID uuid.UUID) (*EnrollmentResponse, error)

	GetLessonProgress(ctx context.Context, userID, lessonID uuid.UUID) (*LessonProgressView, error)
	GetCourseList(ctx context.Context, userID uuid.UUID) ([]*EnrolledCourseResponse, error)
	GetCourseDetail(ctx context.Context, userID, courseID uuid.UUID) (*EnrolledCourseDetailResponse, error)
	GetEnrollmentDetail(ctx context.Context, callerID, enrollmentID uuid.UUID) (*EnrolledCourseDetailResponse, error)
}

// ReviewService owns course reviews
type ReviewService interface {
	Create(ctx context.Context, req *CreateReviewRequest, userID uuid.UUID) (*ReviewResponse, error)
	Update(ctx context.Context, id uuid.UUID, req *UpdateReviewRequest, userID uuid.UUID) (*ReviewResponse, error)
	Delete(ctx context.Context, id uuid.UUID, userID uuid.UUID) error
	GetByCourse(ctx context.Context, courseID uuid.UUID) ([]*ReviewResponse, error)
}

// ImportExportService moves catalog data in and out as xlsx
type ImportExportService interface {
	ImportQuestions(ctx context.Context, lessonID uuid.UUID, file io.Reader, userID uuid.UUID) (*ImportResult, error)
	ExportProgressReport(ctx context.Context, courseID uuid.UUID, userID uuid.UUID) ([]byte, error)
}

// ServiceManager wires and owns all service instances
type ServiceManager interface {
	Auth() AuthService
	Course() CourseService
	Question() QuestionService
	Progress() ProgressService
	Review() ReviewService
	ImportExport() ImportExportService

	Initialize(ctx context.Context) error
	Shutdown(ctx context.Context) error
	HealthCheck(ctx context.Context) error
}
