package validator

// RegisterRequest represents the request structure for user
// registration. New accounts always start as students; elevated roles
// are granted separately by an admin.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Name     string `json:"name" validate:"required,entity_name"`
}

// UpdateRolesRequest replaces a user's role set. Admin only.
type UpdateRolesRequest struct {
	Roles []string `json:"roles" validate:"required,min=1,dive,user_role"`
}

// LoginRequest represents the request structure for login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest carries an opaque refresh token
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// ChangePasswordRequest represents the request structure for changing passwords
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=72"`
}

// CourseCreateRequest represents the request structure for creating courses
type CourseCreateRequest struct {
	Name        string  `json:"name" validate:"required,entity_name"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
}

// CourseUpdateRequest represents the request structure for updating courses
type CourseUpdateRequest struct {
	Name        *string `json:"name" validate:"omitempty,entity_name"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
}

// LessonCreateRequest represents the request structure for creating lessons
type LessonCreateRequest struct {
	Name        string  `json:"name" validate:"required,entity_name"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	Content     *string `json:"content"`
	VideoURL    *string `json:"video_url" validate:"omitempty,url"`
	CourseID    string  `json:"course_id" validate:"required,uuid"`
}

// LessonUpdateRequest represents the request structure for updating lessons
type LessonUpdateRequest struct {
	Name        *string `json:"name" validate:"omitempty,entity_name"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	Content     *string `json:"content"`
	VideoURL    *string `json:"video_url" validate:"omitempty,url"`
}

// QuestionCreateRequest represents the request structure for creating questions
type QuestionCreateRequest struct {
	QuestionNum   int      `json:"question_num" validate:"required,min=1"`
	Name          string   `json:"name" validate:"required,entity_name"`
	Description   *string  `json:"description" validate:"omitempty,max=2000"`
	Prompt        string   `json:"prompt" validate:"required,min=1,max=2000"`
	Choices       []string `json:"choices" validate:"omitempty,max=10,dive,max=500"`
	CorrectAnswer string   `json:"correct_answer" validate:"required,max=500"`
	LessonID      string   `json:"lesson_id" validate:"required,uuid"`
}

// QuestionUpdateRequest represents the request structure for updating questions
type QuestionUpdateRequest struct {
	QuestionNum   *int     `json:"question_num" validate:"omitempty,min=1"`
	Name          *string  `json:"name" validate:"omitempty,entity_name"`
	Description   *string  `json:"description" validate:"omitempty,max=2000"`
	Prompt        *string  `json:"prompt" validate:"omitempty,min=1,max=2000"`
	Choices       []string `json:"choices" validate:"omitempty,max=10,dive,max=500"`
	CorrectAnswer *string  `json:"correct_answer" validate:"omitempty,max=500"`
}

// AnswerSubmission is one answered question in a submission batch
type AnswerSubmission struct {
	QuestionID string `json:"question_id" validate:"required,uuid"`
	Answer     string `json:"answer" validate:"required"`
}

// SubmitAnswersRequest represents a batch of answers for one lesson
type SubmitAnswersRequest struct {
	LessonID string             `json:"lesson_id" validate:"required,uuid"`
	Answers  []AnswerSubmission `json:"answers" validate:"required,min=1,dive"`
}

// QuestionProgressRequest is one raw progress entry for the
// teacher-facing progress update endpoint
type QuestionProgressRequest struct {
	QuestionID string `json:"question_id" validate:"required,uuid"`
	Estimate   int    `json:"estimate" validate:"estimate_value"`
}

// ResetProgressRequest names the student whose course progress is
// being cleared
type ResetProgressRequest struct {
	UserID string `json:"user_id" validate:"required,uuid"`
}

// UpdateQuestionProgressRequest updates a single recorded answer on a
// student's enrollment
type UpdateQuestionProgressRequest struct {
	UserID     string `json:"user_id" validate:"required,uuid"`
	LessonID   string `json:"lesson_id" validate:"required,uuid"`
	QuestionID string `json:"question_id" validate:"required,uuid"`
	Estimate   int    `json:"estimate" validate:"estimate_value"`
}

// ReviewCreateRequest represents the request structure for creating reviews
type ReviewCreateRequest struct {
	CourseID string `json:"course_id" validate:"required,uuid"`
	Content  string `json:"content" validate:"required,min=1,max=2000"`
}

// ReviewUpdateRequest represents the request structure for updating reviews
type ReviewUpdateRequest struct {
	Content string `json:"content" validate:"required,min=1,max=2000"`
}
