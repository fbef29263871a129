package repositories

import "context"

// Repository aggregates all domain repositories behind one handle.
type Repository interface {
	// Catalog domain
	Course() CourseRepository
	Lesson() LessonRepository
	Question() QuestionRepository

	// Progress domain
	Enrollment() EnrollmentRepository

	// User domain
	User() UserRepository

	// Review domain
	Review() ReviewRepository

	// Auth token storage (redis-backed)
	Token() TokenRepository

	// Transaction support
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	// Health check
	Ping(ctx context.Context) error

	// Close connections
	Close() error
}

// RepositoryManager interface for managing repository lifecycle
type RepositoryManager interface {
	// Initialize repositories with database connections
	Initialize() error

	// Get repository instance
	GetRepository() Repository

	// Health check for all repositories
	HealthCheck(ctx context.Context) error

	// Graceful shutdown
	Shutdown(ctx context.Context) error
}
