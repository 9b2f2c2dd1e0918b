package model

// Role of the authenticated caller. Authoring and grading operations check
// the actor explicitly instead of reading ambient auth state.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleInstructor Role = "instructor"
	RoleLearner    Role = "learner"
)

// Actor identifies who performs an operation.
type Actor struct {
	UserID uint
	Role   Role
}

// CanAuthor reports whether the actor may create or edit quizzes.
func (a Actor) CanAuthor() bool {
	return a.Role == RoleAdmin || a.Role == RoleInstructor
}

// CanGrade reports whether the actor may assign manual grades.
func (a Actor) CanGrade() bool {
	return a.Role == RoleAdmin || a.Role == RoleInstructor
}
