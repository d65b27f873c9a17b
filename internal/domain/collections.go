package domain

// Collection names in the document store. "class" is singular for
// compatibility with existing data.
const (
	CollectionUsers     = "users"
	CollectionClasses   = "class"
	CollectionBudgets   = "budgets"
	CollectionTasks     = "tasks"
	CollectionQuestions = "questions"
)

// Collections lists every collection the service reads or writes.
func Collections() []string {
	return []string{
		CollectionUsers,
		CollectionClasses,
		CollectionBudgets,
		CollectionTasks,
		CollectionQuestions,
	}
}

// Well-known document fields.
const (
	FieldID        = "_id"
	FieldEmail     = "email"
	FieldCreatedAt = "createdAt"
	FieldLastLogIn = "last_log_in"
	FieldCompleted = "completed"
	FieldName      = "name"
	FieldTopic     = "topic"
	FieldQuestions = "questions"
)
