package domain

// Collection names in the document store
const (
	CollectionTasks = "tasks"
	CollectionUsers = "users"
)

// Document field names
const (
	FieldID          = "id"
	FieldCreatedAt   = "createdAt"
	FieldUpdatedAt   = "updatedAt"
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldCompleted   = "completed"
	FieldUserID      = "userId"
	FieldEmail       = "email"
)

// TaskUpdatableFields lists the fields a partial task update may touch.
var TaskUpdatableFields = []string{FieldTitle, FieldDescription, FieldCompleted, FieldUserID}

// Error messages returned to clients
const (
	MsgTaskNotFound         = "Task not found"
	MsgUserNotFound         = "User not found"
	MsgUserIDQueryRequired  = "userId is required in query parameters"
	MsgFailedGetTasks       = "Failed to get tasks"
	MsgFailedGetTaskStats   = "Failed to get task statistics"
	MsgFailedGetTask        = "Failed to get task"
	MsgFailedCreateTask     = "Failed to create task"
	MsgFailedUpdateTask     = "Failed to update task"
	MsgFailedUpdateComplete = "Failed to update task completion status"
	MsgFailedDeleteTask     = "Failed to delete task"
	MsgTaskDeleted          = "Task deleted successfully"
	MsgFailedGetUser        = "Failed to get user"
	MsgFailedCreateUser     = "Failed to create user"
)
