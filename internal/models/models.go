package models

import "time"

// Role is a project-level role carried on the membership pivot.
// Privilege order is manager > member > observer.
type Role string

const (
	RoleObserver Role = "observer"
	RoleMember   Role = "member"
	RoleManager  Role = "manager"
)

// ValidRoles enumerates the roles accepted on memberships and invitations.
var ValidRoles = map[Role]struct{}{
	RoleObserver: {},
	RoleMember:   {},
	RoleManager:  {},
}

// Status is a task's kanban status.
type Status string

const (
	StatusTodo      Status = "à_faire"
	StatusInProcess Status = "en_cours"
	StatusInReview  Status = "en_révision"
	StatusDone      Status = "terminé"
)

// ValidStatuses enumerates the statuses supported by the board columns.
var ValidStatuses = map[Status]struct{}{
	StatusTodo:      {},
	StatusInProcess: {},
	StatusInReview:  {},
	StatusDone:      {},
}

// Priority is a task's priority level.
type Priority string

const (
	PriorityLow    Priority = "basse"
	PriorityMedium Priority = "moyenne"
	PriorityHigh   Priority = "haute"
	PriorityUrgent Priority = "urgente"
)

// ValidPriorities enumerates the accepted priority values.
var ValidPriorities = map[Priority]struct{}{
	PriorityLow:    {},
	PriorityMedium: {},
	PriorityHigh:   {},
	PriorityUrgent: {},
}

// StatusByColumnTitle maps a lowercased column title to the status a task
// takes when moved into that column. Titles outside the map leave the status
// unchanged. Column titles, not a separate stage id, are the source of truth
// for stage semantics.
var StatusByColumnTitle = map[string]Status{
	"à faire":     StatusTodo,
	"en cours":    StatusInProcess,
	"en révision": StatusInReview,
	"terminé":     StatusDone,
}

// DefaultColumnTitles are created, in order, for every new project.
var DefaultColumnTitles = []string{"À faire", "En cours", "En révision", "Terminé"}

// User is the account record behind an external (Clerk) identity.
type User struct {
	ID                int64     `json:"id"`
	ClerkUserID       string    `json:"clerk_user_id"`
	Name              string    `json:"name"`
	Email             string    `json:"email"`
	Role              string    `json:"role"`
	ProfilePictureURL string    `json:"profile_picture_url,omitempty"`
	Bio               string    `json:"bio,omitempty"`
	JobTitle          string    `json:"job_title,omitempty"`
	Company           string    `json:"company,omitempty"`
	Location          string    `json:"location,omitempty"`
	Phone             string    `json:"phone,omitempty"`
	Skills            string    `json:"skills,omitempty"`
	Website           string    `json:"website,omitempty"`
	LinkedIn          string    `json:"linkedin,omitempty"`
	GitHub            string    `json:"github,omitempty"`
	Twitter           string    `json:"twitter,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// TeamMember is the project-participation identity, 1:1 with a User through
// the same external identity string.
type TeamMember struct {
	ID          int64     `json:"id"`
	ClerkUserID string    `json:"clerk_user_id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Avatar      string    `json:"avatar,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Project groups columns, tasks and team members.
type Project struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	ClerkUserID string    `json:"clerk_user_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Column is an ordered kanban stage within a project.
type Column struct {
	ID        int64     `json:"id"`
	ProjectID int64     `json:"project_id"`
	Title     string    `json:"title"`
	Order     int64     `json:"order"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Membership is the project<->team member pivot carrying the role.
// At most one row exists per (project, team member) pair.
type Membership struct {
	ProjectID    int64     `json:"project_id"`
	TeamMemberID int64     `json:"team_member_id"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// InvitedMember is a durable, single-use, tokenized offer to join a project.
type InvitedMember struct {
	ID              int64     `json:"id"`
	ProjectID       int64     `json:"project_id"`
	Email           string    `json:"email"`
	Status          string    `json:"status"`
	InvitationToken string    `json:"invitation_token"`
	Role            Role      `json:"role"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Invitation statuses.
const (
	InvitationPending  = "pending"
	InvitationAccepted = "accepted"
)

// Task is a single card on the board. Tasks reference their column so a move
// is a single column_id reassignment.
type Task struct {
	ID            int64      `json:"id"`
	ColumnID      int64      `json:"column_id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Status        Status     `json:"status"`
	Priority      Priority   `json:"priority"`
	AssigneeID    *int64     `json:"assignee_id"`
	EstimatedTime int64      `json:"estimated_time"`
	ActualTime    int64      `json:"actual_time"`
	DueDate       *time.Time `json:"due_date"`
	StartedAt     *time.Time `json:"started_at"`
	CompletedAt   *time.Time `json:"completed_at"`
	TimerActive   bool       `json:"timer_active"`
	Tags          []string   `json:"tags"`
	CreatorID     string     `json:"creator_id"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Comment is an append-only child of a task.
type Comment struct {
	ID        int64     `json:"id"`
	TaskID    int64     `json:"task_id"`
	AuthorID  int64     `json:"author_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Attachment records an uploaded file attached to a task. The bytes live on
// disk; only metadata is persisted.
type Attachment struct {
	ID        int64     `json:"id"`
	TaskID    int64     `json:"task_id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	URL       string    `json:"url"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// Notification is a pull-based message for a team member.
type Notification struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	SenderID  *int64    `json:"sender_id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Data      string    `json:"data,omitempty"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}
