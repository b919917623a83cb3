package user

import "github.com/frahmantamala/expense-approval/internal/core/common/query"

// ListUsersParams carries the raw query string values of GET /users.
type ListUsersParams struct {
	Limit      string
	Offset     string
	Search     string
	Role       string
	Department string
}

type ListFilter struct {
	Page       query.Page
	Search     string
	Role       string
	Department string
}
