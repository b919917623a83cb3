package user

import (
	"time"

	userDatamodel "github.com/frahmantamala/expense-approval/internal/core/datamodel/user"
)

const (
	RoleEmployee = "employee"
	RoleManager  = "manager"
	RoleAdmin    = "admin"
)

type User struct {
	ID         int64     `json:"id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Role       string    `json:"role"`
	Department string    `json:"department"`
	CreatedAt  time.Time `json:"createdAt"`
}

func ToDataModel(u *User) *userDatamodel.User {
	return &userDatamodel.User{
		ID:         u.ID,
		Email:      u.Email,
		Name:       u.Name,
		Role:       u.Role,
		Department: u.Department,
		CreatedAt:  u.CreatedAt,
	}
}

func FromDataModel(u *userDatamodel.User) *User {
	return &User{
		ID:         u.ID,
		Email:      u.Email,
		Name:       u.Name,
		Role:       u.Role,
		Department: u.Department,
		CreatedAt:  u.CreatedAt.UTC(),
	}
}

// SeedUsers are the demo accounts created by the seed command.
func SeedUsers() []User {
	return []User{
		{Email: "employee@company.com", Name: "John Doe", Role: RoleEmployee, Department: "Engineering"},
		{Email: "manager@company.com", Name: "Jane Smith", Role: RoleManager, Department: "Engineering"},
		{Email: "admin@company.com", Name: "Bob Johnson", Role: RoleAdmin, Department: "Operations"},
	}
}
