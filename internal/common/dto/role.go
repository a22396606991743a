package dto

// RoleRequest creates or replaces a role
type RoleRequest struct {
	Name        string   `json:"name" binding:"required,max=50"`
	Description string   `json:"description" binding:"max=255"`
	Level       int      `json:"level" binding:"required,gte=1"`
	Permissions []string `json:"permissions" binding:"dive,required"`
}
