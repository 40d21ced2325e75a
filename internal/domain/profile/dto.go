package profile

// UpdateProfileRequest for the client profile page.
type UpdateProfileRequest struct {
	FullName string `json:"full_name" binding:"required,max=120"`
	Phone    string `json:"phone" binding:"omitempty,sa_mobile"`
}

// UpdateRoleRequest for admins changing a user's role.
type UpdateRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=client admin"`
}
