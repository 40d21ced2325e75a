package project

// CreateProjectRequest for admins.
type CreateProjectRequest struct {
	Title       string `json:"title" binding:"required,max=200"`
	Description string `json:"description"`
	ClientID    string `json:"client_id" binding:"omitempty,uuid"`
	Status      string `json:"status"`
}

// UpdateStatusRequest moves a project to another status.
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}
