package request

// ServiceRequestForm is the multipart form of the request modal. Files are
// read separately from the "files" field.
type ServiceRequestForm struct {
	FullName     string `form:"full_name"`
	Email        string `form:"email"`
	Phone        string `form:"phone"`
	Details      string `form:"details"`
	ServiceTitle string `form:"service_title"`
}

// ContactForm is the contact page form.
type ContactForm struct {
	FullName    string `json:"full_name" form:"full_name"`
	Email       string `json:"email" form:"email"`
	Phone       string `json:"phone" form:"phone"`
	ServiceType string `json:"service_type" form:"service_type"`
	Message     string `json:"message" form:"message"`
}

// UpdateStatusRequest for admin status changes.
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// Prefill is the default form content for a signed-in user.
type Prefill struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

// ListQuery holds the query parameters of request and contact listings.
type ListQuery struct {
	Status string `form:"status"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=200"`
	Offset int    `form:"offset" binding:"omitempty,min=0"`
}
