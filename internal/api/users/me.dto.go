package users

type UserDTO struct {
	ID    uint   `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

type InvoiceDTO struct {
	ID         uint    `json:"id"`
	No         string  `json:"no"`
	CourseName string  `json:"course_name"`
	Amount     string  `json:"amount"`
	Status     string  `json:"status"`
	SentAt     *string `json:"sent_at,omitempty"`
	Payable    bool    `json:"payable"`
}

type MeResponse struct {
	User     UserDTO      `json:"user"`
	Invoices []InvoiceDTO `json:"invoices"`
}
