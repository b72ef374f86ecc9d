package transport

import "github.com/google/uuid"

// RegisterCustomerRequest contains data for registering a new customer.
type RegisterCustomerRequest struct {
	FullName     string  `json:"fullName" validate:"required,max=200"`
	CompanyName  *string `json:"companyName,omitempty" validate:"omitempty,max=200"`
	Email        string  `json:"email" validate:"required,email,max=255"`
	Phone        string  `json:"phone" validate:"required,max=32"`
	TaxIDNumber  *string `json:"taxIdNumber,omitempty" validate:"omitempty,max=50"`
	Address      *string `json:"address,omitempty" validate:"omitempty,max=500"`
}

// UpdateCustomerRequest contains the fields a customer update may touch.
// Nil fields are left unchanged.
type UpdateCustomerRequest struct {
	FullName    *string `json:"fullName,omitempty" validate:"omitempty,max=200"`
	CompanyName *string `json:"companyName,omitempty" validate:"omitempty,max=200"`
	Email       *string `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Phone       *string `json:"phone,omitempty" validate:"omitempty,max=32"`
	TaxIDNumber *string `json:"taxIdNumber,omitempty" validate:"omitempty,max=50"`
	Address     *string `json:"address,omitempty" validate:"omitempty,max=500"`
}

// VerifyCustomerRequest records a verification decision. Reason is required
// on rejection; Notes are an optional remark kept with an approval.
type VerifyCustomerRequest struct {
	Approved bool    `json:"approved"`
	Reason   *string `json:"reason,omitempty" validate:"omitempty,max=1000"`
	Notes    *string `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

// ListCustomersRequest filters and paginates customer listings.
type ListCustomersRequest struct {
	Status   string `form:"status"`
	Search   string `form:"search"`
	Page     int    `form:"page"`
	PageSize int    `form:"pageSize"`
}

// CustomerResponse represents a customer in API responses.
type CustomerResponse struct {
	ID                uuid.UUID  `json:"id"`
	FullName          string     `json:"fullName"`
	CompanyName       *string    `json:"companyName,omitempty"`
	Email             string     `json:"email"`
	Phone             string     `json:"phone"`
	TaxIDNumber       *string    `json:"taxIdNumber,omitempty"`
	Address           *string    `json:"address,omitempty"`
	Status            string     `json:"status"`
	RejectionReason   *string    `json:"rejectionReason,omitempty"`
	VerifiedBy        *uuid.UUID `json:"verifiedBy,omitempty"`
	VerifiedAt        *string    `json:"verifiedAt,omitempty"`
	VerificationNotes *string    `json:"verificationNotes,omitempty"`
	CreatedBy         uuid.UUID  `json:"createdBy"`
	CreatedAt         string     `json:"createdAt"`
	UpdatedAt         string     `json:"updatedAt"`
}

// CustomerListResponse wraps a paginated list of customers.
type CustomerListResponse struct {
	Items    []CustomerResponse `json:"items"`
	Total    int                `json:"total"`
	Page     int                `json:"page"`
	PageSize int                `json:"pageSize"`
}
