package dto

// UpdateAccountRequest is an admin edit; omitted fields are left unchanged
type UpdateAccountRequest struct {
	Username   *string `json:"username" binding:"omitempty,min=1,max=50"`
	Email      *string `json:"email" binding:"omitempty,email,max=255"`
	FirstName  *string `json:"firstName" binding:"omitempty,max=100"`
	LastName   *string `json:"lastName" binding:"omitempty,max=100"`
	Phone      *string `json:"phone" binding:"omitempty,max=50"`
	RoleID     *uint   `json:"roleId"`
	IsVerified *bool   `json:"isVerified"`
	IsActive   *bool   `json:"isActive"`
}

// RegistrationMetadataRequest corrects stored signup attribution
type RegistrationMetadataRequest struct {
	IPAddress   string `json:"ipAddress" binding:"omitempty,ip"`
	UserAgent   string `json:"userAgent"`
	Referrer    string `json:"referrer"`
	UTMSource   string `json:"utmSource" binding:"max=255"`
	UTMMedium   string `json:"utmMedium" binding:"max=255"`
	UTMCampaign string `json:"utmCampaign" binding:"max=255"`
}
