package biometric

// RegisterProfileRequest es el body de POST /face-auth/register: datos del
// perfil pendiente que se embeben en la continuation antes de enrolar.
type RegisterProfileRequest struct {
	Request   string `json:"request" validate:"required,max=16384"`
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"required,max=100"`
	Username  string `json:"username,omitempty" validate:"omitempty,max=64,alphanumunicode"`
	Email     string `json:"email" validate:"required,email,max=254"`
	Phone     string `json:"phone,omitempty" validate:"omitempty,e164"`
}

// RegisterProfileResponse devuelve la continuation con el perfil embebido.
type RegisterProfileResponse struct {
	Request    string `json:"request"`
	CaptureURL string `json:"capture_url"`
}
