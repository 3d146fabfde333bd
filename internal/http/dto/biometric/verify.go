// Package biometric contiene los DTOs de /face-auth/*.
package biometric

// Acciones de verificación.
const (
	ActionAuthenticate = "authenticate"
	ActionEnroll       = "enroll"
	// ActionRegister es un alias de ActionEnroll.
	ActionRegister = "register"
)

// VerifyRequest es el body de POST /face-auth/verify. Descriptor llega como
// array JSON o como floats separados por coma. Action vacío equivale a
// authenticate.
type VerifyRequest struct {
	Request    string `validate:"max=16384"`
	Descriptor string `validate:"max=65536"`
	Action     string `validate:"omitempty,oneof=authenticate enroll register"`
}

// Tipos de resultado de verify.
const (
	OutcomeRedirect           = "redirect"
	OutcomeNoFaceDetected     = "no_face_detected"
	OutcomeEnrollmentRequired = "enrollment_required"
)

// VerifyResult es lo que el service devuelve al controller.
type VerifyResult struct {
	Outcome     string
	Location    string // OutcomeRedirect
	RegisterURL string // OutcomeEnrollmentRequired
	Request     string // continuation reemitida para reintentos
}

// OutcomeResponse es el cuerpo JSON de los resultados que no redirigen.
type OutcomeResponse struct {
	Outcome     string `json:"outcome"`
	Message     string `json:"message,omitempty"`
	Request     string `json:"request,omitempty"`
	RegisterURL string `json:"register_url,omitempty"`
}
