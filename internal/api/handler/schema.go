package handler

// errorResponse mirrors the envelope rendered by the API error handler. It is
// declared here so the swagger annotations in this package can reference it.
type errorResponse struct {
	Message string `json:"message"`
}

// messageResponse carries a plain confirmation.
type messageResponse struct {
	Message string `json:"message"`
}

// --- Request types ---

type signupRequest struct {
	FullName string `json:"fullName" validate:"required"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

type updateProfileRequest struct {
	// ProfilePic is a data URL or base64 encoded image.
	ProfilePic string `json:"profilePic" validate:"required"`
}

type sendMessageRequest struct {
	Text  string `json:"text"`
	Image string `json:"image"`
}
