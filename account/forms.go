package account

type registerForm struct {
	Email    string `schema:"email" validate:"required,email"`
	Password string `schema:"password" validate:"required,min=8"`
}

type loginForm struct {
	Email    string `schema:"email" validate:"required"`
	Password string `schema:"password" validate:"required"`
	Next     string `schema:"next"`
}

type twoFactorForm struct {
	Code string `schema:"code" validate:"required"`
}

type forgotForm struct {
	Email string `schema:"email" validate:"required,email"`
}

type resetForm struct {
	Token    string `schema:"token" validate:"required"`
	Password string `schema:"password" validate:"required,min=8"`
}

type changeEmailForm struct {
	Email    string `schema:"email" validate:"required,email"`
	Password string `schema:"password" validate:"required"`
}

type changePasswordForm struct {
	Current string `schema:"current_password" validate:"required"`
	Updated string `schema:"new_password" validate:"required,min=8"`
}

type twoFactorToggleForm struct {
	Enabled bool `schema:"enabled"`
}
