package auth

// LoginInput contains the input for user login
type LoginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// SignupInput contains the input for account creation
type SignupInput struct {
	Username string `json:"username" validate:"required,max=50"`
	Nickname string `json:"nickname" validate:"required,max=50"`
	Password string `json:"password" validate:"required"`
}

// loginResponse is the body returned by POST /users/login
type loginResponse struct {
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
	Nickname string `json:"nickname"`
	Token    string `json:"token"`
}
