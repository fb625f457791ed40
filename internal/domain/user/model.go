package user

import "time"

type User struct {
	ID        int
	Login     string
	Password  string // bcrypt-хэш
	CreatedAt time.Time
}

// Credentials тело запросов регистрации и входа
type Credentials struct {
	Login    string `json:"login" doc:"User login"`
	Password string `json:"password" doc:"User password"`
}
