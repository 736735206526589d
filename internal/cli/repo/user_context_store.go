package repo

// UserContextStore абстракция для хранения контекста пользователя (UID последнего входа).
type UserContextStore interface {
	SaveUID(uid string) error
	LoadUID() (string, error)
}

// AuthStore — токен и UID вместе.
type AuthStore interface {
	TokenStore
	UserContextStore
}
