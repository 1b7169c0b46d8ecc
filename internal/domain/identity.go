package domain

// Identity: проверенная личность вызывающего, полученная от сервиса аутентификации.
type Identity struct {
	Subject string
	Name    string
	Email   string
	Phone   string
}

func NewIdentity(subject, name, email, phone string) Identity {
	return Identity{
		Subject: subject,
		Name:    name,
		Email:   email,
		Phone:   phone,
	}
}
