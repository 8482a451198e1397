package notify

import (
	"net/smtp"

	"github.com/rotisserie/eris"
)

// login implements the AUTH LOGIN mechanism, which stdlib net/smtp
// does not ship and which most managed SMTP relays still expect.
type login struct {
	user, password string
}

func loginAuth(user, password string) smtp.Auth {
	return &login{user: user, password: password}
}

func (a *login) Start(server *smtp.ServerInfo) (string, []byte, error) {
	if !server.TLS {
		return "", nil, eris.New("smtp: refusing LOGIN auth without TLS")
	}
	return "LOGIN", nil, nil
}

func (a *login) Next(fromServer []byte, more bool) ([]byte, error) {
	if !more {
		return nil, nil
	}
	switch string(fromServer) {
	case "Username:":
		return []byte(a.user), nil
	case "Password:":
		return []byte(a.password), nil
	default:
		return nil, eris.Errorf("smtp: unexpected LOGIN challenge %q", fromServer)
	}
}
