package ports

import "github.com/layer-3/simorgh/core"

// Tokenizer converts between sessions and signed bearer tokens. It is pure:
// signature and type are verified here, expiry and revocation are checked by
// the caller against the returned session.
type Tokenizer interface {
	SessionToAccessToken(session *core.Session) (string, error)
	AccessTokenToSession(token string) (*core.Session, error)
	SessionToRefreshToken(session *core.Session) (string, error)
	RefreshTokenToSession(token string) (*core.Session, error)
}
