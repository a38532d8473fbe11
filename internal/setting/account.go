package setting

import (
	"context"

	"ehclient/lib/cookies"
	"ehclient/lib/flow"
)

// AccountState mirrors the session cookies.
type AccountState struct {
	MemberID string
	PassHash string
	Igneous  string
	LoggedIn bool
}

type AccountAction interface {
	accountAction()
}

// Login stores credentials obtained elsewhere and starts the session.
type Login struct {
	MemberID string
	PassHash string
}

type LoginDone struct{}
type LogoutConfirmed struct{}

// LoadCookies refreshes AccountState from the cookie store.
type LoadCookies struct{}

func (Login) accountAction()           {}
func (LoginDone) accountAction()       {}
func (LogoutConfirmed) accountAction() {}
func (LoadCookies) accountAction()     {}

type AccountEnv struct {
	Cookies CookieStore
}

func reduceAccount(state *AccountState, action AccountAction, env AccountEnv) []flow.Effect[AccountAction] {
	switch action := action.(type) {
	case Login:
		return []flow.Effect[AccountAction]{
			flow.Task("setting/account/login", func(ctx context.Context) AccountAction {
				env.Cookies.SetCredentials(action.MemberID, action.PassHash)
				return LoginDone{}
			}),
		}

	case LoginDone:
		return []flow.Effect[AccountAction]{flow.Send[AccountAction](LoadCookies{})}

	case LogoutConfirmed:
		*state = AccountState{}
		return nil

	case LoadCookies:
		host := env.Cookies.EHentai()
		state.MemberID = env.Cookies.GetCookie(host, cookies.MEMBER_ID)
		state.PassHash = env.Cookies.GetCookie(host, cookies.PASS_HASH)
		state.Igneous = env.Cookies.GetCookie(env.Cookies.ExHentai(), cookies.IGNEOUS)
		state.LoggedIn = env.Cookies.DidLogin()
		return nil
	}
	return nil
}
