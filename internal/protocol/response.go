package protocol

import "github.com/mcoot/creditshop/internal/model"

// Response status values
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// AccountView is the account state reported to a client
type AccountView struct {
	Nickname   string   `json:"nickname"`
	Credits    int      `json:"credits"`
	OwnedItems []string `json:"owned_items"`
}

// NewAccountView builds the wire view of an account
func NewAccountView(account *model.Account) *AccountView {
	owned := account.OwnedItems
	if owned == nil {
		owned = []string{}
	}
	return &AccountView{
		Nickname:   account.Nickname,
		Credits:    account.Credits,
		OwnedItems: owned,
	}
}

// Response is a single server frame. The embedded account view is inlined
// when present.
type Response struct {
	Status  string `json:"status"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`

	*AccountView

	Catalog []model.Item `json:"catalog,omitempty"`
	// Bonus is set on login responses only, including when it is zero
	Bonus   *int         `json:"bonus,omitempty"`
	Created bool         `json:"created,omitempty"`
}

// OK returns a successful response with an optional message
func OK(message string) Response {
	return Response{Status: StatusOK, Message: message}
}

// Error returns an error response
func Error(code, message string) Response {
	return Response{Status: StatusError, Code: code, Message: message}
}

// GrantedBonus returns the login bonus, or 0 when the response carries none
func (r Response) GrantedBonus() int {
	if r.Bonus == nil {
		return 0
	}
	return *r.Bonus
}

// IsOK reports whether the response is a success
func (r Response) IsOK() bool {
	return r.Status == StatusOK
}
