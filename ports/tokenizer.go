package ports

import "github.com/layer-3/smartwallet/core"

// Tokenizer issues and verifies admin bearer tokens
type Tokenizer interface {
	IssueAdminToken(subject string) (string, error)
	ParseAdminToken(token string) (*core.AdminSession, error)
}
