package core

import "time"

// WalletCreated is emitted after a wallet and its first authenticator exist.
type WalletCreated struct {
	Wallet        Address   `json:"wallet"`
	ID            uint64    `json:"id"`
	Authenticator Address   `json:"authenticator"`
	Passkey       Passkey   `json:"passkey"`
	TxID          string    `json:"tx_id"`
	At            time.Time `json:"at"`
}

// ActionExecuted is emitted after an authorized action commits.
type ActionExecuted struct {
	Wallet        Address   `json:"wallet"`
	Authenticator Address   `json:"authenticator"`
	Action        string    `json:"action"`
	Nonce         uint64    `json:"nonce"`
	TxID          string    `json:"tx_id"`
	At            time.Time `json:"at"`
}
