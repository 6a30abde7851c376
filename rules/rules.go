// Package rules holds what every rule program shares: entry point
// selectors, instruction framing and access to the engine's authenticator
// records, which rule programs read to learn which wallet a signer acts for.
package rules

import (
	"crypto/sha256"
	"fmt"

	"github.com/layer-3/smartwallet/core"
	"github.com/layer-3/smartwallet/internal/layout"
	"github.com/layer-3/smartwallet/pda"
	"github.com/layer-3/smartwallet/runtime"
)

// Kind classifies a rule program.
type Kind int

const (
	KindExternal Kind = iota
	KindDefault
	KindTransferLimit
)

func (k Kind) String() string {
	switch k {
	case KindDefault:
		return "default"
	case KindTransferLimit:
		return "transfer_limit"
	default:
		return "external"
	}
}

// KindOf returns the kind of a rule program id.
func KindOf(id core.Address) Kind {
	switch id {
	case core.DefaultRuleID:
		return KindDefault
	case core.TransferLimitID:
		return KindTransferLimit
	default:
		return KindExternal
	}
}

// EntryPoint names the entry point data selects, or "" if unknown.
func EntryPoint(data []byte) string {
	for name, sel := range map[string]core.Selector{
		"init_rule":  core.SelectorInitRule,
		"check_rule": core.SelectorCheckRule,
		"destroy":    core.SelectorDestroy,
		"add_member": core.SelectorAddMember,
	} {
		if sel.Matches(data) {
			return name
		}
	}
	return ""
}

// AccountDiscriminator tags rule records: sha256("account:<name>")[:8].
func AccountDiscriminator(name string) [8]byte {
	sum := sha256.Sum256([]byte("account:" + name))
	var d [8]byte
	copy(d[:], sum[:8])
	return d
}

// Encode frames rule instruction data: selector then args.
func Encode(sel core.Selector, args func(*layout.Writer)) []byte {
	w := layout.NewWriter(64)
	w.Raw(sel[:])
	if args != nil {
		args(w)
	}
	return w.Bytes()
}

// Decode splits instruction data into selector and argument reader.
func Decode(data []byte) (core.Selector, *layout.Reader, error) {
	var sel core.Selector
	if len(data) < len(sel) {
		return sel, nil, fmt.Errorf("%w: missing selector", core.ErrInvalidInstructionData)
	}
	copy(sel[:], data)
	return sel, layout.NewReader(data[len(sel):]), nil
}

// Finish converts a reader error into an instruction data error.
func Finish(r *layout.Reader) error {
	if err := r.Finish(); err != nil {
		return fmt.Errorf("%w: %v", core.ErrInvalidInstructionData, err)
	}
	return nil
}

// Authenticator reads an engine authenticator record and checks that it
// sits at the address derived from its own passkey and wallet, which proves
// the engine created it.
func Authenticator(info *runtime.AccountInfo) (*core.Authenticator, error) {
	if info.Owner() != core.ProgramID {
		return nil, fmt.Errorf("%w: authenticator %s not owned by engine", core.ErrInvalidAuthenticator, info.Key)
	}
	auth := &core.Authenticator{}
	if err := auth.UnmarshalBinary(info.Data()); err != nil {
		return nil, err
	}
	d, err := pda.Authenticator(core.ProgramID, auth.Passkey, auth.Wallet)
	if err != nil {
		return nil, err
	}
	if d.Address() != info.Key {
		return nil, fmt.Errorf("%w: %s", core.ErrInvalidAuthenticator, info.Key)
	}
	return auth, nil
}

// SignedAuthenticator is Authenticator for an account that must sign.
func SignedAuthenticator(info *runtime.AccountInfo) (*core.Authenticator, error) {
	if !info.IsSigner {
		return nil, fmt.Errorf("%w: authenticator %s must sign", core.ErrInvalidAuthenticator, info.Key)
	}
	return Authenticator(info)
}
