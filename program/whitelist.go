package program

import (
	"github.com/layer-3/smartwallet/core"
	"github.com/layer-3/smartwallet/runtime"
)

// UpsertWhitelist accounts, in order.
const (
	upsertAdmin = iota
	upsertConfig
	upsertWhitelist
	upsertAccountCount
)

// upsertWhitelist appends a rule program. Already listed programs are a no-op.
func (p *Program) upsertWhitelist(ctx *runtime.Context, accounts []*runtime.AccountInfo, args UpsertWhitelistArgs) error {
	if err := requireAccounts(accounts, upsertAccountCount); err != nil {
		return err
	}
	admin := accounts[upsertAdmin]
	cfg, err := loadConfig(accounts[upsertConfig])
	if err != nil {
		return err
	}
	if !admin.IsSigner || admin.Key != cfg.Admin {
		return core.ErrUnauthorized
	}

	wl, err := loadWhitelist(accounts[upsertWhitelist])
	if err != nil {
		return err
	}
	if wl.Contains(args.Program) {
		return nil
	}
	if len(wl.Programs) >= core.MaxWhitelistEntries {
		return core.ErrWhitelistFull
	}
	wl.Programs = append(wl.Programs, args.Program)

	ctx.Log("whitelisted rule program %s", args.Program)
	return writeRecord(ctx, accounts[upsertWhitelist], wl)
}
