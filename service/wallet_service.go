package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/layer-3/smartwallet/core"
	"github.com/layer-3/smartwallet/ports"
	"github.com/layer-3/smartwallet/program"
	"github.com/layer-3/smartwallet/rules"
	"github.com/layer-3/smartwallet/rules/defaultrule"
	"github.com/layer-3/smartwallet/rules/transferlimit"
	"github.com/layer-3/smartwallet/runtime"
	"github.com/layer-3/smartwallet/sdk"
)

var (
	// ErrWalletNotFound is returned when no wallet exists at an address
	ErrWalletNotFound = errors.New("wallet not found")
	// ErrAuthenticatorNotFound is returned when a passkey is not enrolled on a wallet
	ErrAuthenticatorNotFound = errors.New("authenticator not found")
	// ErrNotInitialized is returned before Bootstrap has run
	ErrNotInitialized = errors.New("engine not initialized")
	// ErrUnsupportedRule is returned when the service cannot build checks for a rule program
	ErrUnsupportedRule = errors.New("unsupported rule program")
)

// WalletInfo describes a wallet
type WalletInfo struct {
	Address      core.Address
	ID           uint64
	WalletConfig core.Address
	RuleProgram  core.Address
	Lamports     uint64
}

// AuthenticatorInfo describes an enrolled passkey
type AuthenticatorInfo struct {
	Address core.Address
	Passkey core.Passkey
	Wallet  core.Address
	Nonce   uint64
}

// ExecuteResult is the outcome of a relayed action
type ExecuteResult struct {
	TxID  string
	Nonce uint64
	Fee   uint64
	Logs  []string
}

// WalletService relays passkey-authorized requests to the engine. The
// relayer pays transaction fees and is reimbursed by the wallets.
type WalletService struct {
	rt        *runtime.Runtime
	tokenizer ports.Tokenizer
	eventPub  ports.EventPublisher
	clock     ports.Clock
	relayer   core.Address
	logger    zerolog.Logger
}

// Option configures a WalletService
type Option func(*WalletService)

// WithLogger sets the service logger
func WithLogger(l zerolog.Logger) Option {
	return func(s *WalletService) { s.logger = l }
}

// NewWalletService creates a new wallet service. The engine and rule
// programs are registered on rt.
func NewWalletService(
	rt *runtime.Runtime,
	tokenizer ports.Tokenizer,
	eventPub ports.EventPublisher,
	clock ports.Clock,
	relayer core.Address,
	opts ...Option,
) *WalletService {
	s := &WalletService{
		rt:        rt,
		tokenizer: tokenizer,
		eventPub:  eventPub,
		clock:     clock,
		relayer:   relayer,
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	rt.Register(program.New())
	rt.Register(defaultrule.New())
	rt.Register(transferlimit.New())
	return s
}

// Relayer is the fee payer of every relayed transaction
func (s *WalletService) Relayer() core.Address { return s.relayer }

// Bootstrap initializes the engine with the relayer as admin and
// whitelists the transfer limit rule. It is a no-op once initialized.
func (s *WalletService) Bootstrap(ctx context.Context, args program.InitializeArgs) error {
	acc, err := s.rt.Account(ctx, program.ConfigAddress())
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}
	if !acc.IsEmpty() {
		return nil
	}

	tx := &runtime.Transaction{
		FeePayer: s.relayer,
		Instructions: []runtime.Instruction{
			sdk.InitializeInstruction(s.relayer, args),
			sdk.UpsertWhitelistInstruction(s.relayer, core.TransferLimitID),
		},
	}
	if _, err := s.rt.Execute(ctx, tx); err != nil {
		return fmt.Errorf("failed to initialize engine: %w", err)
	}

	s.logger.Info().
		Str("admin", s.relayer.String()).
		Int64("replay_window", args.ReplayWindow).
		Msg("engine initialized")
	return nil
}

// CreateWallet creates the next wallet, controlled by passkey
func (s *WalletService) CreateWallet(ctx context.Context, passkey core.Passkey) (*WalletInfo, *AuthenticatorInfo, error) {
	seq, err := s.sequence(ctx)
	if err != nil {
		return nil, nil, err
	}

	ix, addrs, err := sdk.CreateSmartWalletInstruction(s.relayer, seq.Seq, passkey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build instruction: %w", err)
	}
	receipt, err := s.rt.Execute(ctx, &runtime.Transaction{FeePayer: s.relayer, Instructions: []runtime.Instruction{ix}})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create wallet: %w", err)
	}

	wallet, err := s.Wallet(ctx, addrs.Wallet)
	if err != nil {
		return nil, nil, err
	}
	auth, err := s.Authenticator(ctx, addrs.Wallet, passkey)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info().
		Str("wallet", wallet.Address.String()).
		Uint64("id", wallet.ID).
		Str("tx", receipt.ID).
		Msg("wallet created")

	event := core.WalletCreated{
		Wallet:        wallet.Address,
		ID:            wallet.ID,
		Authenticator: auth.Address,
		Passkey:       passkey,
		TxID:          receipt.ID,
		At:            s.clock.Now(),
	}
	if err := s.eventPub.PublishWalletCreated(ctx, event); err != nil {
		// The wallet exists; the event is best effort.
		s.logger.Warn().Err(err).Str("wallet", wallet.Address.String()).Msg("failed to publish wallet event")
	}

	return wallet, auth, nil
}

// Wallet loads the wallet at address
func (s *WalletService) Wallet(ctx context.Context, address core.Address) (*WalletInfo, error) {
	cfgAddr, err := sdk.WalletConfigAddress(address)
	if err != nil {
		return nil, err
	}
	cfgAcc, err := s.rt.Account(ctx, cfgAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to load wallet config: %w", err)
	}
	if cfgAcc.Owner != core.ProgramID {
		return nil, ErrWalletNotFound
	}
	cfg := &core.WalletConfig{}
	if err := cfg.UnmarshalBinary(cfgAcc.Data); err != nil {
		return nil, ErrWalletNotFound
	}

	walletAcc, err := s.rt.Account(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("failed to load wallet: %w", err)
	}

	return &WalletInfo{
		Address:      address,
		ID:           cfg.ID,
		WalletConfig: cfgAddr,
		RuleProgram:  cfg.RuleProgram,
		Lamports:     walletAcc.Lamports,
	}, nil
}

// Authenticator loads the record of passkey on wallet
func (s *WalletService) Authenticator(ctx context.Context, wallet core.Address, passkey core.Passkey) (*AuthenticatorInfo, error) {
	addr, err := sdk.AuthenticatorAddress(passkey, wallet)
	if err != nil {
		return nil, err
	}
	acc, err := s.rt.Account(ctx, addr)
	if err != nil {
		return nil, fmt.Errorf("failed to load authenticator: %w", err)
	}
	if acc.Owner != core.ProgramID {
		return nil, ErrAuthenticatorNotFound
	}
	auth := &core.Authenticator{}
	if err := auth.UnmarshalBinary(acc.Data); err != nil {
		return nil, ErrAuthenticatorNotFound
	}

	return &AuthenticatorInfo{Address: addr, Passkey: auth.Passkey, Wallet: auth.Wallet, Nonce: auth.Nonce}, nil
}

// PrepareMessage returns the message passkey must sign to authorize req
// now. The relayer becomes the request's payer.
func (s *WalletService) PrepareMessage(ctx context.Context, req *sdk.Request) (core.Message, error) {
	auth, err := s.Authenticator(ctx, req.Wallet, req.Passkey)
	if err != nil {
		return core.Message{}, err
	}
	req.Payer = s.relayer
	return req.Message(auth.Nonce, s.clock.Now()), nil
}

// NativeTransferRequest builds a request moving lamports from wallet to a
// destination, with the check the wallet's rule program expects.
func (s *WalletService) NativeTransferRequest(ctx context.Context, wallet core.Address, passkey core.Passkey, to core.Address, lamports uint64) (*sdk.Request, error) {
	info, err := s.Wallet(ctx, wallet)
	if err != nil {
		return nil, err
	}
	authAddr, err := sdk.AuthenticatorAddress(passkey, wallet)
	if err != nil {
		return nil, err
	}

	transfer := runtime.TransferInstruction(wallet, to, lamports)
	var check runtime.Instruction
	switch rules.KindOf(info.RuleProgram) {
	case rules.KindDefault:
		check, err = defaultrule.CheckRuleInstruction(wallet, authAddr)
	case rules.KindTransferLimit:
		check, err = transferlimit.CheckRuleInstruction(wallet, authAddr, transferlimit.CheckRuleArgs{
			CpiData:   transfer.Data,
			ProgramID: transfer.ProgramID,
		})
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedRule, info.RuleProgram)
	}
	if err != nil {
		return nil, err
	}

	return &sdk.Request{
		Payer:   s.relayer,
		Wallet:  wallet,
		Passkey: passkey,
		Action:  core.ActionExecuteCpi,
		Rule:    check,
		Cpi:     &transfer,
	}, nil
}

// Execute relays a signed request
func (s *WalletService) Execute(ctx context.Context, req *sdk.Request, msg core.Message, signature []byte) (*ExecuteResult, error) {
	req.Payer = s.relayer
	tx, err := req.Transaction(msg, signature)
	if err != nil {
		return nil, fmt.Errorf("failed to build transaction: %w", err)
	}

	receipt, err := s.rt.Execute(ctx, tx)
	if err != nil {
		s.logger.Debug().
			Err(err).
			Str("wallet", req.Wallet.String()).
			Str("action", req.Action.String()).
			Strs("logs", receipt.Logs).
			Msg("action rejected")
		return nil, err
	}

	auth, err := s.Authenticator(ctx, req.Wallet, req.Passkey)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("wallet", req.Wallet.String()).
		Str("action", req.Action.String()).
		Uint64("nonce", auth.Nonce).
		Str("tx", receipt.ID).
		Msg("action executed")

	event := core.ActionExecuted{
		Wallet:        req.Wallet,
		Authenticator: auth.Address,
		Action:        req.Action.String(),
		Nonce:         auth.Nonce,
		TxID:          receipt.ID,
		At:            s.clock.Now(),
	}
	if err := s.eventPub.PublishActionExecuted(ctx, event); err != nil {
		s.logger.Warn().Err(err).Str("wallet", req.Wallet.String()).Msg("failed to publish action event")
	}

	return &ExecuteResult{TxID: receipt.ID, Nonce: auth.Nonce, Fee: receipt.Fee, Logs: receipt.Logs}, nil
}

// AddRuleProgram whitelists a rule program, signed by the relayer as admin
func (s *WalletService) AddRuleProgram(ctx context.Context, rule core.Address) error {
	tx := &runtime.Transaction{
		FeePayer:     s.relayer,
		Instructions: []runtime.Instruction{sdk.UpsertWhitelistInstruction(s.relayer, rule)},
	}
	if _, err := s.rt.Execute(ctx, tx); err != nil {
		return fmt.Errorf("failed to whitelist rule program: %w", err)
	}
	s.logger.Info().Str("program", rule.String()).Msg("rule program whitelisted")
	return nil
}

// RulePrograms lists the whitelisted rule programs
func (s *WalletService) RulePrograms(ctx context.Context) ([]core.Address, error) {
	acc, err := s.rt.Account(ctx, program.WhitelistAddress())
	if err != nil {
		return nil, err
	}
	if acc.Owner != core.ProgramID {
		return nil, ErrNotInitialized
	}
	wl := &core.Whitelist{}
	if err := wl.UnmarshalBinary(acc.Data); err != nil {
		return nil, err
	}
	return wl.Programs, nil
}

// Balance returns the lamports held by address
func (s *WalletService) Balance(ctx context.Context, address core.Address) (uint64, error) {
	acc, err := s.rt.Account(ctx, address)
	if err != nil {
		return 0, err
	}
	return acc.Lamports, nil
}

// Airdrop credits lamports to address
func (s *WalletService) Airdrop(ctx context.Context, address core.Address, lamports uint64) error {
	if err := s.rt.Airdrop(ctx, address, lamports); err != nil {
		return fmt.Errorf("failed to airdrop: %w", err)
	}
	s.logger.Info().Str("address", address.String()).Uint64("lamports", lamports).Msg("airdrop")
	return nil
}

// IssueAdminToken creates an admin bearer token for subject
func (s *WalletService) IssueAdminToken(subject string) (string, error) {
	return s.tokenizer.IssueAdminToken(subject)
}

// ValidateAdminToken checks an admin bearer token
func (s *WalletService) ValidateAdminToken(ctx context.Context, token string) (*core.AdminSession, error) {
	return s.tokenizer.ParseAdminToken(token)
}

func (s *WalletService) sequence(ctx context.Context) (*core.Sequence, error) {
	acc, err := s.rt.Account(ctx, program.SequenceAddress())
	if err != nil {
		return nil, fmt.Errorf("failed to read sequence: %w", err)
	}
	if acc.Owner != core.ProgramID {
		return nil, ErrNotInitialized
	}
	seq := &core.Sequence{}
	if err := seq.UnmarshalBinary(acc.Data); err != nil {
		return nil, err
	}
	return seq, nil
}
