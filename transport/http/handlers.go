package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/layer-3/smartwallet/core"
	"github.com/layer-3/smartwallet/runtime"
	"github.com/layer-3/smartwallet/sdk"
	"github.com/layer-3/smartwallet/service"
)

// WalletHandlers contains HTTP handlers for wallet endpoints
type WalletHandlers struct {
	walletService *service.WalletService
}

// NewWalletHandlers creates new wallet handlers
func NewWalletHandlers(walletService *service.WalletService) *WalletHandlers {
	return &WalletHandlers{
		walletService: walletService,
	}
}

// CreateWallet creates a wallet controlled by a passkey
func (h *WalletHandlers) CreateWallet(c *gin.Context) {
	var req struct {
		Passkey core.Passkey `json:"passkey" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	wallet, auth, err := h.walletService.CreateWallet(c.Request.Context(), req.Passkey)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"address":       wallet.Address,
		"id":            wallet.ID,
		"wallet_config": wallet.WalletConfig,
		"rule_program":  wallet.RuleProgram,
		"authenticator": auth.Address,
	})
}

// GetWallet returns a wallet and its balance
func (h *WalletHandlers) GetWallet(c *gin.Context) {
	address, ok := addressParam(c)
	if !ok {
		return
	}

	wallet, err := h.walletService.Wallet(c.Request.Context(), address)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"address":       wallet.Address,
		"id":            wallet.ID,
		"wallet_config": wallet.WalletConfig,
		"rule_program":  wallet.RuleProgram,
		"lamports":      wallet.Lamports,
		"balance":       sol(wallet.Lamports),
	})
}

// GetAuthenticator returns the record of a passkey on a wallet
func (h *WalletHandlers) GetAuthenticator(c *gin.Context) {
	address, ok := addressParam(c)
	if !ok {
		return
	}
	passkey, err := core.ParsePasskey(c.Param("passkey"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid passkey"})
		return
	}

	auth, err := h.walletService.Authenticator(c.Request.Context(), address, passkey)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"address": auth.Address,
		"wallet":  auth.Wallet,
		"passkey": auth.Passkey,
		"nonce":   auth.Nonce,
	})
}

// PrepareTransfer builds a native transfer out of a wallet and the message
// its passkey must sign
func (h *WalletHandlers) PrepareTransfer(c *gin.Context) {
	address, ok := addressParam(c)
	if !ok {
		return
	}
	var req struct {
		Passkey  core.Passkey `json:"passkey" binding:"required"`
		To       core.Address `json:"to" binding:"required"`
		Lamports uint64       `json:"lamports" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	ctx := c.Request.Context()
	action, err := h.walletService.NativeTransferRequest(ctx, address, req.Passkey, req.To, req.Lamports)
	if err != nil {
		writeError(c, err)
		return
	}
	h.prepare(c, action)
}

// PrepareMessage returns the message a passkey must sign to authorize an action
func (h *WalletHandlers) PrepareMessage(c *gin.Context) {
	address, ok := addressParam(c)
	if !ok {
		return
	}
	var req ActionJSON
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	action, err := req.request(address)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid action"})
		return
	}
	h.prepare(c, action)
}

func (h *WalletHandlers) prepare(c *gin.Context, action *sdk.Request) {
	msg, err := h.walletService.PrepareMessage(c.Request.Context(), action)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, PreparedAction{Request: newActionJSON(action), Message: newMessageJSON(msg)})
}

// Execute relays a signed action
func (h *WalletHandlers) Execute(c *gin.Context) {
	address, ok := addressParam(c)
	if !ok {
		return
	}
	var req ExecuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	action, err := req.request(address)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid action"})
		return
	}
	msg, err := core.ParseMessage(req.Message)
	if err != nil {
		writeError(c, err)
		return
	}

	result, err := h.walletService.Execute(c.Request.Context(), action, *msg, req.Signature)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tx":    result.TxID,
		"nonce": result.Nonce,
		"fee":   result.Fee,
		"logs":  result.Logs,
	})
}

// AddRuleProgram whitelists a rule program
func (h *WalletHandlers) AddRuleProgram(c *gin.Context) {
	var req struct {
		Program core.Address `json:"program" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if err := h.walletService.AddRuleProgram(c.Request.Context(), req.Program); err != nil {
		writeError(c, err)
		return
	}
	h.ListRulePrograms(c)
}

// ListRulePrograms returns the whitelisted rule programs
func (h *WalletHandlers) ListRulePrograms(c *gin.Context) {
	programs, err := h.walletService.RulePrograms(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"programs": programs})
}

// Airdrop credits lamports to an address
func (h *WalletHandlers) Airdrop(c *gin.Context) {
	var req struct {
		Address  core.Address `json:"address" binding:"required"`
		Lamports uint64       `json:"lamports" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	ctx := c.Request.Context()
	if err := h.walletService.Airdrop(ctx, req.Address, req.Lamports); err != nil {
		writeError(c, err)
		return
	}
	balance, err := h.walletService.Balance(ctx, req.Address)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"address":  req.Address,
		"lamports": balance,
		"balance":  sol(balance),
	})
}

func addressParam(c *gin.Context) (core.Address, bool) {
	address, err := core.ParseAddress(c.Param("address"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid address"})
		return core.Address{}, false
	}
	return address, true
}

// writeError maps service, engine and runtime failures to HTTP responses
func writeError(c *gin.Context, err error) {
	if coded, ok := core.CodeOf(err); ok {
		statusCode := http.StatusUnprocessableEntity
		if coded == core.ErrUnauthorized {
			statusCode = http.StatusForbidden
		}
		c.JSON(statusCode, gin.H{"error": err.Error(), "code": coded.Code, "name": coded.Name})
		return
	}

	statusCode := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrWalletNotFound), errors.Is(err, service.ErrAuthenticatorNotFound):
		statusCode = http.StatusNotFound
	case errors.Is(err, service.ErrNotInitialized):
		statusCode = http.StatusServiceUnavailable
	case errors.Is(err, service.ErrUnsupportedRule), errors.Is(err, sdk.ErrMissingInvocation):
		statusCode = http.StatusBadRequest
	case errors.Is(err, runtime.ErrInsufficientFundsForFee):
		statusCode = http.StatusPaymentRequired
	case isRuntimeRejection(err):
		statusCode = http.StatusUnprocessableEntity
	}

	c.JSON(statusCode, gin.H{"error": err.Error()})
}

func isRuntimeRejection(err error) bool {
	for _, target := range []error{
		runtime.ErrMissingSignature,
		runtime.ErrPrivilegeEscalation,
		runtime.ErrMissingAccount,
		runtime.ErrUnknownProgram,
		runtime.ErrCallDepth,
		runtime.ErrReadonlyAccount,
		runtime.ErrExternalAccountModified,
		runtime.ErrAccountAlreadyInUse,
		runtime.ErrAccountDataSize,
		runtime.ErrInsufficientLamports,
		runtime.ErrInvalidInstruction,
		runtime.ErrInvalidSeeds,
		runtime.ErrPrecompileFailed,
		runtime.ErrInstructionIndex,
		runtime.ErrUnbalanced,
		runtime.ErrEmptyTransaction,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
