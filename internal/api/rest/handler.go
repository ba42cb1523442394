package rest

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/walletgraph/walletgraph/internal/api/middleware"
	"github.com/walletgraph/walletgraph/internal/domain"
	"github.com/walletgraph/walletgraph/internal/ownership"
	"github.com/walletgraph/walletgraph/internal/resolver"
)

const (
	defaultMembersPageSize = 20
	maxMembersPageSize     = 100
)

// Handler defines the interface for REST API handlers
type Handler interface {
	// GetMe retrieves the authenticated user
	// GET /api/v1/me
	GetMe(c *gin.Context)

	// GetMyWallets retrieves the authenticated user's wallets as a connection
	// GET /api/v1/me/wallets?chain=<chain>&addresses=<a1>,<a2>
	GetMyWallets(c *gin.Context)

	// GetMyCollections retrieves the collections the authenticated user holds
	// NFTs in, with chat metadata and read markers
	// GET /api/v1/me/collections
	GetMyCollections(c *gin.Context)

	// GetWallet composes a wallet view for a chain and address
	// GET /api/v1/wallets/:chain/:address
	GetWallet(c *gin.Context)

	// GetWalletBalances retrieves native and token balances for a wallet
	// GET /api/v1/wallets/:chain/:address/balances
	GetWalletBalances(c *gin.Context)

	// GetWalletNfts retrieves the NFTs held by a wallet as a connection
	// GET /api/v1/wallets/:chain/:address/nfts?mints=<m1>,<m2>
	GetWalletNfts(c *gin.Context)

	// GetWalletTransactions retrieves a page of wallet transaction history
	// GET /api/v1/wallets/:chain/:address/transactions?before=<cursor>&after=<cursor>&limit=<n>
	GetWalletTransactions(c *gin.Context)

	// GetMySummaries retrieves aggregated wallet summaries for the user
	// GET /api/v1/me/summary?chain=<chain>&limit=<n>
	GetMySummaries(c *gin.Context)

	// GetCollectionMembers retrieves a page of users holding NFTs in a collection
	// GET /api/v1/collections/:id/members?prefix=<p>&limit=<n>&offset=<n>
	GetCollectionMembers(c *gin.Context)

	// ValidateCollectionOwnership checks the user holds a mint in a collection
	// POST /api/v1/ownership/collection
	ValidateCollectionOwnership(c *gin.Context)

	// ValidateGroupOwnership resolves the collection backing a centralized
	// group membership
	// POST /api/v1/ownership/group
	ValidateGroupOwnership(c *gin.Context)

	// HealthCheck returns the health status of the API
	// GET /health
	HealthCheck(c *gin.Context)
}

// handler implements the Handler interface
type handler struct {
	resolver  *resolver.Resolver
	validator *ownership.Validator
}

// NewHandler creates a new REST API handler
func NewHandler(r *resolver.Resolver, v *ownership.Validator) Handler {
	return &handler{
		resolver:  r,
		validator: v,
	}
}

// authSubject extracts the authenticated user id, rejecting requests that
// authenticated without one (API keys carry no subject)
func authSubject(c *gin.Context) (string, bool) {
	subject := middleware.AuthSubject(c)
	if subject == "" {
		respondUnauthorized(c, "Request is not authenticated as a user")
		return "", false
	}
	return subject, true
}

// isClientInputError reports whether an error should map to a 400
func isClientInputError(err error) bool {
	return errors.Is(err, domain.ErrUnknownChain) ||
		errors.Is(err, domain.ErrUnsupportedChain) ||
		errors.Is(err, domain.ErrInvalidAddress)
}

// GetMe retrieves the authenticated user
func (h *handler) GetMe(c *gin.Context) {
	userID, ok := authSubject(c)
	if !ok {
		return
	}

	user, err := h.resolver.User(c.Request.Context(), userID)
	if err != nil {
		respondInternalError(c, err, "Failed to resolve user", zap.String("user_id", userID))
		return
	}
	if user == nil {
		respondNotFound(c, "User not found")
		return
	}

	c.JSON(http.StatusOK, user)
}

// GetMyWallets retrieves the authenticated user's wallets as a connection
func (h *handler) GetMyWallets(c *gin.Context) {
	userID, ok := authSubject(c)
	if !ok {
		return
	}

	filter := resolver.WalletFilter{
		ChainID: c.Query("chain"),
	}
	if addresses := c.Query("addresses"); addresses != "" {
		filter.Addresses = strings.Split(addresses, ",")
	}

	conn, err := h.resolver.Wallets(c.Request.Context(), userID, filter)
	if err != nil {
		if isClientInputError(err) {
			respondBadRequest(c, "Invalid wallet filter", err.Error())
			return
		}
		respondInternalError(c, err, "Failed to resolve wallets", zap.String("user_id", userID))
		return
	}

	c.JSON(http.StatusOK, gin.H{"wallets": conn})
}

// GetMyCollections retrieves the user's collection memberships
func (h *handler) GetMyCollections(c *gin.Context) {
	userID, ok := authSubject(c)
	if !ok {
		return
	}

	memberships, err := h.validator.GetAllCollectionsFor(c.Request.Context(), userID)
	if err != nil {
		respondInternalError(c, err, "Failed to resolve collections", zap.String("user_id", userID))
		return
	}

	c.JSON(http.StatusOK, gin.H{"collections": memberships})
}

// walletFromParams composes the wallet view from path parameters
func (h *handler) walletFromParams(c *gin.Context) (*domain.Wallet, bool) {
	wallet, err := h.resolver.Wallet(c.Param("chain"), c.Param("address"))
	if err != nil {
		respondBadRequest(c, "Invalid wallet reference", err.Error())
		return nil, false
	}
	return wallet, true
}

// GetWallet composes a wallet view for a chain and address
func (h *handler) GetWallet(c *gin.Context) {
	wallet, ok := h.walletFromParams(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, wallet)
}

// GetWalletBalances retrieves native and token balances for a wallet
func (h *handler) GetWalletBalances(c *gin.Context) {
	wallet, ok := h.walletFromParams(c)
	if !ok {
		return
	}

	balances, err := h.resolver.Balances(c.Request.Context(), *wallet)
	if err != nil {
		if isClientInputError(err) {
			respondBadRequest(c, "Invalid wallet reference", err.Error())
			return
		}
		respondInternalError(c, err, "Failed to resolve balances", zap.String("wallet_id", wallet.ID))
		return
	}

	c.JSON(http.StatusOK, balances)
}

// GetWalletNfts retrieves the NFTs held by a wallet as a connection
func (h *handler) GetWalletNfts(c *gin.Context) {
	wallet, ok := h.walletFromParams(c)
	if !ok {
		return
	}

	var mints []string
	if raw := c.Query("mints"); raw != "" {
		mints = strings.Split(raw, ",")
	}

	conn, err := h.resolver.Nfts(c.Request.Context(), *wallet, mints)
	if err != nil {
		if isClientInputError(err) {
			respondBadRequest(c, "Invalid wallet reference", err.Error())
			return
		}
		respondInternalError(c, err, "Failed to resolve nfts", zap.String("wallet_id", wallet.ID))
		return
	}

	c.JSON(http.StatusOK, gin.H{"nfts": conn})
}

// GetWalletTransactions retrieves a page of wallet transaction history
func (h *handler) GetWalletTransactions(c *gin.Context) {
	wallet, ok := h.walletFromParams(c)
	if !ok {
		return
	}

	page := resolver.TransactionPage{}
	if before := c.Query("before"); before != "" {
		page.Before = &before
	}
	if after := c.Query("after"); after != "" {
		page.After = &after
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			respondBadRequest(c, "Invalid limit parameter")
			return
		}
		page.Limit = limit
	}

	conn, err := h.resolver.Transactions(c.Request.Context(), *wallet, page)
	if err != nil {
		if isClientInputError(err) || strings.Contains(err.Error(), "malformed cursor") {
			respondBadRequest(c, "Invalid transaction page request", err.Error())
			return
		}
		respondInternalError(c, err, "Failed to resolve transactions", zap.String("wallet_id", wallet.ID))
		return
	}

	c.JSON(http.StatusOK, gin.H{"transactions": conn})
}

// GetMySummaries retrieves aggregated wallet summaries for the user
func (h *handler) GetMySummaries(c *gin.Context) {
	userID, ok := authSubject(c)
	if !ok {
		return
	}

	filter := resolver.WalletFilter{
		ChainID: c.Query("chain"),
	}

	transactionLimit := 10
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			respondBadRequest(c, "Invalid limit parameter")
			return
		}
		transactionLimit = limit
	}

	summaries, err := h.resolver.Summaries(c.Request.Context(), userID, filter, transactionLimit)
	if err != nil {
		if isClientInputError(err) {
			respondBadRequest(c, "Invalid wallet filter", err.Error())
			return
		}
		respondInternalError(c, err, "Failed to resolve summaries", zap.String("user_id", userID))
		return
	}

	c.JSON(http.StatusOK, gin.H{"summaries": summaries})
}

// GetCollectionMembers retrieves a page of users holding NFTs in a collection
func (h *handler) GetCollectionMembers(c *gin.Context) {
	collectionID := c.Param("id")
	if collectionID == "" {
		respondBadRequest(c, "Collection id is required")
		return
	}

	limit := defaultMembersPageSize
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > maxMembersPageSize {
			respondBadRequest(c, "Invalid limit parameter")
			return
		}
		limit = parsed
	}

	offset := 0
	if raw := c.Query("offset"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			respondBadRequest(c, "Invalid offset parameter")
			return
		}
		offset = parsed
	}

	members, err := h.validator.GetNftMembers(c.Request.Context(), collectionID, c.Query("prefix"), limit, offset)
	if err != nil {
		respondInternalError(c, err, "Failed to resolve members", zap.String("collection_id", collectionID))
		return
	}

	c.JSON(http.StatusOK, members)
}

// collectionOwnershipRequest is the body of a collection ownership check
type collectionOwnershipRequest struct {
	PublicKey    string `json:"publicKey" binding:"required"`
	Mint         string `json:"mint" binding:"required"`
	CollectionID string `json:"collectionId" binding:"required"`
}

// ValidateCollectionOwnership checks the user holds a mint in a collection
func (h *handler) ValidateCollectionOwnership(c *gin.Context) {
	userID, ok := authSubject(c)
	if !ok {
		return
	}

	var req collectionOwnershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}

	valid, err := h.validator.ValidateCollectionOwnership(c.Request.Context(), userID, req.PublicKey, req.Mint, req.CollectionID)
	if err != nil {
		respondInternalError(c, err, "Failed to validate ownership", zap.String("user_id", userID))
		return
	}

	c.JSON(http.StatusOK, gin.H{"valid": valid})
}

// groupOwnershipRequest is the body of a centralized group membership check
type groupOwnershipRequest struct {
	PublicKey        string `json:"publicKey" binding:"required"`
	CentralizedGroup string `json:"centralizedGroup" binding:"required"`
}

// ValidateGroupOwnership resolves the collection backing a group membership
func (h *handler) ValidateGroupOwnership(c *gin.Context) {
	userID, ok := authSubject(c)
	if !ok {
		return
	}

	var req groupOwnershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}

	collectionID, err := h.validator.ValidateCentralizedGroupOwnership(c.Request.Context(), userID, req.PublicKey, req.CentralizedGroup)
	if err != nil {
		respondInternalError(c, err, "Failed to validate group ownership", zap.String("user_id", userID))
		return
	}

	c.JSON(http.StatusOK, gin.H{"collectionId": collectionID})
}

// HealthCheck returns the health status of the API
func (h *handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
