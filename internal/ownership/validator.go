package ownership

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/walletgraph/walletgraph/internal/domain"
	"github.com/walletgraph/walletgraph/internal/logger"
	"github.com/walletgraph/walletgraph/internal/store"
	"github.com/walletgraph/walletgraph/internal/store/schema"
)

// Config tunes the validator's write-path retry behavior
type Config struct {
	// RetryWholeBatch retries the full insert batch on transient failure.
	// When false a failed batch is reported without retry.
	RetryWholeBatch bool
	// RetryMaxElapsed caps total retry time for one batch
	RetryMaxElapsed time.Duration
}

// Validator answers NFT ownership and membership questions against the
// ownership store. Authorization-shaped answers fail closed: a key the user
// does not own yields false or empty, never an error.
type Validator struct {
	store store.Store
	cfg   Config
}

// NewValidator creates an ownership validator
func NewValidator(s store.Store, cfg Config) *Validator {
	if cfg.RetryMaxElapsed == 0 {
		cfg.RetryMaxElapsed = 1 * time.Minute
	}
	return &Validator{store: s, cfg: cfg}
}

// userOwnsKey reports whether the public key is linked to the user. The first
// matching row is authoritative.
func (v *Validator) userOwnsKey(ctx context.Context, userID, publicKey string) (bool, error) {
	owner, err := v.store.GetPublicKeyOwner(ctx, publicKey)
	if err != nil {
		return false, err
	}
	if owner == nil {
		return false, nil
	}
	return owner.UserID == userID, nil
}

// ValidateCollectionOwnership reports whether the user owns the public key
// and that key holds the mint in the given collection
func (v *Validator) ValidateCollectionOwnership(ctx context.Context, userID, publicKey, mint, collectionID string) (bool, error) {
	owns, err := v.userOwnsKey(ctx, userID, publicKey)
	if err != nil {
		return false, fmt.Errorf("failed to check key ownership: %w", err)
	}
	if !owns {
		return false, nil
	}

	row, err := v.store.GetUserNftByMint(ctx, mint, publicKey, nil)
	if err != nil {
		return false, fmt.Errorf("failed to check nft ownership: %w", err)
	}
	if row == nil {
		return false, nil
	}

	return row.CollectionID == collectionID, nil
}

// ValidateCentralizedGroupOwnership returns the collection id backing the
// user's membership in a centralized group, or empty when the user does not
// own the key or the key holds nothing in the group
func (v *Validator) ValidateCentralizedGroupOwnership(ctx context.Context, userID, publicKey, centralizedGroup string) (string, error) {
	owns, err := v.userOwnsKey(ctx, userID, publicKey)
	if err != nil {
		return "", fmt.Errorf("failed to check key ownership: %w", err)
	}
	if !owns {
		return "", nil
	}

	return v.GetNftCollectionByGroupName(ctx, publicKey, centralizedGroup)
}

// GetNftCollectionByGroupName returns the collection id of the first NFT the
// key holds in a centralized group, or empty when none
func (v *Validator) GetNftCollectionByGroupName(ctx context.Context, publicKey, centralizedGroup string) (string, error) {
	row, err := v.store.GetFirstUserNftByGroup(ctx, publicKey, centralizedGroup)
	if err != nil {
		return "", fmt.Errorf("failed to look up group ownership: %w", err)
	}
	if row == nil {
		return "", nil
	}
	return row.CollectionID, nil
}

// GetNftCollection returns the collection id of the ownership row for a mint
// held by the key within a centralized group, or empty when none
func (v *Validator) GetNftCollection(ctx context.Context, mint, publicKey, centralizedGroup string) (string, error) {
	row, err := v.store.GetUserNftByMint(ctx, mint, publicKey, &centralizedGroup)
	if err != nil {
		return "", fmt.Errorf("failed to look up nft collection: %w", err)
	}
	if row == nil {
		return "", nil
	}
	return row.CollectionID, nil
}

// AddResult reports the outcome of an ownership append
type AddResult struct {
	Inserted int64 `json:"inserted"`
}

// AddNfts appends ownership rows for NFTs discovered on a public key. Rows
// already recorded are skipped, so a redelivered batch is a safe no-op and
// the result counts only newly inserted rows. Transient store failures are
// retried with exponential backoff when the whole-batch policy is enabled;
// the error is always surfaced to the caller.
func (v *Validator) AddNfts(ctx context.Context, publicKey string, nfts []domain.OwnedNft) (*AddResult, error) {
	if len(nfts) == 0 {
		return &AddResult{}, nil
	}

	rows := make([]schema.UserNft, 0, len(nfts))
	for _, n := range nfts {
		rows = append(rows, schema.UserNft{
			PublicKey:        publicKey,
			NftID:            n.NftID,
			CollectionID:     n.CollectionID,
			CentralizedGroup: n.CentralizedGroup,
		})
	}

	var inserted int64
	operation := func() error {
		var err error
		inserted, err = v.store.InsertUserNfts(ctx, rows)
		if err != nil {
			logger.WarnCtx(ctx, "ownership insert failed",
				zap.Error(err),
				zap.String("public_key", publicKey),
				zap.Int("batch_size", len(rows)))
			return err
		}
		return nil
	}

	var err error
	if v.cfg.RetryWholeBatch {
		b := backoff.NewExponentialBackOff()
		b.MaxElapsedTime = v.cfg.RetryMaxElapsed
		err = backoff.Retry(operation, backoff.WithContext(b, ctx))
	} else {
		err = operation()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to add nfts for %s: %w", publicKey, err)
	}

	return &AddResult{Inserted: inserted}, nil
}

// Members is a page of collection holders plus the collection's ownership
// row count. The count tallies ownership rows, not distinct holders, so a
// user holding several NFTs in the collection is counted once per row.
type Members struct {
	Users []domain.User `json:"users"`
	Count int64         `json:"count"`
}

// GetNftMembers retrieves a page of users holding NFTs in a collection,
// prefix-filtered on username
func (v *Validator) GetNftMembers(ctx context.Context, collectionID, usernamePrefix string, limit, offset int) (*Members, error) {
	users, err := v.store.GetNftMembers(ctx, collectionID, usernamePrefix, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get members: %w", err)
	}

	count, err := v.store.CountUserNftsForCollection(ctx, collectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to count members: %w", err)
	}

	members := &Members{
		Users: make([]domain.User, 0, len(users)),
		Count: count,
	}
	for _, u := range users {
		members.Users = append(members.Users, domain.User{
			ID:       u.ID,
			Username: u.Username,
		})
	}

	return members, nil
}

// CollectionMembership is one collection a user belongs to through NFT
// holdings, with chat metadata and the user's read marker when present
type CollectionMembership struct {
	CollectionID         string     `json:"collectionId"`
	LastMessage          string     `json:"lastMessage,omitempty"`
	LastMessageUUID      string     `json:"lastMessageUuid,omitempty"`
	LastMessageTimestamp *time.Time `json:"lastMessageTimestamp,omitempty"`
	LastReadMessageID    string     `json:"lastReadMessageId,omitempty"`
}

// GetAllCollectionsFor retrieves every collection the user's linked keys hold
// NFTs in, joined with chat metadata and the user's read markers
func (v *Validator) GetAllCollectionsFor(ctx context.Context, userID string) ([]CollectionMembership, error) {
	rows, err := v.store.GetUserNftsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user nfts: %w", err)
	}

	seen := make(map[string]struct{})
	collectionIDs := make([]string, 0)
	for _, r := range rows {
		if r.CollectionID == "" {
			continue
		}
		if _, ok := seen[r.CollectionID]; ok {
			continue
		}
		seen[r.CollectionID] = struct{}{}
		collectionIDs = append(collectionIDs, r.CollectionID)
	}

	if len(collectionIDs) == 0 {
		return []CollectionMembership{}, nil
	}

	metadata, err := v.GetCollectionChatMetadata(ctx, collectionIDs)
	if err != nil {
		return nil, err
	}
	metaByID := make(map[string]schema.Collection, len(metadata))
	for _, m := range metadata {
		metaByID[m.CollectionID] = m
	}

	lastReads, err := v.GetLastReadFor(ctx, userID, collectionIDs)
	if err != nil {
		return nil, err
	}
	readByID := make(map[string]schema.CollectionLastRead, len(lastReads))
	for _, lr := range lastReads {
		readByID[lr.CollectionID] = lr
	}

	memberships := make([]CollectionMembership, 0, len(collectionIDs))
	for _, id := range collectionIDs {
		m := CollectionMembership{CollectionID: id}
		if meta, ok := metaByID[id]; ok {
			m.LastMessage = meta.LastMessage
			m.LastMessageUUID = meta.LastMessageUUID
			if !meta.LastMessageTimestamp.IsZero() {
				ts := meta.LastMessageTimestamp
				m.LastMessageTimestamp = &ts
			}
		}
		if lr, ok := readByID[id]; ok {
			m.LastReadMessageID = lr.LastReadMessageID
		}
		memberships = append(memberships, m)
	}

	return memberships, nil
}

// GetLastReadFor retrieves the user's read markers for the given collections
func (v *Validator) GetLastReadFor(ctx context.Context, userID string, collectionIDs []string) ([]schema.CollectionLastRead, error) {
	markers, err := v.store.GetLastReads(ctx, userID, collectionIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get last reads: %w", err)
	}
	return markers, nil
}

// GetCollectionChatMetadata retrieves chat metadata for the given collections
func (v *Validator) GetCollectionChatMetadata(ctx context.Context, collectionIDs []string) ([]schema.Collection, error) {
	metadata, err := v.store.GetCollectionsChatMetadata(ctx, collectionIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get collection metadata: %w", err)
	}
	return metadata, nil
}
