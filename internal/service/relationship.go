package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"noslimites/api/internal/config"
	"noslimites/api/internal/model"
	"noslimites/api/internal/repository"
)

// RelationshipService manages the pairing lifecycle: invitation, acceptance,
// decline, deletion and blocking.
type RelationshipService struct {
	db                  *sqlx.DB
	relationshipRepo    repository.RelationshipRepository
	blockRepo           repository.BlockRepository
	userRepo            repository.UserRepository
	userLimitRepo       repository.UserLimitRepository
	notificationService *NotificationService
	config              *config.Config
}

func NewRelationshipService(
	db *sqlx.DB,
	relationshipRepo repository.RelationshipRepository,
	blockRepo repository.BlockRepository,
	userRepo repository.UserRepository,
	userLimitRepo repository.UserLimitRepository,
	notificationService *NotificationService,
	cfg *config.Config,
) *RelationshipService {
	return &RelationshipService{
		db:                  db,
		relationshipRepo:    relationshipRepo,
		blockRepo:           blockRepo,
		userRepo:            userRepo,
		userLimitRepo:       userLimitRepo,
		notificationService: notificationService,
		config:              cfg,
	}
}

// CreateInvitation opens a pending relationship and returns the shareable
// invite link. The token is the only way in; there is no user search.
func (s *RelationshipService) CreateInvitation(ctx context.Context, inviterID int64) (*model.InvitationResponse, error) {
	token := uuid.NewString()

	rel, err := s.relationshipRepo.Create(ctx, inviterID, token)
	if err != nil {
		return nil, fmt.Errorf("failed to create invitation: %w", err)
	}

	return &model.InvitationResponse{
		RelationshipID: rel.ID,
		InviteToken:    token,
		InviteURL:      fmt.Sprintf("%s/invite/%s", s.config.AppBaseURL, token),
	}, nil
}

// LookupInvitation returns the public landing-page view of an invitation:
// who invited, and whether it is still open. No authentication required.
func (s *RelationshipService) LookupInvitation(ctx context.Context, token string) (*model.InvitationInfo, error) {
	rel, err := s.relationshipRepo.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	inviter, err := s.userRepo.GetSummary(ctx, rel.InviterID)
	if err != nil {
		return nil, fmt.Errorf("failed to load inviter: %w", err)
	}

	return &model.InvitationInfo{
		Inviter: *inviter,
		Status:  rel.Status,
	}, nil
}

// AcceptInvitation binds the accepter as invitee. The invitation row is
// locked for the duration, so of N concurrent accepts exactly one wins;
// a repeat accept by the same user is an idempotent success.
func (s *RelationshipService) AcceptInvitation(ctx context.Context, token string, accepterID int64) (*model.Relationship, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	rel, err := s.relationshipRepo.GetByTokenForUpdate(ctx, tx, token)
	if err != nil {
		return nil, err
	}

	if rel.InviterID == accepterID {
		return nil, model.ErrSelfInvitation
	}

	blocked, err := s.blockRepo.ExistsBetween(ctx, rel.InviterID, accepterID)
	if err != nil {
		return nil, fmt.Errorf("failed to check block list: %w", err)
	}
	if blocked {
		return nil, model.ErrPairBlocked
	}

	switch rel.Status {
	case model.RelationshipAccepted:
		if rel.InviteeID != nil && *rel.InviteeID == accepterID {
			// Already accepted by this user: idempotent success
			return rel, nil
		}
		return nil, model.ErrInvitationClosed
	case model.RelationshipDeclined, model.RelationshipBlocked:
		return nil, model.ErrInvitationClosed
	}

	if err := s.relationshipRepo.Accept(ctx, tx, rel.ID, accepterID); err != nil {
		return nil, fmt.Errorf("failed to accept invitation: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}

	rel.InviteeID = &accepterID
	rel.Status = model.RelationshipAccepted

	// After commit: notify the inviter
	s.notificationService.NotifyRelationAccepted(ctx, rel.InviterID, accepterID, rel.ID)

	return rel, nil
}

// DeclineInvitation closes a pending invitation. Declining an already
// declined invitation is an idempotent success; an accepted one cannot be
// declined anymore.
func (s *RelationshipService) DeclineInvitation(ctx context.Context, token string, declinerID int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	rel, err := s.relationshipRepo.GetByTokenForUpdate(ctx, tx, token)
	if err != nil {
		return err
	}

	if rel.InviterID == declinerID {
		return model.ErrSelfInvitation
	}

	switch rel.Status {
	case model.RelationshipDeclined:
		return nil
	case model.RelationshipAccepted, model.RelationshipBlocked:
		return model.ErrInvitationClosed
	}

	if err := s.relationshipRepo.UpdateStatus(ctx, tx, rel.ID, model.RelationshipDeclined); err != nil {
		return fmt.Errorf("failed to decline invitation: %w", err)
	}
	return tx.Commit()
}

// List returns the caller's relationships with partner summaries.
func (s *RelationshipService) List(ctx context.Context, userID int64) ([]model.RelationshipView, error) {
	views, err := s.relationshipRepo.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list relationships: %w", err)
	}
	if views == nil {
		views = []model.RelationshipView{}
	}
	return views, nil
}

// Get returns one relationship, only to its parties.
func (s *RelationshipService) Get(ctx context.Context, relationshipID, callerID int64) (*model.Relationship, error) {
	rel, err := s.relationshipRepo.GetByID(ctx, relationshipID)
	if err != nil {
		return nil, err
	}
	if !rel.IsParty(callerID) {
		return nil, model.ErrNotAParty
	}
	return rel, nil
}

// Delete removes the relationship and, through cascades, every choice and
// note recorded under it. The partner is notified after the row is gone.
func (s *RelationshipService) Delete(ctx context.Context, relationshipID, callerID int64) error {
	rel, err := s.relationshipRepo.GetByID(ctx, relationshipID)
	if err != nil {
		return err
	}
	if !rel.IsParty(callerID) {
		return model.ErrNotAParty
	}

	partnerID, hasPartner := rel.PartnerID(callerID)

	if err := s.relationshipRepo.Delete(ctx, relationshipID); err != nil {
		return fmt.Errorf("failed to delete relationship: %w", err)
	}

	if hasPartner {
		s.notificationService.NotifyRelationDeleted(ctx, partnerID, callerID)
	}
	return nil
}

// Block marks the relationship blocked, records the pair on the block list
// and erases the caller's and partner's choices under it. The blocked user
// is not notified.
func (s *RelationshipService) Block(ctx context.Context, relationshipID, blockerID int64) error {
	rel, err := s.relationshipRepo.GetByID(ctx, relationshipID)
	if err != nil {
		return err
	}
	if !rel.IsParty(blockerID) {
		return model.ErrNotAParty
	}
	partnerID, hasPartner := rel.PartnerID(blockerID)
	if !hasPartner {
		return model.ErrNoPartner
	}
	if rel.Status == model.RelationshipBlocked {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.blockRepo.Create(ctx, tx, blockerID, partnerID); err != nil {
		return fmt.Errorf("failed to record block: %w", err)
	}
	if err := s.relationshipRepo.UpdateStatus(ctx, tx, relationshipID, model.RelationshipBlocked); err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}
	if err := s.userLimitRepo.DeleteAllForRelationship(ctx, tx, relationshipID); err != nil {
		return fmt.Errorf("failed to erase choices: %w", err)
	}
	return tx.Commit()
}
