package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"noslimites/api/internal/model"
	"noslimites/api/internal/repository"
)

// LimitService manages per-relationship limit choices and the matched
// intersection. The privacy rule is absolute: a user's individual choices
// never leave their own scope; the only cross-user read is the intersection
// where both sides accepted.
type LimitService struct {
	db                  *sqlx.DB
	relationshipRepo    repository.RelationshipRepository
	userLimitRepo       repository.UserLimitRepository
	notificationService *NotificationService
}

func NewLimitService(
	db *sqlx.DB,
	relationshipRepo repository.RelationshipRepository,
	userLimitRepo repository.UserLimitRepository,
	notificationService *NotificationService,
) *LimitService {
	return &LimitService{
		db:                  db,
		relationshipRepo:    relationshipRepo,
		userLimitRepo:       userLimitRepo,
		notificationService: notificationService,
	}
}

// GetMyChoices returns the caller's own rows in the relationship. Never the
// partner's.
func (s *LimitService) GetMyChoices(ctx context.Context, relationshipID, callerID int64) ([]model.UserLimit, error) {
	if _, err := s.authorize(ctx, relationshipID, callerID); err != nil {
		return nil, err
	}

	rows, err := s.userLimitRepo.GetForUser(ctx, relationshipID, callerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load choices: %w", err)
	}
	if rows == nil {
		rows = []model.UserLimit{}
	}
	return rows, nil
}

// UpsertChoices applies a bulk set of accept/refuse updates in one
// transaction. Match transitions are computed against the partner's accepted
// set read inside the same transaction, and the corresponding notifications
// are emitted after commit. Refusing a limit that carries no note deletes
// the row outright.
func (s *LimitService) UpsertChoices(ctx context.Context, relationshipID, callerID int64, choices []model.ChoiceUpdate) error {
	rel, err := s.authorize(ctx, relationshipID, callerID)
	if err != nil {
		return err
	}

	// Last write wins inside a single request
	deduped := make(map[string]bool, len(choices))
	order := make([]string, 0, len(choices))
	for _, c := range choices {
		if c.LimitID == "" {
			return model.ErrLimitNotFound
		}
		if _, seen := deduped[c.LimitID]; !seen {
			order = append(order, c.LimitID)
		}
		deduped[c.LimitID] = c.IsAccepted
	}

	partnerID, hasPartner := rel.PartnerID(callerID)

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	partnerAccepted := map[string]bool{}
	if hasPartner {
		partnerAccepted, err = s.userLimitRepo.GetAcceptedSet(ctx, tx, relationshipID, partnerID)
		if err != nil {
			return fmt.Errorf("failed to load partner set: %w", err)
		}
	}

	var gained, lost int
	for _, limitID := range order {
		accepted := deduped[limitID]

		prior, err := s.userLimitRepo.GetByKey(ctx, tx, callerID, relationshipID, limitID)
		if err != nil {
			return fmt.Errorf("failed to load choice: %w", err)
		}
		wasAccepted := prior != nil && prior.IsAccepted

		if !accepted && (prior == nil || prior.Note == nil) {
			// A refusal with no note carries no information worth keeping
			if prior != nil {
				if err := s.userLimitRepo.Delete(ctx, tx, callerID, relationshipID, limitID); err != nil {
					return fmt.Errorf("failed to delete choice: %w", err)
				}
			}
		} else {
			row := &model.UserLimit{
				UserID:         callerID,
				RelationshipID: relationshipID,
				LimitID:        limitID,
				IsAccepted:     accepted,
			}
			if err := s.userLimitRepo.Upsert(ctx, tx, row); err != nil {
				return fmt.Errorf("failed to upsert choice: %w", err)
			}
		}

		if partnerAccepted[limitID] {
			switch {
			case accepted && !wasAccepted:
				gained++
			case !accepted && wasAccepted:
				lost++
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	// After commit: one notification per transition direction, not per limit,
	// so a bulk update cannot flood the partner's feed.
	if hasPartner {
		if gained > 0 {
			s.notificationService.NotifyNewCommonLimit(ctx, partnerID, callerID, relationshipID)
		}
		if lost > 0 {
			s.notificationService.NotifyLimitRemoved(ctx, partnerID, callerID, relationshipID)
		}
	}
	return nil
}

// UpsertNote attaches or replaces the caller's private note on a limit. An
// empty note after trimming is rejected; deletion has its own endpoint.
func (s *LimitService) UpsertNote(ctx context.Context, relationshipID, callerID int64, limitID, note string) (*model.UserLimit, error) {
	if _, err := s.authorize(ctx, relationshipID, callerID); err != nil {
		return nil, err
	}

	note = strings.TrimSpace(note)
	if note == "" {
		return nil, model.ErrNoteEmpty
	}
	if len([]rune(note)) > model.MaxNoteLength {
		return nil, model.ErrNoteTooLong
	}

	row, err := s.userLimitRepo.UpdateNote(ctx, callerID, relationshipID, limitID, &note)
	if err != nil {
		return nil, fmt.Errorf("failed to save note: %w", err)
	}
	return row, nil
}

// DeleteNote clears the caller's note. If the row only existed to carry the
// note (limit not accepted), the row itself is removed.
func (s *LimitService) DeleteNote(ctx context.Context, relationshipID, callerID int64, limitID string) error {
	if _, err := s.authorize(ctx, relationshipID, callerID); err != nil {
		return err
	}

	existing, err := s.userLimitRepo.GetByKey(ctx, nil, callerID, relationshipID, limitID)
	if err != nil {
		return fmt.Errorf("failed to load choice: %w", err)
	}
	if existing == nil || existing.Note == nil {
		return nil
	}

	if !existing.IsAccepted {
		tx, err := s.db.BeginTxx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer tx.Rollback()
		if err := s.userLimitRepo.Delete(ctx, tx, callerID, relationshipID, limitID); err != nil {
			return fmt.Errorf("failed to delete choice: %w", err)
		}
		return tx.Commit()
	}

	if _, err := s.userLimitRepo.UpdateNote(ctx, callerID, relationshipID, limitID, nil); err != nil {
		return fmt.Errorf("failed to clear note: %w", err)
	}
	return nil
}

// GetCommonLimits returns the matched intersection with both parties' notes.
// Only available once the relationship is accepted.
func (s *LimitService) GetCommonLimits(ctx context.Context, relationshipID, callerID int64) ([]model.CommonLimit, error) {
	rel, err := s.authorize(ctx, relationshipID, callerID)
	if err != nil {
		return nil, err
	}

	partnerID, hasPartner := rel.PartnerID(callerID)
	if !hasPartner || rel.Status != model.RelationshipAccepted {
		return []model.CommonLimit{}, nil
	}

	common, err := s.userLimitRepo.GetCommonLimits(ctx, relationshipID, callerID, partnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to compute common limits: %w", err)
	}
	if common == nil {
		common = []model.CommonLimit{}
	}
	return common, nil
}

// authorize loads the relationship and checks the caller is a party to it.
// A blocked relationship is frozen: no further reads or writes through here.
func (s *LimitService) authorize(ctx context.Context, relationshipID, callerID int64) (*model.Relationship, error) {
	rel, err := s.relationshipRepo.GetByID(ctx, relationshipID)
	if err != nil {
		return nil, err
	}
	if !rel.IsParty(callerID) {
		return nil, model.ErrNotAParty
	}
	if rel.Status == model.RelationshipBlocked {
		return nil, model.ErrPairBlocked
	}
	return rel, nil
}
