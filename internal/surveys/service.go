package surveys

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/citylink/citylink/internal/platform/httpx"
	"github.com/citylink/citylink/internal/policy"
)

// MinOptions is the smallest option set a survey may carry.
const MinOptions = 2

const statsTTL = 30 * time.Second

// TxPort is the transactional slice of the repository. All writes issued
// through it are atomic: an error from the enclosing function discards
// every one of them.
type TxPort interface {
	InsertSurvey(ctx context.Context, question string, ownerID int64) (int64, error)
	InsertOption(ctx context.Context, surveyID int64, text string) (int64, error)
	UpdateQuestion(ctx context.Context, id int64, question string) error
	DeleteResponseFreeOptions(ctx context.Context, surveyID int64) error
	ListOptions(ctx context.Context, surveyID int64) ([]Option, error)
	UpdateOptionText(ctx context.Context, optionID int64, text string) error
}

// RepositoryPort defines data access methods for surveys.
type RepositoryPort interface {
	InTx(ctx context.Context, fn func(TxPort) error) error
	FindByID(ctx context.Context, id int64) (*Survey, error)
	List(ctx context.Context, limit, offset int) ([]Survey, error)
	ListOptions(ctx context.Context, surveyID int64) ([]Option, error)
	Stats(ctx context.Context, surveyID int64) ([]OptionStat, error)
	UserVote(ctx context.Context, surveyID, userID int64) (int64, error)
	UpsertVote(ctx context.Context, surveyID, userID, optionID int64) error
	Delete(ctx context.Context, id int64) error
}

// Detail is a survey together with its live results and, when the viewer
// is authenticated, the option they voted for.
type Detail struct {
	Survey
	Stats    []OptionStat
	UserVote *int64
}

// Service handles survey business logic. Stats are served through a short
// lived Redis cache with a singleflight group so a popular survey computes
// its tally once per window.
type Service struct {
	repo   RepositoryPort
	cache  *redis.Client
	logger *slog.Logger
	group  singleflight.Group
}

// NewService builds a Service instance. cache may be nil, which disables
// stats caching.
func NewService(repo RepositoryPort, cache *redis.Client, logger *slog.Logger) *Service {
	return &Service{repo: repo, cache: cache, logger: logger}
}

// List returns surveys newest first, each with its options.
func (s *Service) List(ctx context.Context, limit, offset int) ([]Survey, error) {
	items, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	for i := range items {
		opts, err := s.repo.ListOptions(ctx, items[i].ID)
		if err != nil {
			return nil, err
		}
		items[i].Options = opts
	}
	return items, nil
}

// Get returns a survey with options, stats, and the viewer's vote when a
// viewer is given.
func (s *Service) Get(ctx context.Context, id int64, viewer *policy.Identity) (*Detail, error) {
	survey, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	opts, err := s.repo.ListOptions(ctx, id)
	if err != nil {
		return nil, err
	}
	survey.Options = opts
	stats, err := s.Stats(ctx, id)
	if err != nil {
		return nil, err
	}
	detail := &Detail{Survey: *survey, Stats: stats}
	if viewer != nil {
		optionID, err := s.repo.UserVote(ctx, id, viewer.ID)
		switch {
		case err == nil:
			detail.UserVote = &optionID
		case errors.Is(err, httpx.ErrNotFound):
		default:
			return nil, err
		}
	}
	return detail, nil
}

// Create opens a survey with its options in one transaction. Validation
// happens before any write.
func (s *Service) Create(ctx context.Context, caller policy.Identity, question string, options []string) (*Detail, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is required", httpx.ErrValidation)
	}
	options, err := cleanOptions(options)
	if err != nil {
		return nil, err
	}

	var id int64
	err = s.repo.InTx(ctx, func(tx TxPort) error {
		var err error
		id, err = tx.InsertSurvey(ctx, question, caller.ID)
		if err != nil {
			return err
		}
		for _, text := range options {
			if _, err := tx.InsertOption(ctx, id, text); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id, nil)
}

// Update changes a survey's question and/or replaces its options, owner or
// admin only. Option replacement never touches options that collected
// responses: response-free options are deleted, the supplied texts
// overwrite the survivors by position, and extras become new rows.
func (s *Service) Update(ctx context.Context, caller policy.Identity, id int64, question *string, options []string) error {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := policy.Authorize(caller, current.OwnerID); err != nil {
		return err
	}
	if question != nil && strings.TrimSpace(*question) == "" {
		return fmt.Errorf("%w: question cannot be empty", httpx.ErrValidation)
	}
	if options != nil {
		if options, err = cleanOptions(options); err != nil {
			return err
		}
	}

	err = s.repo.InTx(ctx, func(tx TxPort) error {
		if question != nil {
			if err := tx.UpdateQuestion(ctx, id, strings.TrimSpace(*question)); err != nil {
				return err
			}
		}
		if len(options) == 0 {
			return nil
		}
		if err := tx.DeleteResponseFreeOptions(ctx, id); err != nil {
			return err
		}
		surviving, err := tx.ListOptions(ctx, id)
		if err != nil {
			return err
		}
		for _, d := range planOptions(surviving, options) {
			switch d.kind {
			case overwriteOption:
				err = tx.UpdateOptionText(ctx, d.optionID, d.text)
			case insertOption:
				_, err = tx.InsertOption(ctx, id, d.text)
			case keepOption:
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.invalidateStats(ctx, id)
	return nil
}

// Delete removes a survey and, by cascade, its options and responses.
func (s *Service) Delete(ctx context.Context, caller policy.Identity, id int64) error {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := policy.Authorize(caller, current.OwnerID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateStats(ctx, id)
	return nil
}

// Vote records the caller's vote. A second vote on the same survey
// replaces the first; an option from another survey is rejected.
func (s *Service) Vote(ctx context.Context, caller policy.Identity, surveyID, optionID int64) error {
	if _, err := s.repo.FindByID(ctx, surveyID); err != nil {
		return err
	}
	opts, err := s.repo.ListOptions(ctx, surveyID)
	if err != nil {
		return err
	}
	valid := false
	for _, o := range opts {
		if o.ID == optionID {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("%w: option does not belong to this survey", httpx.ErrValidation)
	}
	if err := s.repo.UpsertVote(ctx, surveyID, caller.ID, optionID); err != nil {
		return err
	}
	s.invalidateStats(ctx, surveyID)
	return nil
}

// Stats returns per-option counts and integer percentages of the total;
// every percentage is 0 when nobody voted.
func (s *Service) Stats(ctx context.Context, surveyID int64) ([]OptionStat, error) {
	key := statsKey(surveyID)
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, key).Bytes(); err == nil {
			var cached []OptionStat
			if err := json.Unmarshal(raw, &cached); err == nil {
				return cached, nil
			}
		}
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		stats, err := s.computeStats(ctx, surveyID)
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			if raw, err := json.Marshal(stats); err == nil {
				if err := s.cache.Set(ctx, key, raw, statsTTL).Err(); err != nil {
					s.logger.Warn("survey stats cache write failed", slog.Int64("survey_id", surveyID), slog.Any("error", err))
				}
			}
		}
		return stats, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]OptionStat), nil
}

func (s *Service) computeStats(ctx context.Context, surveyID int64) ([]OptionStat, error) {
	stats, err := s.repo.Stats(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	var total int64
	for _, st := range stats {
		total += st.Count
	}
	for i := range stats {
		if total > 0 {
			stats[i].Percentage = int(math.Round(float64(stats[i].Count) / float64(total) * 100))
		}
	}
	return stats, nil
}

func (s *Service) invalidateStats(ctx context.Context, surveyID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, statsKey(surveyID)).Err(); err != nil {
		s.logger.Warn("survey stats cache invalidation failed", slog.Int64("survey_id", surveyID), slog.Any("error", err))
	}
}

func statsKey(surveyID int64) string {
	return fmt.Sprintf("surveys:stats:%d", surveyID)
}

func cleanOptions(options []string) ([]string, error) {
	out := make([]string, 0, len(options))
	for _, o := range options {
		o = strings.TrimSpace(o)
		if o == "" {
			return nil, fmt.Errorf("%w: options cannot be empty", httpx.ErrValidation)
		}
		out = append(out, o)
	}
	if len(out) < MinOptions {
		return nil, fmt.Errorf("%w: a survey needs at least %d options", httpx.ErrValidation, MinOptions)
	}
	return out, nil
}
