package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/eduportal-api/internal/dto"
	"github.com/noah-isme/eduportal-api/internal/models"
	"github.com/noah-isme/eduportal-api/internal/repository"
	appErrors "github.com/noah-isme/eduportal-api/pkg/errors"
	"github.com/noah-isme/eduportal-api/pkg/jobs"
)

// RegistrationJobType is the queue job written after a registration commits.
const RegistrationJobType = "registration"

const (
	msgMissingFields  = "Missing required fields"
	msgShortPassword  = "Password must be at least 6 characters"
	msgLongPassword   = "Password must be at most 72 bytes"
	msgInvalidEmail   = "Invalid email format"
	msgInvalidRole    = "Invalid role"
	msgRegistered     = "Account created successfully! You can now sign in."
	welcomeTitle      = "Welcome to EduPortal"
	welcomeNotifyType = "WELCOME"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type registrationRepository interface {
	InTx(ctx context.Context, fn func(tx repository.RegistrationTx) error) error
}

type registrationAccountStore interface {
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
	CreateNotification(ctx context.Context, n *models.Notification) error
}

type passwordHashing interface {
	Hash(password string) (string, error)
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// RegistrationEvent is the payload of a registration job. It travels as a
// pointer so a retried job skips steps that already succeeded.
type RegistrationEvent struct {
	UserID    string
	FirstName string
	Role      models.UserRole
	ProfileID string
	IP        string
	UserAgent string

	auditWritten bool
}

// RegistrationService creates an account and its role profile atomically.
type RegistrationService struct {
	repo        registrationRepository
	accounts    registrationAccountStore
	hasher      passwordHashing
	provisioner *ProfileProvisioner
	queue       jobEnqueuer
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
	maxAttempts int
}

// NewRegistrationService constructs a RegistrationService. maxAttempts bounds
// the retries after a student number collision.
func NewRegistrationService(repo registrationRepository, accounts registrationAccountStore, hasher passwordHashing, provisioner *ProfileProvisioner, queue jobEnqueuer, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, maxAttempts int) *RegistrationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return &RegistrationService{
		repo:        repo,
		accounts:    accounts,
		hasher:      hasher,
		provisioner: provisioner,
		queue:       queue,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
		maxAttempts: maxAttempts,
	}
}

// Register validates the request, then inserts the account and provisions its
// profile in one transaction. Either both rows exist afterwards or neither does.
func (s *RegistrationService) Register(ctx context.Context, req dto.RegisterRequest) (*dto.RegisterResponse, error) {
	if err := s.validate(req); err != nil {
		s.metrics.RecordRegistration(req.Role, OutcomeInvalid)
		return nil, err
	}

	exists, err := s.accounts.ExistsByEmail(ctx, req.Email)
	if err != nil {
		s.metrics.RecordRegistration(req.Role, OutcomeError)
		return nil, appErrors.Internal(err, "failed to check email")
	}
	if exists {
		s.metrics.RecordRegistration(req.Role, OutcomeDuplicate)
		return nil, appErrors.ErrDuplicateEmail
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		s.metrics.RecordRegistration(req.Role, OutcomeError)
		return nil, appErrors.Internal(err, "failed to hash password")
	}

	var (
		account *models.Account
		profile *models.ProvisionedProfile
	)
	for attempt := 1; ; attempt++ {
		account, profile, err = s.registerOnce(ctx, req, hash)
		if err == nil {
			break
		}
		if errors.Is(err, repository.ErrStudentNumberTaken) && attempt < s.maxAttempts {
			s.metrics.RecordRegistrationRetry()
			s.logger.Info("student number collision, retrying registration", zap.Int("attempt", attempt))
			continue
		}
		return nil, s.registrationFailure(req.Role, err)
	}

	s.metrics.RecordRegistration(account.Role, OutcomeSuccess)
	s.logger.Info("account registered",
		zap.String("account_id", account.ID),
		zap.String("role", string(account.Role)),
		zap.String("profile_kind", string(profile.Kind)),
	)
	s.enqueueFollowUp(account, profile, req)

	resp := &dto.RegisterResponse{
		UserID:    account.ID,
		Email:     account.Email,
		FirstName: account.FirstName,
		LastName:  account.LastName,
		Role:      account.Role,
	}
	if profile.ID != "" {
		id := profile.ID
		resp.ProfileID = &id
	}
	if profile.StudentNumber != "" {
		number := profile.StudentNumber
		resp.StudentNumber = &number
	}
	return resp, nil
}

// SuccessMessage is the message returned with a 201 registration response.
func (s *RegistrationService) SuccessMessage() string {
	return msgRegistered
}

func (s *RegistrationService) registerOnce(ctx context.Context, req dto.RegisterRequest, hash string) (*models.Account, *models.ProvisionedProfile, error) {
	var (
		account *models.Account
		profile *models.ProvisionedProfile
	)
	err := s.repo.InTx(ctx, func(tx repository.RegistrationTx) error {
		account = &models.Account{
			Email:        req.Email,
			PasswordHash: &hash,
			FirstName:    req.FirstName,
			LastName:     req.LastName,
			Role:         req.Role,
			Phone:        req.Phone,
			Active:       true,
		}
		if err := tx.CreateAccount(ctx, account); err != nil {
			return err
		}
		var err error
		profile, err = s.provisioner.Provision(ctx, tx, account, req.SchoolID)
		return err
	})
	return account, profile, err
}

func (s *RegistrationService) registrationFailure(role models.UserRole, err error) error {
	var appErr *appErrors.Error
	switch {
	case errors.Is(err, repository.ErrEmailTaken):
		s.metrics.RecordRegistration(role, OutcomeDuplicate)
		return appErrors.ErrDuplicateEmail
	case errors.Is(err, repository.ErrStudentNumberTaken), errors.Is(err, repository.ErrProfileExists):
		s.metrics.RecordRegistration(role, OutcomeFailed)
		s.logger.Warn("profile provisioning failed", zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrProvisioningFailed.Code, appErrors.ErrProvisioningFailed.Status, "profile could not be created")
	case errors.As(err, &appErr):
		outcome := OutcomeError
		if errors.Is(appErr, appErrors.ErrProvisioningFailed) {
			outcome = OutcomeFailed
		}
		s.metrics.RecordRegistration(role, outcome)
		s.logger.Warn("registration rejected", zap.String("code", appErr.Code), zap.String("reason", appErr.Message))
		return appErr
	default:
		s.metrics.RecordRegistration(role, OutcomeError)
		return appErrors.Internal(err, "registration failed")
	}
}

// validate reports the first failing rule, in the order: required fields,
// password length, email format, role. The upper password bound is in bytes.
func (s *RegistrationService) validate(req dto.RegisterRequest) error {
	if err := s.validator.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, msgMissingFields)
		}
		for _, fe := range verrs {
			if fe.Tag() == "required" {
				return appErrors.Clone(appErrors.ErrValidation, msgMissingFields)
			}
		}
		return appErrors.Clone(appErrors.ErrValidation, msgShortPassword)
	}
	if len(req.Password) > MaxPasswordBytes {
		return appErrors.Clone(appErrors.ErrValidation, msgLongPassword)
	}
	if !emailPattern.MatchString(req.Email) {
		return appErrors.Clone(appErrors.ErrValidation, msgInvalidEmail)
	}
	if !req.Role.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, msgInvalidRole)
	}
	return nil
}

func (s *RegistrationService) enqueueFollowUp(account *models.Account, profile *models.ProvisionedProfile, req dto.RegisterRequest) {
	if s.queue == nil {
		return
	}
	event := &RegistrationEvent{
		UserID:    account.ID,
		FirstName: account.FirstName,
		Role:      account.Role,
		ProfileID: profile.ID,
		IP:        req.IP,
		UserAgent: req.UserAgent,
	}
	if err := s.queue.Enqueue(jobs.Job{Type: RegistrationJobType, Payload: event}); err != nil {
		s.logger.Warn("failed to enqueue registration follow-up", zap.String("account_id", account.ID), zap.Error(err))
	}
}

// HandleRegistrationJob writes the USER_REGISTER audit entry and the welcome
// notification for a committed registration.
func (s *RegistrationService) HandleRegistrationJob(ctx context.Context, job jobs.Job) error {
	event, ok := job.Payload.(*RegistrationEvent)
	if !ok {
		s.logger.Error("unexpected registration job payload", zap.String("job_id", job.ID))
		return nil
	}

	if !event.auditWritten {
		userID := event.UserID
		values := []byte(fmt.Sprintf(`{"role":%q,"profileId":%q}`, event.Role, event.ProfileID))
		if err := s.accounts.CreateAuditLog(ctx, &models.AuditLog{
			UserID:     &userID,
			Action:     models.AuditActionRegister,
			Resource:   "auth",
			ResourceID: &userID,
			NewValues:  values,
			IPAddress:  event.IP,
			UserAgent:  event.UserAgent,
			CreatedAt:  time.Now().UTC(),
		}); err != nil {
			return fmt.Errorf("registration audit log: %w", err)
		}
		event.auditWritten = true
	}

	if err := s.accounts.CreateNotification(ctx, &models.Notification{
		UserID:  event.UserID,
		Title:   welcomeTitle,
		Message: fmt.Sprintf("Hi %s, your account is ready. You can now sign in.", event.FirstName),
		Type:    welcomeNotifyType,
	}); err != nil {
		return fmt.Errorf("welcome notification: %w", err)
	}
	return nil
}
