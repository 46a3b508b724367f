package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/planhub/planhub/internal/common"
	"github.com/planhub/planhub/internal/dbx"
	sc "github.com/planhub/planhub/internal/server/config"
	"github.com/planhub/planhub/internal/server/models"
	"github.com/planhub/planhub/internal/server/repositories/repomanager"
	"github.com/google/uuid"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// PlanService implements the drawing lifecycle: registration, listing,
// revision uploads through presigned URLs, and the approval workflow.
type PlanService struct {
	db            *sql.DB
	repomanager   repomanager.RepositoryManager
	notifications *NotificationService
	config        *sc.Config
}

// NewPlanService constructs a PlanService.
func NewPlanService(db *sql.DB, m repomanager.RepositoryManager, notifications *NotificationService, config *sc.Config) *PlanService {
	return &PlanService{
		db:            db,
		repomanager:   m,
		notifications: notifications,
		config:        config,
	}
}

// GetRandomStorageKey builds a date-partitioned object key for a new upload.
func GetRandomStorageKey() string {
	d := time.Now()
	return fmt.Sprintf("plans/%d/%d/%d/%v", d.Year(), d.Month(), d.Day(), uuid.New())
}

// Create registers a new plan in draft status. Duplicate drawing codes
// surface as ErrorAlreadyExists.
func (s *PlanService) Create(ctx context.Context, code, title, zone, discipline, uploadedBy string) (*models.Plan, error) {
	repo := s.repomanager.Plans(s.db)

	if _, err := repo.GetByCode(ctx, code); err == nil {
		return nil, common.ErrorAlreadyExists
	} else if !errors.Is(err, common.ErrorNotFound) {
		return nil, err
	}

	plan := &models.Plan{
		Code:       code,
		Title:      title,
		Zone:       zone,
		Discipline: discipline,
		Status:     models.PlanDraft,
		UploadedBy: uploadedBy,
	}
	return repo.Create(ctx, plan)
}

// Get returns a plan by ID.
func (s *PlanService) Get(ctx context.Context, id string) (*models.Plan, error) {
	return s.repomanager.Plans(s.db).GetByID(ctx, id)
}

// List returns plans matching the filter plus the unpaginated match count.
func (s *PlanService) List(ctx context.Context, filter *models.PlanFilter) ([]*models.Plan, int, error) {
	return s.repomanager.Plans(s.db).List(ctx, filter)
}

// Update rewrites a plan's descriptive fields.
func (s *PlanService) Update(ctx context.Context, id, title, zone, discipline string) (*models.Plan, error) {
	repo := s.repomanager.Plans(s.db)
	plan, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	plan.Title = title
	plan.Zone = zone
	plan.Discipline = discipline
	if err := repo.Update(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// Delete removes a plan and its revision history.
func (s *PlanService) Delete(ctx context.Context, id string) error {
	return s.repomanager.Plans(s.db).Delete(ctx, id)
}

// Transition moves a plan through the workflow, enforcing the allowed status
// graph, and notifies the affected users.
func (s *PlanService) Transition(ctx context.Context, id, target, actorID string) (*models.Plan, error) {
	repo := s.repomanager.Plans(s.db)
	plan, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !plan.CanTransition(target) {
		return nil, common.ErrInvalidTransition
	}

	if err := repo.UpdateStatus(ctx, id, target); err != nil {
		return nil, err
	}
	plan.Status = target

	s.notifyTransition(ctx, plan, actorID)
	return plan, nil
}

// notifyTransition fans workflow notifications out. Submission alerts the
// reviewers; verdicts alert the uploader.
func (s *PlanService) notifyTransition(ctx context.Context, plan *models.Plan, actorID string) {
	switch plan.Status {
	case models.PlanInReview:
		msg := fmt.Sprintf("Plano %s enviado a revisión", plan.Code)
		s.notifyReviewers(ctx, models.NotifyPlanSubmitted, plan, actorID, msg)
	case models.PlanApproved:
		if plan.UploadedBy != "" {
			msg := fmt.Sprintf("Plano %s aprobado", plan.Code)
			s.notifications.Notify(ctx, plan.UploadedBy, models.NotifyPlanApproved, plan.ID, msg)
		}
	case models.PlanRejected:
		if plan.UploadedBy != "" {
			msg := fmt.Sprintf("Plano %s rechazado", plan.Code)
			s.notifications.Notify(ctx, plan.UploadedBy, models.NotifyPlanRejected, plan.ID, msg)
		}
	}
}

func (s *PlanService) notifyReviewers(ctx context.Context, kind string, plan *models.Plan, actorID, message string) {
	users, err := s.repomanager.Users(s.db).List(ctx)
	if err != nil {
		return
	}
	for _, u := range users {
		if !u.Active || u.ID == actorID || !u.CanReview() {
			continue
		}
		s.notifications.Notify(ctx, u.ID, kind, plan.ID, message)
	}
}

// GetUploadURL presigns a PUT for a new revision file and returns the storage
// key together with the URL.
func (s *PlanService) GetUploadURL(ctx context.Context) (string, string, error) {
	presignClient, err := s.getPresignClient()
	if err != nil {
		return "", "", err
	}

	bucket := s.config.S3Bucket
	key := GetRandomStorageKey()

	req, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		return "", "", err
	}

	return key, req.URL, nil
}

// GetDownloadURL presigns a GET for the plan's current revision file.
func (s *PlanService) GetDownloadURL(ctx context.Context, id string) (string, error) {
	plan, err := s.repomanager.Plans(s.db).GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if plan.StorageKey == "" {
		return "", common.ErrorNotFound
	}

	presignClient, err := s.getPresignClient()
	if err != nil {
		return "", err
	}

	bucket := s.config.S3Bucket
	key := plan.StorageKey

	req, err := presignGetObject(presignClient, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}

// AddRevision records a completed upload as the plan's next revision. The
// revision insert and the plan bump run in one transaction.
func (s *PlanService) AddRevision(ctx context.Context, planID, storageKey, uploadedBy, note string) (*models.PlanRevision, error) {
	plan, err := s.repomanager.Plans(s.db).GetByID(ctx, planID)
	if err != nil {
		return nil, err
	}

	rev := &models.PlanRevision{
		PlanID:     planID,
		Revision:   plan.Revision + 1,
		StorageKey: storageKey,
		UploadedBy: uploadedBy,
		Note:       note,
	}

	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var txErr error
		rev, txErr = s.repomanager.Plans(tx).AddRevision(ctx, rev)
		return txErr
	}); err != nil {
		return nil, err
	}

	if plan.UploadedBy != "" && plan.UploadedBy != uploadedBy {
		msg := fmt.Sprintf("Plano %s: nueva revisión %d", plan.Code, rev.Revision)
		s.notifications.Notify(ctx, plan.UploadedBy, models.NotifyPlanRevision, plan.ID, msg)
	}
	return rev, nil
}

// ListRevisions returns the plan's revision history, newest first.
func (s *PlanService) ListRevisions(ctx context.Context, planID string) ([]*models.PlanRevision, error) {
	return s.repomanager.Plans(s.db).ListRevisions(ctx, planID)
}

func (s *PlanService) getPresignClient() (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(context.Background(),
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
	})

	return newS3PresignClient(client), nil
}
