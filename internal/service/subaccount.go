package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/nexfit/billing-service/internal/domain"
	"github.com/nexfit/billing-service/internal/gateway"
	"github.com/nexfit/billing-service/internal/repository"
	"github.com/nexfit/billing-service/pkg/logger"
)

// SubaccountProvisioner создает субаккаунты тренеров в платежной системе.
// Ensure идемпотентен: у тренера никогда не появляется второй субаккаунт,
// даже при конкурентных вызовах.
type SubaccountProvisioner struct {
	repo    repository.SubaccountRepository
	gateway gateway.PaymentGateway
	log     *logger.Logger
}

// NewSubaccountProvisioner создает новый провижинер субаккаунтов
func NewSubaccountProvisioner(repo repository.SubaccountRepository, gw gateway.PaymentGateway, log *logger.Logger) *SubaccountProvisioner {
	return &SubaccountProvisioner{
		repo:    repo,
		gateway: gw,
		log:     log,
	}
}

// Ensure возвращает существующий субаккаунт тренера или создает новый.
// При гонке двух вызовов выигрывает один INSERT, проигравший перечитывает
// созданную запись.
func (p *SubaccountProvisioner) Ensure(ctx context.Context, coach domain.Coach) (domain.CoachSubaccount, error) {
	sub, err := p.repo.GetByCoachID(ctx, coach.ID)
	if err == nil {
		return sub, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return domain.CoachSubaccount{}, err
	}

	p.log.Debug("Provisioning subaccount for coach %s", coach.ID)

	resp, err := p.gateway.CreateSubaccount(ctx, gateway.SubaccountRequest{
		CoachID: coach.ID.String(),
		Name:    coach.Name,
		Email:   coach.Email,
	})
	if err != nil {
		return domain.CoachSubaccount{}, domain.NewProvisioningError(coach.ID.String(), "gateway subaccount creation failed", err)
	}

	created, err := p.repo.Create(ctx, domain.CoachSubaccount{
		CoachID:              coach.ID,
		ExternalSubaccountID: resp.ExternalSubaccountID,
		ExternalWalletID:     resp.ExternalWalletID,
		Status:               resp.Status,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// Конкурентный вызов успел создать запись первым
			return p.repo.GetByCoachID(ctx, coach.ID)
		}
		return domain.CoachSubaccount{}, domain.NewProvisioningError(coach.ID.String(), "failed to persist subaccount", err)
	}

	p.log.Info("Provisioned subaccount %s for coach %s with status %s",
		created.ExternalSubaccountID, coach.ID, created.Status)
	return created, nil
}

// Activate переводит субаккаунт тренера в статус active после проверки
// документов платежной системой
func (p *SubaccountProvisioner) Activate(ctx context.Context, coachID uuid.UUID) error {
	return p.repo.UpdateStatus(ctx, coachID, domain.SubaccountStatusActive)
}
