package asaas

import (
	"context"
	"net/http"

	"github.com/nexfit/billing-service/internal/gateway"
)

// subaccountRequest представляет запрос на создание субаккаунта в Asaas
type subaccountRequest struct {
	Name              string `json:"name"`
	Email             string `json:"email"`
	ExternalReference string `json:"externalReference,omitempty"`
}

// subaccountResponse представляет ответ Account от API Asaas
type subaccountResponse struct {
	ID            string `json:"id"`
	WalletID      string `json:"walletId"`
	GeneralStatus string `json:"general"`
}

// CreateSubaccount создает субаккаунт тренера в Asaas. Субаккаунт
// активируется платежной системой асинхронно после проверки документов.
func (c *Client) CreateSubaccount(ctx context.Context, req gateway.SubaccountRequest) (gateway.SubaccountResponse, error) {
	c.log.Debug("Creating Asaas subaccount for coach %s", req.CoachID)

	body := subaccountRequest{
		Name:              req.Name,
		Email:             req.Email,
		ExternalReference: req.CoachID,
	}

	var accountResp subaccountResponse
	if err := c.doRequest(ctx, "create_subaccount", http.MethodPost, "/accounts", body, &accountResp); err != nil {
		return gateway.SubaccountResponse{}, err
	}

	c.log.Info("Created Asaas subaccount %s (wallet %s) for coach %s",
		accountResp.ID, accountResp.WalletID, req.CoachID)

	return gateway.SubaccountResponse{
		ExternalSubaccountID: accountResp.ID,
		ExternalWalletID:     accountResp.WalletID,
		Status:               mapSubaccountStatus(accountResp.GeneralStatus),
	}, nil
}
