package asaas

import (
	"context"
	"net/http"

	"github.com/nexfit/billing-service/internal/gateway"
)

// transferRequest представляет запрос на перевод в кошелек субаккаунта
type transferRequest struct {
	WalletID    string  `json:"walletId"`
	Value       float64 `json:"value"`
	Description string  `json:"description,omitempty"`
}

// transferResponse представляет ответ Transfer от API Asaas
type transferResponse struct {
	ID     string  `json:"id"`
	Status string  `json:"status"`
	Value  float64 `json:"value"`
}

// CreateSplitTransfer переводит долю тренера в кошелек его субаккаунта
func (c *Client) CreateSplitTransfer(ctx context.Context, req gateway.TransferRequest) (gateway.TransferResponse, error) {
	c.log.Debug("Creating Asaas transfer: wallet=%s, amount=%d", req.WalletID, req.Amount)

	body := transferRequest{
		WalletID:    req.WalletID,
		Value:       centavosToReais(req.Amount),
		Description: "split for payment " + req.ExternalPaymentID,
	}

	var transferResp transferResponse
	if err := c.doRequest(ctx, "create_transfer", http.MethodPost, "/transfers", body, &transferResp); err != nil {
		return gateway.TransferResponse{}, err
	}

	c.log.Info("Created Asaas transfer %s with status %s", transferResp.ID, transferResp.Status)

	return gateway.TransferResponse{
		ExternalTransferID: transferResp.ID,
		Status:             transferResp.Status,
	}, nil
}
