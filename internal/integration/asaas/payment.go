package asaas

import (
	"context"
	"net/http"
	"strconv"

	"github.com/nexfit/billing-service/internal/domain"
	"github.com/nexfit/billing-service/internal/gateway"
)

// paymentRequest представляет запрос на создание платежа в Asaas
type paymentRequest struct {
	Customer          string          `json:"customer"`
	BillingType       string          `json:"billingType"`
	Value             float64         `json:"value"`
	DueDate           string          `json:"dueDate"`
	Description       string          `json:"description,omitempty"`
	ExternalReference string          `json:"externalReference,omitempty"`
	CreditCard        *creditCard     `json:"creditCard,omitempty"`
	CreditCardHolder  *cardHolderInfo `json:"creditCardHolderInfo,omitempty"`
}

// creditCard представляет карту в формате Asaas
type creditCard struct {
	HolderName  string `json:"holderName"`
	Number      string `json:"number"`
	ExpiryMonth string `json:"expiryMonth"`
	ExpiryYear  string `json:"expiryYear"`
	CCV         string `json:"ccv"`
}

// cardHolderInfo представляет данные держателя карты
type cardHolderInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// paymentResponse представляет ответ Payment от API Asaas
type paymentResponse struct {
	ID          string  `json:"id"`
	Status      string  `json:"status"`
	Value       float64 `json:"value"`
	BillingType string  `json:"billingType"`
	DueDate     string  `json:"dueDate"`
	InvoiceURL  string  `json:"invoiceUrl"`
	BankSlipURL string  `json:"bankSlipUrl"`
}

// pixQrCodeResponse представляет QR-код PIX от API Asaas
type pixQrCodeResponse struct {
	EncodedImage string `json:"encodedImage"`
	Payload      string `json:"payload"`
}

// CreateCharge создает списание в Asaas. Для PIX дополнительно запрашивает
// QR-код, для карты платеж обрабатывается синхронно.
func (c *Client) CreateCharge(ctx context.Context, req gateway.ChargeRequest) (gateway.ChargeResponse, error) {
	c.log.Debug("Creating Asaas charge: method=%s, amount=%d", req.Method, req.Amount)

	body := paymentRequest{
		Customer:          req.PayerID,
		BillingType:       billingTypeFor(req.Method),
		Value:             centavosToReais(req.Amount),
		DueDate:           req.DueDate.Format("2006-01-02"),
		Description:       req.Description,
		ExternalReference: req.IdempotencyKey,
	}

	if req.Method == domain.PaymentMethodCreditCard {
		if req.Card == nil {
			return gateway.ChargeResponse{}, domain.ErrCardRequired
		}
		body.CreditCard = &creditCard{
			HolderName:  req.Card.HolderName,
			Number:      req.Card.Number,
			ExpiryMonth: strconv.Itoa(req.Card.ExpiryMonth),
			ExpiryYear:  strconv.Itoa(req.Card.ExpiryYear),
			CCV:         req.Card.CVV,
		}
		body.CreditCardHolder = &cardHolderInfo{
			Name:  req.PayerName,
			Email: req.PayerEmail,
		}
	}

	var paymentResp paymentResponse
	if err := c.doRequest(ctx, "create_charge", http.MethodPost, "/payments", body, &paymentResp); err != nil {
		return gateway.ChargeResponse{}, err
	}

	result := gateway.ChargeResponse{
		ExternalPaymentID: paymentResp.ID,
		Status:            mapPaymentStatus(paymentResp.Status),
		BankSlipURL:       paymentResp.BankSlipURL,
	}

	if req.Method == domain.PaymentMethodPix {
		var qr pixQrCodeResponse
		if err := c.doRequest(ctx, "pix_qr_code", http.MethodGet, "/payments/"+paymentResp.ID+"/pixQrCode", nil, &qr); err != nil {
			return gateway.ChargeResponse{}, err
		}
		result.PixQrCode = qr.EncodedImage
		result.PixCopyPaste = qr.Payload
	}

	c.log.Info("Created Asaas charge %s with status %s", paymentResp.ID, paymentResp.Status)
	return result, nil
}

// QueryStatus возвращает актуальный статус платежа в Asaas
func (c *Client) QueryStatus(ctx context.Context, externalPaymentID string) (domain.PaymentStatus, error) {
	c.log.Debug("Querying Asaas payment status: %s", externalPaymentID)

	var paymentResp paymentResponse
	if err := c.doRequest(ctx, "query_status", http.MethodGet, "/payments/"+externalPaymentID, nil, &paymentResp); err != nil {
		return "", err
	}

	return mapPaymentStatus(paymentResp.Status), nil
}

// CancelCharge отменяет еще не оплаченное списание в Asaas
func (c *Client) CancelCharge(ctx context.Context, externalPaymentID string) error {
	c.log.Debug("Cancelling Asaas charge: %s", externalPaymentID)

	if err := c.doRequest(ctx, "cancel_charge", http.MethodDelete, "/payments/"+externalPaymentID, nil, nil); err != nil {
		return err
	}

	c.log.Info("Cancelled Asaas charge %s", externalPaymentID)
	return nil
}

// billingTypeFor преобразует способ оплаты в billingType Asaas
func billingTypeFor(method domain.PaymentMethod) string {
	switch method {
	case domain.PaymentMethodPix:
		return "PIX"
	case domain.PaymentMethodBoleto:
		return "BOLETO"
	case domain.PaymentMethodCreditCard:
		return "CREDIT_CARD"
	default:
		return "UNDEFINED"
	}
}

// centavosToReais преобразует сумму из центавов в реалы для API Asaas
func centavosToReais(amount int64) float64 {
	return float64(amount) / 100.0
}
