package sipay

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/mstgnz/posgate/provider"
)

const (
	defaultBaseURL = "https://api.sipay.com.tr"
	endpointPay    = "/api/payment/process"

	statusSuccess       = "success"
	defaultErrorMessage = "Sipay payment failed"
)

// hashScheme is sha256 over merchantKey followed by the fields, hex encoded.
var hashScheme = provider.SignatureScheme{
	Algorithm: provider.SHA256,
	Encoding:  provider.Hex,
	Placement: provider.SecretPrefix,
}

// Provider is the hash-authenticated REST adapter for Sipay
type Provider struct {
	merchantKey string
	merchantID  string
	baseURL     string
}

// NewProvider builds a Sipay adapter that owns creds
func NewProvider(creds provider.Credentials) (provider.Adapter, error) {
	p := &Provider{}
	if err := provider.ValidateConfigFields(p.Name(), creds, p.RequiredConfig()); err != nil {
		return nil, err
	}
	p.merchantKey = creds.Get("merchantKey")
	p.merchantID = creds.Get("merchantId")
	p.baseURL = strings.TrimRight(creds.GetOr("baseURL", defaultBaseURL), "/")
	return p, nil
}

func (p *Provider) Name() string { return "sipay" }

// RequiredConfig returns the configuration fields required for Sipay
func (p *Provider) RequiredConfig() []provider.ConfigField {
	return []provider.ConfigField{
		{
			Key:         "merchantKey",
			Required:    true,
			Type:        "string",
			Description: "Sipay merchant key",
			Example:     "$2y$10$HmRgYosneqcwHj...",
			MaxLength:   256,
		},
		{
			Key:         "merchantId",
			Required:    true,
			Type:        "string",
			Description: "Sipay merchant id",
			Example:     "18309",
			MaxLength:   64,
		},
		{
			Key:         "baseURL",
			Required:    false,
			Type:        "url",
			Description: "API base URL",
			Example:     defaultBaseURL,
			Pattern:     "^https?://",
		},
	}
}

type paymentRequest struct {
	MerchantKey      string `json:"merchant_key"`
	MerchantID       string `json:"merchant_id"`
	Amount           int64  `json:"amount"`
	Currency         string `json:"currency"`
	Installment      int    `json:"installment"`
	CardNumber       string `json:"card_number"`
	CardExpiryMonth  string `json:"card_expiry_month"`
	CardExpiryYear   string `json:"card_expiry_year"`
	CardCVV          string `json:"card_cvv"`
	CardHolderName   string `json:"card_holder_name"`
	CustomerName     string `json:"customer_name"`
	CustomerEmail    string `json:"customer_email"`
	CustomerPhone    string `json:"customer_phone"`
	OrderID          string `json:"order_id"`
	OrderDescription string `json:"order_description"`
	ReturnURL        string `json:"return_url"`
	CancelURL        string `json:"cancel_url"`
	Hash             string `json:"hash"`
}

// BuildRequest shapes and hashes the payment call
func (p *Provider) BuildRequest(intent provider.PaymentIntent) (provider.CallDescriptor, error) {
	if err := provider.RequireCard(intent); err != nil {
		return provider.CallDescriptor{}, err
	}

	currency := strings.ToUpper(intent.Currency)
	hash, err := provider.Sign(hashScheme, []string{
		provider.FormatMinor(intent.Amount),
		currency,
		intent.OrderID,
		p.merchantID,
	}, p.merchantKey)
	if err != nil {
		return provider.CallDescriptor{}, err
	}

	body, err := json.Marshal(paymentRequest{
		MerchantKey:      p.merchantKey,
		MerchantID:       p.merchantID,
		Amount:           intent.Amount,
		Currency:         currency,
		Installment:      intent.Installments(),
		CardNumber:       intent.Card.Number,
		CardExpiryMonth:  intent.Card.ExpireMonth,
		CardExpiryYear:   intent.Card.ExpireYear,
		CardCVV:          intent.Card.CVV,
		CardHolderName:   intent.Card.HolderName,
		CustomerName:     intent.Buyer.FullName(),
		CustomerEmail:    intent.Buyer.Email,
		CustomerPhone:    intent.Buyer.Phone,
		OrderID:          intent.OrderID,
		OrderDescription: intent.Description,
		ReturnURL:        intent.ReturnURL,
		CancelURL:        intent.FailureURL(),
		Hash:             hash,
	})
	if err != nil {
		return provider.CallDescriptor{}, fmt.Errorf("sipay: encoding request: %w", err)
	}

	headers := provider.Headers{
		{Name: "Accept", Value: "application/json"},
		{Name: "Content-Type", Value: "application/json"},
	}
	return provider.NewServerCall(http.MethodPost, p.baseURL+endpointPay, headers, body), nil
}

type paymentResponse struct {
	Status        string `json:"status"`
	RedirectURL   string `json:"redirect_url"`
	TransactionID string `json:"transaction_id"`
	ErrorCode     string `json:"error_code"`
	ErrorMessage  string `json:"error_message"`
}

// ParseResponse maps the Sipay response onto an outcome
func (p *Provider) ParseResponse(intent provider.PaymentIntent, raw provider.RawResponse) (provider.Outcome, error) {
	var resp paymentResponse
	if err := json.Unmarshal(raw.Body, &resp); err != nil {
		return provider.Outcome{}, &provider.MalformedResponseError{Provider: p.Name(), Reason: "body is not JSON", Err: err}
	}

	switch {
	case resp.Status == "":
		return provider.Outcome{}, &provider.MalformedResponseError{Provider: p.Name(), Reason: "missing status"}
	case resp.Status != statusSuccess:
		msg := resp.ErrorMessage
		if strings.TrimSpace(msg) == "" {
			msg = defaultErrorMessage
		}
		return provider.FailureOutcome(provider.ErrorDeclined, resp.ErrorCode, msg), nil
	case resp.RedirectURL != "":
		return provider.RedirectOutcome(provider.Redirect{
			URL:           resp.RedirectURL,
			ID:            intent.OrderID,
			TransactionID: resp.TransactionID,
		}), nil
	case resp.TransactionID != "":
		return provider.SuccessOutcome(provider.Success{
			TransactionID:     resp.TransactionID,
			ProviderReference: intent.OrderID,
		}), nil
	default:
		return provider.Outcome{}, &provider.MalformedResponseError{Provider: p.Name(), Reason: "success without redirect_url or transaction_id"}
	}
}

// DecodeCallback reads Sipay's notification fields
func (p *Provider) DecodeCallback(values map[string]string) provider.CallbackEvent {
	return provider.CallbackEvent{
		OrderID:       provider.FirstOf(values, "order_id", "orderId"),
		TransactionID: provider.FirstOf(values, "transaction_id", "transactionId"),
		Status:        provider.FirstOf(values, "status"),
		Signature:     provider.FirstOf(values, "hash"),
	}
}

// VerifyCallback recomputes the notification hash
func (p *Provider) VerifyCallback(event provider.CallbackEvent) bool {
	return provider.Verify(hashScheme, p.callbackFields(event), p.merchantKey, event.Signature)
}

// CallbackSignature signs a callback event the way Sipay does
func (p *Provider) CallbackSignature(event provider.CallbackEvent) (string, error) {
	return provider.Sign(hashScheme, p.callbackFields(event), p.merchantKey)
}

func (p *Provider) callbackFields(event provider.CallbackEvent) []string {
	return []string{event.OrderID, event.TransactionID, event.Status, p.merchantID}
}

// NormalizeStatus maps Sipay statuses
func (p *Provider) NormalizeStatus(status string) provider.RecordedStatus {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "success", "approved", "completed", "1":
		return provider.StatusCompleted
	case "failed", "fail", "declined", "error", "cancelled", "0":
		return provider.StatusFailed
	default:
		return provider.StatusPending
	}
}
