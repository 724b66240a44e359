package iyzico

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mstgnz/posgate/provider"
)

const (
	// API URLs
	apiSandboxURL    = "https://sandbox-api.iyzipay.com"
	apiProductionURL = "https://api.iyzipay.com"

	// API Endpoints
	endpoint3DInit = "/api/payment/3d/initialize"

	// Headers
	headerRandom        = "x-iyzi-rnd"
	headerTimestamp     = "x-iyzi-timestamp"
	headerClientVersion = "x-iyzi-client-version"
	clientVersion       = "posgate-go-1.0.0"

	// İyzico Status Codes
	statusSuccess = "success"
	statusFailure = "failure"

	// Default Values
	defaultLocale         = "tr"
	defaultIdentityNumber = "11111111111"
	defaultItemType       = "PHYSICAL"
	defaultErrorMessage   = "iyzico payment failed"
	nonceBytes            = 16
)

var (
	// authScheme signs apiKey + nonce + timestamp + secretKey
	authScheme = provider.SignatureScheme{
		Algorithm: provider.SHA256,
		Encoding:  provider.Base64,
		Placement: provider.SecretSuffix,
	}

	// callbackScheme signs conversationId:paymentId:status keyed by secretKey
	callbackScheme = provider.SignatureScheme{
		Algorithm: provider.SHA256,
		Encoding:  provider.Hex,
		Placement: provider.SecretHMACKey,
		Delimiter: ":",
	}
)

// Provider is the JSON/REST 3-D Secure adapter for iyzico
type Provider struct {
	apiKey    string
	secretKey string
	baseURL   string

	now    func() time.Time
	random io.Reader
}

// NewProvider builds an iyzico adapter that owns creds
func NewProvider(creds provider.Credentials) (provider.Adapter, error) {
	p := &Provider{}
	if err := provider.ValidateConfigFields(p.Name(), creds, p.RequiredConfig()); err != nil {
		return nil, err
	}

	p.apiKey = creds.Get("apiKey")
	p.secretKey = creds.Get("secretKey")
	p.baseURL = strings.TrimRight(creds.GetOr("baseURL", apiSandboxURL), "/")
	if creds.Get("environment") == "production" && creds.Get("baseURL") == "" {
		p.baseURL = apiProductionURL
	}
	p.now = time.Now
	p.random = rand.Reader
	return p, nil
}

func (p *Provider) Name() string { return "iyzico" }

// RequiredConfig returns the configuration fields required for iyzico
func (p *Provider) RequiredConfig() []provider.ConfigField {
	return []provider.ConfigField{
		{
			Key:         "apiKey",
			Required:    true,
			Type:        "string",
			Description: "iyzico API Key (found in iyzico merchant panel)",
			Example:     "sandbox-BIOoONNaqF8UZZmP3...",
			MaxLength:   200,
		},
		{
			Key:         "secretKey",
			Required:    true,
			Type:        "string",
			Description: "iyzico Secret Key (found in iyzico merchant panel)",
			Example:     "sandbox-NjQwOTRkMDBkZmE1...",
			MaxLength:   200,
		},
		{
			Key:         "baseURL",
			Required:    false,
			Type:        "url",
			Description: "API base URL, sandbox by default",
			Example:     apiSandboxURL,
			Pattern:     "^https?://",
		},
		{
			Key:         "environment",
			Required:    false,
			Type:        "string",
			Description: "Environment setting (sandbox or production)",
			Example:     "sandbox",
			Pattern:     "^(sandbox|production)$",
		},
	}
}

// BuildRequest signs and shapes the 3-D Secure initialize call
func (p *Provider) BuildRequest(intent provider.PaymentIntent) (provider.CallDescriptor, error) {
	if err := provider.RequireCard(intent); err != nil {
		return provider.CallDescriptor{}, err
	}

	nonce, err := p.nonce()
	if err != nil {
		return provider.CallDescriptor{}, fmt.Errorf("iyzico: generating nonce: %w", err)
	}
	timestamp := strconv.FormatInt(p.now().UnixMilli(), 10)

	signature, err := provider.Sign(authScheme, []string{p.apiKey, nonce, timestamp}, p.secretKey)
	if err != nil {
		return provider.CallDescriptor{}, err
	}

	body, err := json.Marshal(p.mapToIyzicoRequest(intent))
	if err != nil {
		return provider.CallDescriptor{}, fmt.Errorf("iyzico: encoding request: %w", err)
	}

	headers := provider.Headers{
		{Name: "Accept", Value: "application/json"},
		{Name: "Content-Type", Value: "application/json"},
		{Name: "Authorization", Value: fmt.Sprintf("IYZWS %s:%s", p.apiKey, signature)},
		{Name: headerRandom, Value: nonce},
		{Name: headerTimestamp, Value: timestamp},
		{Name: headerClientVersion, Value: clientVersion},
	}

	return provider.NewServerCall(http.MethodPost, p.baseURL+endpoint3DInit, headers, body), nil
}

func (p *Provider) nonce() (string, error) {
	b := make([]byte, nonceBytes)
	if _, err := io.ReadFull(p.random, b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func (p *Provider) mapToIyzicoRequest(intent provider.PaymentIntent) map[string]any {
	locale := intent.Locale
	if locale == "" {
		locale = defaultLocale
	}

	price := provider.FormatMajor(intent.Amount)

	buyerID := intent.Buyer.ID
	if buyerID == "" {
		buyerID = uuid.New().String()
	}
	buyerIP := intent.Buyer.IP
	if buyerIP == "" {
		buyerIP = "127.0.0.1"
	}

	var address provider.Address
	if intent.Buyer.Address != nil {
		address = *intent.Buyer.Address
	}
	contactName := address.ContactName
	if contactName == "" {
		contactName = intent.Buyer.FullName()
	}

	now := p.now().Format("2006-01-02 15:04:05")

	postal := map[string]any{
		"contactName": contactName,
		"address":     address.Address,
		"city":        address.City,
		"country":     address.Country,
		"zipCode":     address.ZipCode,
	}

	return map[string]any{
		"locale":         locale,
		"conversationId": intent.OrderID,
		"price":          price,
		"paidPrice":      price,
		"currency":       strings.ToUpper(intent.Currency),
		"installment":    intent.Installments(),
		"basketId":       intent.OrderID,
		"paymentChannel": "WEB",
		"paymentGroup":   "PRODUCT",
		"callbackUrl":    intent.ReturnURL,
		"paymentCard": map[string]any{
			"cardHolderName": intent.Card.HolderName,
			"cardNumber":     intent.Card.Number,
			"expireMonth":    intent.Card.ExpireMonth,
			"expireYear":     intent.Card.ExpireYear,
			"cvc":            intent.Card.CVV,
			"registerCard":   0,
		},
		"buyer": map[string]any{
			"id":                  buyerID,
			"name":                intent.Buyer.Name,
			"surname":             intent.Buyer.Surname,
			"gsmNumber":           intent.Buyer.Phone,
			"email":               intent.Buyer.Email,
			"identityNumber":      defaultIdentityNumber,
			"lastLoginDate":       now,
			"registrationDate":    now,
			"registrationAddress": address.Address,
			"ip":                  buyerIP,
			"city":                address.City,
			"country":             address.Country,
			"zipCode":             address.ZipCode,
		},
		"shippingAddress": postal,
		"billingAddress":  postal,
		"basketItems":     basketItems(intent),
	}
}

// basketItems must sum to price; a single synthetic line is sent when the
// intent carries none.
func basketItems(intent provider.PaymentIntent) []map[string]any {
	if len(intent.Items) == 0 {
		return []map[string]any{{
			"id":        intent.OrderID,
			"name":      orDefault(intent.Description, "Order "+intent.OrderID),
			"category1": "General",
			"itemType":  defaultItemType,
			"price":     provider.FormatMajor(intent.Amount),
		}}
	}

	items := make([]map[string]any, len(intent.Items))
	for i, item := range intent.Items {
		items[i] = map[string]any{
			"id":        item.ID,
			"name":      item.Name,
			"category1": orDefault(item.Category, "General"),
			"itemType":  defaultItemType,
			"price":     provider.FormatMajor(item.Price),
		}
	}
	return items
}

type initializeResponse struct {
	Status             string `json:"status"`
	ErrorCode          string `json:"errorCode"`
	ErrorMessage       string `json:"errorMessage"`
	ConversationID     string `json:"conversationId"`
	PaymentID          string `json:"paymentId"`
	ThreeDSHTMLContent string `json:"threeDSHtmlContent"`
}

// ParseResponse maps the initialize response onto an outcome
func (p *Provider) ParseResponse(intent provider.PaymentIntent, raw provider.RawResponse) (provider.Outcome, error) {
	var resp initializeResponse
	if err := json.Unmarshal(raw.Body, &resp); err != nil {
		return provider.Outcome{}, &provider.MalformedResponseError{Provider: p.Name(), Reason: "body is not JSON", Err: err}
	}

	switch resp.Status {
	case statusSuccess:
		html := decodeHTML(resp.ThreeDSHTMLContent)
		if html == "" {
			return provider.Outcome{}, &provider.MalformedResponseError{Provider: p.Name(), Reason: "missing threeDSHtmlContent"}
		}
		id := resp.ConversationID
		if id == "" {
			id = intent.OrderID
		}
		return provider.RedirectOutcome(provider.Redirect{
			HTML:          html,
			ID:            id,
			TransactionID: resp.PaymentID,
		}), nil
	case statusFailure:
		return provider.FailureOutcome(provider.ErrorDeclined, resp.ErrorCode, orDefault(resp.ErrorMessage, defaultErrorMessage)), nil
	case "":
		return provider.Outcome{}, &provider.MalformedResponseError{Provider: p.Name(), Reason: "missing status"}
	default:
		return provider.FailureOutcome(provider.ErrorDeclined, resp.ErrorCode, orDefault(resp.ErrorMessage, defaultErrorMessage)), nil
	}
}

// decodeHTML accepts the 3-D Secure page either as plain HTML or base64.
func decodeHTML(content string) string {
	content = strings.TrimSpace(content)
	if content == "" || strings.HasPrefix(content, "<") {
		return content
	}
	decoded, err := base64.StdEncoding.DecodeString(content)
	if err != nil || !strings.HasPrefix(strings.TrimSpace(string(decoded)), "<") {
		return content
	}
	return string(decoded)
}

// DecodeCallback reads iyzico's 3-D Secure callback fields
func (p *Provider) DecodeCallback(values map[string]string) provider.CallbackEvent {
	return provider.CallbackEvent{
		OrderID:       provider.FirstOf(values, "conversationId", "orderId"),
		TransactionID: provider.FirstOf(values, "paymentId", "transactionId"),
		Status:        provider.FirstOf(values, "status"),
		Signature:     provider.FirstOf(values, "signature"),
	}
}

// VerifyCallback checks the HMAC over conversationId:paymentId:status
func (p *Provider) VerifyCallback(event provider.CallbackEvent) bool {
	return provider.Verify(callbackScheme, callbackFields(event), p.secretKey, event.Signature)
}

// CallbackSignature signs a callback event the way iyzico does
func (p *Provider) CallbackSignature(event provider.CallbackEvent) (string, error) {
	return provider.Sign(callbackScheme, callbackFields(event), p.secretKey)
}

func callbackFields(event provider.CallbackEvent) []string {
	return []string{event.OrderID, event.TransactionID, event.Status}
}

// NormalizeStatus maps iyzico statuses
func (p *Provider) NormalizeStatus(status string) provider.RecordedStatus {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case statusSuccess:
		return provider.StatusCompleted
	case statusFailure:
		return provider.StatusFailed
	default:
		return provider.StatusPending
	}
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
