package kuveytturk

import (
	"bytes"
	"fmt"
	"html/template"
	"strconv"
	"strings"

	"github.com/mstgnz/posgate/provider"
)

const (
	defaultGatewayURL = "https://boa.kuveytturk.com.tr/sanalposservice/Home/ThreeDModelPayGate"

	responseApproved = "00"
)

// hashScheme is sha256 over the fields followed by the password, hex encoded.
var hashScheme = provider.SignatureScheme{
	Algorithm: provider.SHA256,
	Encoding:  provider.Hex,
	Placement: provider.SecretSuffix,
}

// currencyCodes maps ISO 4217 alpha codes to the numeric form the gateway expects
var currencyCodes = map[string]string{
	"TRY": "0949",
	"USD": "0840",
	"EUR": "0978",
	"GBP": "0826",
}

var formTemplate = template.Must(template.New("form").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Payment</title>
</head>
<body>
<form id="paymentForm" method="POST" action="{{.Action}}">
{{- range .Fields}}
<input type="hidden" name="{{.Name}}" value="{{.Value}}">
{{- end}}
</form>
<script>document.getElementById('paymentForm').submit();</script>
</body>
</html>
`))

// Provider is the browser-redirect adapter for the Kuveyt Türk virtual POS.
// The buyer's browser posts an auto-submitting form; the result comes back
// through the callback.
//
// The form carries no Password field. The API password only salts Hash, so
// the gateway authenticates the request through Hash alone and the secret
// never reaches the browser.
type Provider struct {
	merchantID string
	customerID string
	username   string
	password   string
	gatewayURL string
}

// NewProvider builds a Kuveyt Türk adapter that owns creds
func NewProvider(creds provider.Credentials) (provider.Adapter, error) {
	p := &Provider{}
	if err := provider.ValidateConfigFields(p.Name(), creds, p.RequiredConfig()); err != nil {
		return nil, err
	}
	p.merchantID = creds.Get("merchantId")
	p.customerID = creds.Get("customerId")
	p.username = creds.Get("username")
	p.password = creds.Get("password")
	p.gatewayURL = creds.GetOr("baseURL", defaultGatewayURL)
	return p, nil
}

func (p *Provider) Name() string { return "kuveytturk" }

// RequiredConfig returns the configuration fields required for Kuveyt Türk
func (p *Provider) RequiredConfig() []provider.ConfigField {
	return []provider.ConfigField{
		{Key: "merchantId", Required: true, Type: "string", Description: "Kuveyt Türk merchant id", Example: "496", MaxLength: 32},
		{Key: "customerId", Required: true, Type: "string", Description: "Kuveyt Türk customer number", Example: "400235", MaxLength: 32},
		{Key: "username", Required: true, Type: "string", Description: "Virtual POS API user", Example: "apitest", MaxLength: 64},
		{Key: "password", Required: true, Type: "string", Description: "Virtual POS API password", Example: "api123", MaxLength: 128},
		{Key: "baseURL", Required: false, Type: "url", Description: "3-D model pay gate URL", Example: defaultGatewayURL, Pattern: "^https?://"},
	}
}

// BuildRequest renders the self-submitting payment form
func (p *Provider) BuildRequest(intent provider.PaymentIntent) (provider.CallDescriptor, error) {
	if err := provider.RequireCard(intent); err != nil {
		return provider.CallDescriptor{}, err
	}

	currency, ok := currencyCodes[strings.ToUpper(intent.Currency)]
	if !ok {
		return provider.CallDescriptor{}, &provider.ValidationError{Fields: []provider.FieldError{{Field: "currency", Reason: "is not supported by kuveytturk"}}}
	}

	amount := provider.FormatMinor(intent.Amount)
	okURL := intent.ReturnURL
	failURL := intent.FailureURL()

	hash, err := provider.Sign(hashScheme, []string{p.merchantID, intent.OrderID, amount, okURL, failURL, p.username}, p.password)
	if err != nil {
		return provider.CallDescriptor{}, err
	}

	fields := []provider.FormField{
		{Name: "MerchantId", Value: p.merchantID},
		{Name: "CustomerId", Value: p.customerID},
		{Name: "UserName", Value: p.username},
		{Name: "CardNumber", Value: intent.Card.Number},
		{Name: "CardExpireDateMonth", Value: intent.Card.ExpireMonth},
		{Name: "CardExpireDateYear", Value: intent.Card.ExpireYear},
		{Name: "CardCVV2", Value: intent.Card.CVV},
		{Name: "CardHolderName", Value: intent.Card.HolderName},
		{Name: "Amount", Value: amount},
		{Name: "Currency", Value: currency},
		{Name: "InstallmentCount", Value: strconv.Itoa(intent.InstallmentCount)},
		{Name: "OrderId", Value: intent.OrderID},
		{Name: "CustomerName", Value: intent.Buyer.FullName()},
		{Name: "CustomerEmail", Value: intent.Buyer.Email},
		{Name: "CustomerPhone", Value: intent.Buyer.Phone},
		{Name: "OkUrl", Value: okURL},
		{Name: "FailUrl", Value: failURL},
		{Name: "Hash", Value: hash},
	}

	var doc bytes.Buffer
	if err := formTemplate.Execute(&doc, struct {
		Action string
		Fields []provider.FormField
	}{p.gatewayURL, fields}); err != nil {
		return provider.CallDescriptor{}, fmt.Errorf("kuveytturk: rendering form: %w", err)
	}

	return provider.NewBrowserCall(p.gatewayURL, fields, doc.Bytes()), nil
}

// ParseResponse is never reached in normal operation: the form is delivered
// by the browser and the result arrives via callback.
func (p *Provider) ParseResponse(_ provider.PaymentIntent, _ provider.RawResponse) (provider.Outcome, error) {
	return provider.Outcome{}, &provider.MalformedResponseError{Provider: p.Name(), Reason: "browser-delivered provider has no server response"}
}

// DecodeCallback reads the gateway's return fields. MerchantOrderId is our
// order id; OrderId is the bank's own reference.
func (p *Provider) DecodeCallback(values map[string]string) provider.CallbackEvent {
	return provider.CallbackEvent{
		OrderID:       provider.FirstOf(values, "MerchantOrderId", "orderId"),
		TransactionID: provider.FirstOf(values, "OrderId", "transactionId"),
		Status:        provider.FirstOf(values, "ResponseCode", "status"),
	}
}

// NormalizeStatus maps bank response codes
func (p *Provider) NormalizeStatus(status string) provider.RecordedStatus {
	if strings.TrimSpace(status) == responseApproved {
		return provider.StatusCompleted
	}
	return provider.StatusFailed
}
