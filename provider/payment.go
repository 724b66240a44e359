package provider

// Card carries raw card data. Either every field is set or the card is omitted.
type Card struct {
	HolderName  string `json:"holderName" validate:"required"`
	Number      string `json:"number" validate:"required"`
	ExpireMonth string `json:"expireMonth" validate:"required"`
	ExpireYear  string `json:"expireYear" validate:"required"`
	CVV         string `json:"cvv" validate:"required"`
}

// Address is a postal address forwarded to providers that require one.
type Address struct {
	ContactName string `json:"contactName,omitempty"`
	City        string `json:"city,omitempty"`
	Country     string `json:"country,omitempty"`
	Address     string `json:"address,omitempty"`
	ZipCode     string `json:"zipCode,omitempty"`
}

// Buyer holds the buyer's contact information.
type Buyer struct {
	ID      string   `json:"id,omitempty"`
	Name    string   `json:"name,omitempty"`
	Surname string   `json:"surname,omitempty"`
	Email   string   `json:"email,omitempty" validate:"omitempty,email"`
	Phone   string   `json:"phone,omitempty"`
	IP      string   `json:"ip,omitempty"`
	Address *Address `json:"address,omitempty"`
}

// FullName joins name and surname.
func (b Buyer) FullName() string {
	switch {
	case b.Name == "":
		return b.Surname
	case b.Surname == "":
		return b.Name
	default:
		return b.Name + " " + b.Surname
	}
}

// Item is a basket line. Price is in minor units.
type Item struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
	Price    int64  `json:"price"`
}

// PaymentIntent is the provider-agnostic description of a payment attempt.
type PaymentIntent struct {
	Amount           int64  `json:"amount" validate:"gt=0"`
	Currency         string `json:"currency" validate:"required,len=3,alpha"`
	InstallmentCount int    `json:"installmentCount" validate:"gte=0,lte=36"`
	OrderID          string `json:"orderId" validate:"required,max=64"`
	Description      string `json:"description,omitempty"`
	Card             *Card  `json:"card,omitempty"`
	Buyer            Buyer  `json:"buyer"`
	Items            []Item `json:"items,omitempty"`
	ReturnURL        string `json:"returnUrl" validate:"required,url"`
	FailURL          string `json:"failUrl,omitempty" validate:"omitempty,url"`
	Locale           string `json:"locale,omitempty"`
}

// Installments returns the installment count with 0 folded into 1.
func (p PaymentIntent) Installments() int {
	if p.InstallmentCount < 1 {
		return 1
	}
	return p.InstallmentCount
}

// FailureURL falls back to ReturnURL when no dedicated fail URL is set.
func (p PaymentIntent) FailureURL() string {
	if p.FailURL == "" {
		return p.ReturnURL
	}
	return p.FailURL
}

// OutcomeKind tags the populated variant of an Outcome.
type OutcomeKind string

const (
	OutcomeRedirect OutcomeKind = "redirect"
	OutcomeSuccess  OutcomeKind = "success"
	OutcomeFailure  OutcomeKind = "failure"
)

// ErrorKind classifies a Failure outcome.
type ErrorKind string

const (
	ErrorProviderUnreachable ErrorKind = "provider_unreachable"
	ErrorMalformedResponse   ErrorKind = "malformed_provider_response"
	ErrorDeclined            ErrorKind = "provider_declined"
)

// Redirect asks the caller to send the buyer elsewhere, either by rendering
// HTML as-is or by following URL.
type Redirect struct {
	HTML          string `json:"html,omitempty"`
	URL           string `json:"url,omitempty"`
	ID            string `json:"id"`
	TransactionID string `json:"transactionId,omitempty"`
}

// Success is a payment the provider completed synchronously.
type Success struct {
	TransactionID     string `json:"transactionId"`
	ProviderReference string `json:"providerReference,omitempty"`
}

// Failure is a remote failure absorbed into an outcome.
type Failure struct {
	Kind    ErrorKind `json:"kind"`
	Code    string    `json:"code,omitempty"`
	Message string    `json:"message"`
}

// Outcome is the result of an initiation attempt. Exactly one of the
// variant pointers is non-nil, matching Kind.
type Outcome struct {
	Kind     OutcomeKind `json:"kind"`
	Redirect *Redirect   `json:"redirect,omitempty"`
	Success  *Success    `json:"success,omitempty"`
	Failure  *Failure    `json:"failure,omitempty"`
}

func RedirectOutcome(r Redirect) Outcome {
	return Outcome{Kind: OutcomeRedirect, Redirect: &r}
}

func SuccessOutcome(s Success) Outcome {
	return Outcome{Kind: OutcomeSuccess, Success: &s}
}

func FailureOutcome(kind ErrorKind, code, message string) Outcome {
	return Outcome{Kind: OutcomeFailure, Failure: &Failure{Kind: kind, Code: code, Message: message}}
}

// CallbackEvent is an inbound asynchronous notification, normalized to
// provider-agnostic field names.
type CallbackEvent struct {
	OrderID       string `json:"orderId"`
	TransactionID string `json:"transactionId"`
	Status        string `json:"status"`
	Signature     string `json:"signature,omitempty"`
}

// RecordedStatus is the fixed status vocabulary handed to the ledger.
type RecordedStatus string

const (
	StatusCompleted RecordedStatus = "completed"
	StatusFailed    RecordedStatus = "failed"
	StatusPending   RecordedStatus = "pending"
)

// RecordingRequest is the only artifact handed to durable storage.
// (OrderID, TransactionID) is its idempotency key.
type RecordingRequest struct {
	Provider      string         `json:"provider"`
	OrderID       string         `json:"orderId"`
	TransactionID string         `json:"transactionId"`
	Status        RecordedStatus `json:"status"`
	Verified      bool           `json:"verified"`
}

// Key returns the idempotency key.
func (r RecordingRequest) Key() string {
	return r.OrderID + "\x00" + r.TransactionID
}
