package provider

import "strings"

// sensitive key fragments, matched against lower-cased keys
var (
	cardNumberKeys = []string{"cardnumber", "card_number"}
	cvvKeys        = []string{"cvv", "cvc", "cvv2"}
	secretKeys     = []string{"password", "secret", "apikey", "api_key", "merchantkey", "merchant_key", "hash", "signature", "authorization", "token"}
)

// SanitizeForLog masks card data and secrets in a payload before it is logged
func SanitizeForLog(data map[string]any) map[string]any {
	return sanitizeMap(data, false)
}

// SanitizeValues is SanitizeForLog for flat string maps such as callback forms.
func SanitizeValues(values map[string]string) map[string]any {
	data := make(map[string]any, len(values))
	for k, v := range values {
		data[k] = v
	}
	return sanitizeMap(data, false)
}

// sanitizeRecursive recursively sanitizes nested objects and arrays
func sanitizeRecursive(data any, inCard bool) any {
	switch v := data.(type) {
	case map[string]any:
		return sanitizeMap(v, inCard)
	case []any:
		result := make([]any, len(v))
		for i, item := range v {
			result[i] = sanitizeRecursive(item, inCard)
		}
		return result
	case []map[string]any:
		result := make([]any, len(v))
		for i, item := range v {
			result[i] = sanitizeRecursive(item, inCard)
		}
		return result
	default:
		return v
	}
}

// sanitizeMap masks sensitive keys; inside a card object "number" is a PAN.
func sanitizeMap(data map[string]any, inCard bool) map[string]any {
	sanitized := make(map[string]any, len(data))

	for key, value := range data {
		keyLower := strings.ToLower(key)
		str, isString := value.(string)

		switch {
		case containsAny(keyLower, cvvKeys):
			sanitized[key] = "***"
		case containsAny(keyLower, cardNumberKeys) || keyLower == "pan" || (inCard && keyLower == "number"):
			if isString {
				sanitized[key] = maskCardNumber(str)
			} else {
				sanitized[key] = "***REDACTED***"
			}
		case containsAny(keyLower, secretKeys):
			if isString {
				sanitized[key] = maskGenericSensitive(str)
			} else {
				sanitized[key] = "***REDACTED***"
			}
		default:
			sanitized[key] = sanitizeRecursive(value, strings.Contains(keyLower, "card"))
		}
	}

	return sanitized
}

func containsAny(s string, fragments []string) bool {
	for _, f := range fragments {
		if strings.Contains(s, f) {
			return true
		}
	}
	return false
}

// maskCardNumber masks a card number showing only first 4 and last 4 digits
func maskCardNumber(cardNumber string) string {
	cleaned := strings.ReplaceAll(strings.ReplaceAll(cardNumber, " ", ""), "-", "")

	if len(cleaned) <= 8 {
		return "****"
	}

	return cleaned[:4] + "********" + cleaned[len(cleaned)-4:]
}

// maskGenericSensitive masks generic sensitive data
func maskGenericSensitive(value string) string {
	if len(value) <= 8 {
		return "***REDACTED***"
	}
	return value[:2] + "***" + value[len(value)-2:]
}
