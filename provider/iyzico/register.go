package iyzico

import "github.com/mstgnz/posgate/provider"

func init() {
	provider.RegisterFactory("iyzico", NewProvider)
}
