package sipay

import "github.com/mstgnz/posgate/provider"

func init() {
	provider.RegisterFactory("sipay", NewProvider)
}
