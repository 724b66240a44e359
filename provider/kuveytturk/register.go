package kuveytturk

import "github.com/mstgnz/posgate/provider"

func init() {
	provider.RegisterFactory("kuveytturk", NewProvider)
}
