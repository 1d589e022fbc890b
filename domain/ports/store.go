package ports

import "github.com/reglet-dev/reglet-hooks/domain/entities"

// AddressStore maps opaque tokens to values for code that cannot hold a typed reference.
type AddressStore interface {
	// Store keeps v and returns its token.
	Store(v any) entities.Token

	// Fetch returns the value stored under token.
	Fetch(token entities.Token) (any, bool)
}
