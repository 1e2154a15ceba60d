package service

// VaultObserver receives vault events, typically for metrics.
// Implementations must be safe for concurrent use and must not block.
type VaultObserver interface {
	TokenMinted()
	MintCollision()
	PersistFailed()
	TokenSpaceExhausted()
	UnknownToken()
	VaultSize(entries int)
}

type nopObserver struct{}

func (nopObserver) TokenMinted()         {}
func (nopObserver) MintCollision()       {}
func (nopObserver) PersistFailed()       {}
func (nopObserver) TokenSpaceExhausted() {}
func (nopObserver) UnknownToken()        {}
func (nopObserver) VaultSize(int)        {}
