package domain

import "fmt"

// Entry is a single word/token assignment.
type Entry struct {
	Word  string
	Token string
}

// Vault is the bidirectional word/token mapping.
//
// WordToToken and TokenToWord are two views of one relation: for every
// pair in one map the inverse pair is in the other. A Vault is a plain
// value; callers that share one must serialize access themselves.
type Vault struct {
	WordToToken map[string]string `msgpack:"word_to_token" json:"word_to_token"`
	TokenToWord map[string]string `msgpack:"token_to_word" json:"token_to_word"`
}

// NewVault returns an empty vault.
func NewVault() *Vault {
	return &Vault{
		WordToToken: make(map[string]string),
		TokenToWord: make(map[string]string),
	}
}

// Len returns the number of assignments.
func (v *Vault) Len() int {
	return len(v.WordToToken)
}

// Token returns the token assigned to word.
func (v *Vault) Token(word string) (string, bool) {
	t, ok := v.WordToToken[word]
	return t, ok
}

// Word returns the word a token stands for.
func (v *Vault) Word(token string) (string, bool) {
	w, ok := v.TokenToWord[token]
	return w, ok
}

// HasToken reports whether token is assigned to any word.
func (v *Vault) HasToken(token string) bool {
	_, ok := v.TokenToWord[token]
	return ok
}

// Clone returns a deep copy of the vault.
func (v *Vault) Clone() *Vault {
	c := &Vault{
		WordToToken: make(map[string]string, len(v.WordToToken)+1),
		TokenToWord: make(map[string]string, len(v.TokenToWord)+1),
	}
	for w, t := range v.WordToToken {
		c.WordToToken[w] = t
	}
	for t, w := range v.TokenToWord {
		c.TokenToWord[t] = w
	}
	return c
}

// With returns a copy of the vault with e added to both maps.
// The receiver is not modified.
func (v *Vault) With(e Entry) *Vault {
	c := v.Clone()
	c.WordToToken[e.Word] = e.Token
	c.TokenToWord[e.Token] = e.Word
	return c
}

// Entries returns every assignment in no particular order.
func (v *Vault) Entries() []Entry {
	entries := make([]Entry, 0, len(v.WordToToken))
	for w, t := range v.WordToToken {
		entries = append(entries, Entry{Word: w, Token: t})
	}
	return entries
}

// Validate checks that the two maps describe the same bijection.
func (v *Vault) Validate() error {
	if len(v.WordToToken) != len(v.TokenToWord) {
		return ErrVaultInconsistent.WithDetails(
			fmt.Sprintf("%d words, %d tokens", len(v.WordToToken), len(v.TokenToWord)))
	}
	for w, t := range v.WordToToken {
		if back, ok := v.TokenToWord[t]; !ok || back != w {
			return ErrVaultInconsistent.WithDetails("token without matching word")
		}
	}
	return nil
}

// Normalize fills nil maps so a decoded vault is always usable.
func (v *Vault) Normalize() *Vault {
	if v.WordToToken == nil {
		v.WordToToken = make(map[string]string)
	}
	if v.TokenToWord == nil {
		v.TokenToWord = make(map[string]string)
	}
	return v
}
