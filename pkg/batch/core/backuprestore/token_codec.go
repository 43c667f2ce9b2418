package backuprestore

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	logger "github.com/tigerroll/surfin-backuprestore/pkg/batch/support/util/logger"

	"github.com/awnumar/memguard"
)

// CredentialTokenCodec maps the tokens of one restore run back to their
// plaintext values. Values are kept sealed and only opened on lookup.
type CredentialTokenCodec struct {
	mu     sync.RWMutex
	values map[string]*memguard.Enclave
}

// NewCredentialTokenCodec parses token=value pairs separated by separator.
// Pairs that do not split into exactly two fields are dropped. Empty trailing
// fields are ignored, so "tok=" is malformed while "=value" maps the empty token.
// A later pair for the same token wins.
func NewCredentialTokenCodec(concatenated, separator string) *CredentialTokenCodec {
	c := &CredentialTokenCodec{values: make(map[string]*memguard.Enclave)}
	for _, pair := range splitTrimTrailing(concatenated, separator) {
		kv := splitTrimTrailing(pair, "=")
		if len(kv) != 2 {
			continue
		}
		c.values[kv[0]] = seal(kv[1])
	}
	return c
}

func seal(value string) *memguard.Enclave {
	// NewEnclave wipes its input, hand it a copy.
	return memguard.NewEnclave([]byte(value))
}

// splitTrimTrailing splits s on the literal sep and drops trailing empty fields.
func splitTrimTrailing(s, sep string) []string {
	if s == "" {
		return nil
	}
	var parts []string
	if sep == "" {
		parts = []string{s}
	} else {
		parts = strings.Split(s, sep)
	}
	end := len(parts)
	for end > 0 && parts[end-1] == "" {
		end--
	}
	return parts[:end]
}

// Resolve returns the value mapped to token, or token itself when unknown.
func (c *CredentialTokenCodec) Resolve(token string) string {
	if v, ok := c.Lookup(token); ok {
		return v
	}
	return token
}

// Lookup returns the value mapped to token.
func (c *CredentialTokenCodec) Lookup(token string) (string, bool) {
	c.mu.RLock()
	enclave, ok := c.values[token]
	c.mu.RUnlock()
	if !ok {
		return "", false
	}
	if enclave == nil {
		// memguard returns no enclave for empty values.
		return "", true
	}
	buf, err := enclave.Open()
	if err != nil {
		logger.Errorf("Failed to open sealed value for token '%s': %v", token, err)
		return "", false
	}
	defer buf.Destroy()
	return string(buf.Bytes()), true
}

// Tokens returns the known tokens in sorted order.
func (c *CredentialTokenCodec) Tokens() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.values))
	for token := range c.values {
		out = append(out, token)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of known tokens.
func (c *CredentialTokenCodec) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.values)
}

// Destroy drops every sealed value. Lookups afterwards find nothing.
func (c *CredentialTokenCodec) Destroy() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values = map[string]*memguard.Enclave{}
}

func (c *CredentialTokenCodec) String() string {
	return fmt.Sprintf("CredentialTokenCodec[%d tokens]", c.Len())
}

// CredentialTokenizer replaces credentials by ${workspace.store.key}
// placeholders while a backup runs and remembers which placeholders it emitted.
type CredentialTokenizer struct {
	mu        sync.Mutex
	sensitive map[string]struct{}
	emitted   map[string]struct{}
}

// NewCredentialTokenizer creates a tokenizer for the given connection
// parameter keys. Keys match case-insensitively.
func NewCredentialTokenizer(sensitiveKeys []string) *CredentialTokenizer {
	t := &CredentialTokenizer{
		sensitive: make(map[string]struct{}, len(sensitiveKeys)),
		emitted:   make(map[string]struct{}),
	}
	for _, k := range sensitiveKeys {
		t.sensitive[strings.ToLower(k)] = struct{}{}
	}
	return t
}

// IsSensitive reports whether a connection parameter key is tokenized.
func (t *CredentialTokenizer) IsSensitive(key string) bool {
	_, ok := t.sensitive[strings.ToLower(key)]
	return ok
}

// Tokenize returns the placeholder for a value and records it.
func (t *CredentialTokenizer) Tokenize(workspace, store, key string) string {
	token := FormatToken(workspace, store, key)
	t.mu.Lock()
	t.emitted[token] = struct{}{}
	t.mu.Unlock()
	return token
}

// Emitted returns the placeholders produced so far, sorted.
func (t *CredentialTokenizer) Emitted() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, 0, len(t.emitted))
	for token := range t.emitted {
		out = append(out, token)
	}
	sort.Strings(out)
	return out
}

// FormatToken builds the placeholder used for a store credential, e.g. ${sf.sf.passwd}.
func FormatToken(workspace, store, key string) string {
	return "${" + workspace + "." + store + "." + key + "}"
}
